package bootstrap

import (
	"github.com/sirupsen/logrus"

	"github.com/kt-primus/einsatzplanung/config"
	"github.com/kt-primus/einsatzplanung/internal/archive"
	"github.com/kt-primus/einsatzplanung/internal/audit"
	"github.com/kt-primus/einsatzplanung/internal/auth/repository"
	"github.com/kt-primus/einsatzplanung/internal/auth/service"
	"github.com/kt-primus/einsatzplanung/internal/catalog"
	"github.com/kt-primus/einsatzplanung/internal/duty"
	"github.com/kt-primus/einsatzplanung/internal/export"
	"github.com/kt-primus/einsatzplanung/internal/personnel"
	"github.com/kt-primus/einsatzplanung/internal/planning"
	"github.com/kt-primus/einsatzplanung/internal/realtime"
)

// Services is the application layer shared by the API server and the
// worker. Audit and Archive are nil without a database.
type Services struct {
	Broker    realtime.Broker
	Resolver  *service.Resolver
	Codec     *service.SessionCodec
	Renderers *export.Registry
	Plans     *planning.Service
	Catalog   *catalog.Service
	Personnel *personnel.Service
	Duty      *duty.Service
	Audit     *audit.Repository
	Archive   *archive.Service
}

func NewServices(cfg *config.Config, in *Infra, log *logrus.Logger) *Services {
	s := &Services{
		Codec:     service.NewSessionCodec(cfg.Session.Secret, cfg.Session.TTL),
		Renderers: export.NewRegistry(export.PDFRenderer{}, export.XLSXRenderer{}),
	}

	if in.Redis != nil {
		s.Broker = realtime.NewRedisBroker(in.Redis, log)
		s.Resolver = service.NewResolver(in.Store, repository.NewRoleCache(in.Redis, cfg.Redis.RoleTTL))
	} else {
		s.Broker = realtime.NewLocalBroker()
		s.Resolver = service.NewResolver(in.Store, nil)
	}

	if in.SQL != nil {
		s.Audit = audit.NewRepository(in.SQL)
		s.Plans = planning.NewService(in.Store, s.Broker, s.Audit)
	} else {
		s.Plans = planning.NewService(in.Store, s.Broker, nil)
	}

	s.Catalog = catalog.NewService(in.Store, s.Broker)
	s.Personnel = personnel.NewService(in.Store, s.Resolver, s.Broker)
	s.Duty = duty.NewService(in.Store, s.Broker)

	if in.Pool != nil {
		s.Archive = archive.NewService(s.Plans, s.Renderers, archive.NewRepository(in.Pool))
	}
	return s
}
