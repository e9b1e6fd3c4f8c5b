package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kt-primus/einsatzplanung/config"
	"github.com/kt-primus/einsatzplanung/internal/auth"
	"github.com/kt-primus/einsatzplanung/internal/auth/service"
	"github.com/kt-primus/einsatzplanung/internal/docstore"
	fsstore "github.com/kt-primus/einsatzplanung/internal/docstore/firestore"
	"github.com/kt-primus/einsatzplanung/internal/docstore/memstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
)

// DevAdminUID is the profile seeded into the in-memory store.
const DevAdminUID = "dev-admin"

// Infra holds the external connections. Optional ones are nil when not
// configured.
type Infra struct {
	Store docstore.Store
	// Watcher streams writes made by other instances; nil for the
	// in-memory store, whose writes never leave the process.
	Watcher  docstore.Watcher
	Identity service.IdentityProvider
	Firebase *auth.FirebaseClients
	Redis    *redis.Client
	Pool     *pgxpool.Pool
	SQL      *sql.DB
}

// OpenInfra connects to everything cfg names. On error the connections
// opened so far are closed.
func OpenInfra(ctx context.Context, cfg *config.Config, log *logrus.Logger) (_ *Infra, err error) {
	in := &Infra{}
	defer func() {
		if err != nil {
			in.Close()
		}
	}()

	switch cfg.Store.Backend {
	case "memory":
		mem := memstore.New()
		mem.PutUser(domain.User{
			UID:         DevAdminUID,
			DisplayName: "Administrator",
			Email:       cfg.Store.DevAdminEmail,
			Role:        domain.RoleAdmin,
			RoleKnown:   true,
			IsActive:    true,
		})
		in.Store = mem
		in.Identity = service.NewDevIdentity(mem, cfg.Store.DevPassword)
		log.WithField("email", cfg.Store.DevAdminEmail).Warn("using in-memory store with development sign-in")
	default:
		fb, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			return nil, err
		}
		in.Firebase = fb
		store := fsstore.New(fb.Firestore)
		in.Store = store
		in.Watcher = store
		in.Identity = service.NewFirebaseIdentity(fb.Auth, fb.Toolkit)
		log.Info("firebase initialized")
	}

	if in.Redis, err = OpenRedis(ctx, log, cfg.Redis); err != nil {
		return nil, err
	}
	if in.Redis != nil {
		log.WithField("addr", cfg.Redis.Addr).Info("redis connected")
	}

	if cfg.Database.DSN != "" {
		opt := DBOptions{DSN: cfg.Database.DSN}
		if in.Pool, err = OpenDB(ctx, log, opt); err != nil {
			return nil, fmt.Errorf("archive db: %w", err)
		}
		if in.SQL, err = OpenSQL(ctx, log, opt); err != nil {
			return nil, fmt.Errorf("audit db: %w", err)
		}
		log.Info("postgres connected")
	}
	return in, nil
}

func (in *Infra) Close() {
	if in.SQL != nil {
		_ = in.SQL.Close()
	}
	if in.Pool != nil {
		in.Pool.Close()
	}
	if in.Redis != nil {
		_ = in.Redis.Close()
	}
	if in.Firebase != nil {
		_ = in.Firebase.Close()
	}
}
