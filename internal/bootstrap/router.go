package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	httpapi "github.com/kt-primus/einsatzplanung/internal/api/http"
	apimw "github.com/kt-primus/einsatzplanung/internal/api/http/middleware"
	archivehttp "github.com/kt-primus/einsatzplanung/internal/archive/http"
	authhttp "github.com/kt-primus/einsatzplanung/internal/auth/http"
	authmw "github.com/kt-primus/einsatzplanung/internal/auth/middleware"
	"github.com/kt-primus/einsatzplanung/internal/auth/service"
	cataloghttp "github.com/kt-primus/einsatzplanung/internal/catalog/http"
	dutyhttp "github.com/kt-primus/einsatzplanung/internal/duty/http"
	"github.com/kt-primus/einsatzplanung/internal/guard"
	personnelhttp "github.com/kt-primus/einsatzplanung/internal/personnel/http"
	planninghttp "github.com/kt-primus/einsatzplanung/internal/planning/http"
	"github.com/kt-primus/einsatzplanung/internal/web"
)

type RouterDeps struct {
	ServiceName  string
	Version      string
	Log          *logrus.Logger
	Location     *time.Location
	CORSOrigins  []string
	SecureCookie bool
	LoginRate    int
	LoginBurst   int

	Identity service.IdentityProvider
	Services *Services
	Checks   map[string]httpapi.Pinger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), apimw.RequestID(dep.Log), apimw.Metrics())

	if len(dep.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     dep.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", apimw.RequestIDHeader},
			ExposeHeaders:    []string{apimw.RequestIDHeader, "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Checks).RegisterRoutes(r)

	svc := dep.Services
	policy := guard.DefaultPolicy()
	r.Use(authmw.LoadSession(svc.Codec, dep.Identity, svc.Resolver), guard.Middleware(policy))

	api := r.Group("/api")

	authHandler := authhttp.New(dep.Identity, svc.Resolver, svc.Codec, dep.SecureCookie)
	authHandler.Register(api, authmw.RateLimit(dep.LoginRate, dep.LoginBurst))

	if svc.Audit != nil {
		planninghttp.New(svc.Plans, svc.Broker, svc.Renderers, svc.Audit).Register(api)
	} else {
		planninghttp.New(svc.Plans, svc.Broker, svc.Renderers, nil).Register(api)
	}
	cataloghttp.New(svc.Catalog).Register(api)
	personnelhttp.New(svc.Personnel).Register(api)
	dutyhttp.New(svc.Duty, svc.Broker).Register(api)
	if svc.Archive != nil {
		archivehttp.New(svc.Archive).Register(api)
	}

	web.New(policy, dep.Location, authHandler.EndSession).Register(r)
	return r
}
