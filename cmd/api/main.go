package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kt-primus/einsatzplanung/config"
	httpapi "github.com/kt-primus/einsatzplanung/internal/api/http"
	"github.com/kt-primus/einsatzplanung/internal/bootstrap"
	"github.com/kt-primus/einsatzplanung/internal/jobs"
	"github.com/kt-primus/einsatzplanung/internal/logging"
	"github.com/kt-primus/einsatzplanung/internal/realtime"
	"github.com/kt-primus/einsatzplanung/internal/storage/postgres"
)

const serviceName = "einsatzplanung"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	log := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	infra, err := bootstrap.OpenInfra(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open infrastructure")
	}
	defer infra.Close()

	if infra.SQL != nil {
		if err := postgres.EnsureSchema(ctx, infra.SQL); err != nil {
			log.WithError(err).Fatal("ensure schema")
		}
	}

	svc := bootstrap.NewServices(cfg, infra, log)
	if _, err := svc.Plans.EnsureCatalog(logging.WithLogger(ctx, logrus.NewEntry(log))); err != nil {
		log.WithError(err).Warn("shift type catalog not seeded")
	}

	checks := map[string]httpapi.Pinger{"redis": nil, "postgres": nil}
	if infra.Redis != nil {
		checks["redis"] = httpapi.PingFunc(func(ctx context.Context) error { return infra.Redis.Ping(ctx).Err() })
	}
	if infra.Pool != nil {
		checks["postgres"] = infra.Pool
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:  serviceName,
		Version:      cfg.App.Version,
		Log:          log,
		Location:     cfg.Location(),
		CORSOrigins:  cfg.Server.CORSOrigins,
		SecureCookie: cfg.Session.SecureCookie,
		LoginRate:    cfg.Login.RatePerMinute,
		LoginBurst:   cfg.Login.Burst,
		Identity:     infra.Identity,
		Services:     svc,
		Checks:       checks,
	})

	if infra.Watcher != nil {
		go func() {
			if err := realtime.Relay(ctx, infra.Watcher, svc.Broker, log); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("store relay stopped")
			}
		}()
	}

	var scheduler *jobs.Scheduler
	if svc.Archive != nil && cfg.Archive.CronEnabled {
		scheduler = jobs.NewScheduler(log, cfg.Location(), svc.Archive, cfg.Archive.Formats...)
		if err := scheduler.Start(); err != nil {
			log.WithError(err).Fatal("start scheduler")
		}
	}

	// No write timeout: the plan stream keeps responses open.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "version": cfg.App.Version}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")

	// Open streams end with the base context.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	log.Info("stopped")
}
