package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/kt-primus/einsatzplanung/internal/storage/postgres"
)

type DBOptions struct {
	DSN       string
	ConnectTO time.Duration
	PingTO    time.Duration
	// Wait bounds the retries while the database comes up.
	Wait time.Duration
}

func (o *DBOptions) defaults() {
	if o.ConnectTO == 0 {
		o.ConnectTO = 5 * time.Second
	}
	if o.PingTO == 0 {
		o.PingTO = 2 * time.Second
	}
	if o.Wait == 0 {
		o.Wait = 30 * time.Second
	}
}

// OpenDB opens the pgx pool backing the plan archive.
func OpenDB(ctx context.Context, log *logrus.Logger, opt DBOptions) (*pgxpool.Pool, error) {
	if opt.DSN == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}
	opt.defaults()

	cfg, err := pgxpool.ParseConfig(opt.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	var pool *pgxpool.Pool
	err = Retry(ctx, log, "postgres", opt.Wait, func() error {
		cctx, cancel := context.WithTimeout(ctx, opt.ConnectTO)
		defer cancel()

		p, err := pgxpool.NewWithConfig(cctx, cfg)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}

		pctx, pcancel := context.WithTimeout(ctx, opt.PingTO)
		defer pcancel()
		if err := p.Ping(pctx); err != nil {
			p.Close()
			return fmt.Errorf("db ping: %w", err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// OpenSQL opens the database/sql handle used by the audit trail and the
// schema migration.
func OpenSQL(ctx context.Context, log *logrus.Logger, opt DBOptions) (*sql.DB, error) {
	if opt.DSN == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}
	opt.defaults()

	var db *sql.DB
	err := Retry(ctx, log, "postgres", opt.Wait, func() error {
		d, err := postgres.NewConnection(ctx, opt.DSN)
		if err != nil {
			return err
		}
		db = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
