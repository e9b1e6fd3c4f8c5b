package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kt-primus/einsatzplanung/config"
	"github.com/kt-primus/einsatzplanung/internal/archive"
	"github.com/kt-primus/einsatzplanung/internal/bootstrap"
	"github.com/kt-primus/einsatzplanung/internal/logging"
	"github.com/kt-primus/einsatzplanung/internal/storage/postgres"
)

const usage = "usage: worker archive [year month] | worker seed-catalog"

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal(usage)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		logrus.WithError(err).Fatal(os.Args[1] + " failed")
	}
}

func run(command string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logging.New(cfg.App.Environment, cfg.App.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logging.WithLogger(ctx, log.WithField("command", command))

	infra, err := bootstrap.OpenInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()
	svc := bootstrap.NewServices(cfg, infra, log)

	switch command {
	case "archive":
		return runArchive(ctx, cfg, infra, svc, args)
	case "seed-catalog":
		return runSeedCatalog(ctx, svc)
	default:
		return fmt.Errorf("unknown command %q; %s", command, usage)
	}
}

// runArchive stores the export of the given month, or of the previous
// month when none is given, in every configured format.
func runArchive(ctx context.Context, cfg *config.Config, infra *bootstrap.Infra, svc *bootstrap.Services, args []string) error {
	if svc.Archive == nil {
		return errors.New("archive needs DB_DSN")
	}
	if err := postgres.EnsureSchema(ctx, infra.SQL); err != nil {
		return err
	}

	if len(args) == 0 {
		return svc.Archive.ArchivePrevious(ctx, time.Now().In(cfg.Location()), cfg.Archive.Formats...)
	}
	if len(args) != 2 {
		return errors.New(usage)
	}
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("year %q: %w", args[0], err)
	}
	month, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("month %q: %w", args[1], err)
	}

	log := logging.FromContext(ctx)
	for _, format := range cfg.Archive.Formats {
		rec, err := svc.Archive.Archive(ctx, archive.SystemActor, year, month, format)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"id": rec.ID, "file": rec.FileName, "size": rec.Size}).Info("archived")
	}
	return nil
}

func runSeedCatalog(ctx context.Context, svc *bootstrap.Services) error {
	types, err := svc.Plans.EnsureCatalog(ctx)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).WithField("shift_types", len(types)).Info("catalog ready")
	return nil
}
