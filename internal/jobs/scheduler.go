package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/kt-primus/einsatzplanung/internal/logging"
)

// MonthlyArchiveSpec fires on the 1st of every month at 02:00.
const MonthlyArchiveSpec = "0 0 2 1 * *"

// Archiver archives the month preceding now.
type Archiver interface {
	ArchivePrevious(ctx context.Context, now time.Time, formats ...string) error
}

type Scheduler struct {
	cron     *cron.Cron
	log      *logrus.Logger
	loc      *time.Location
	archiver Archiver
	formats  []string
	timeout  time.Duration
}

func NewScheduler(log *logrus.Logger, loc *time.Location, archiver Archiver, formats ...string) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if len(formats) == 0 {
		formats = []string{"pdf"}
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		log:      log,
		loc:      loc,
		archiver: archiver,
		formats:  formats,
		timeout:  5 * time.Minute,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(MonthlyArchiveSpec, s.RunMonthlyArchive); err != nil {
		return err
	}
	s.cron.Start()
	s.log.WithField("spec", MonthlyArchiveSpec).Info("cron scheduler started (monthly archive)")
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("cron jobs still running at shutdown")
	}
}

// Next reports when the monthly archive fires after t.
func (s *Scheduler) Next(t time.Time) (time.Time, error) {
	sched, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(MonthlyArchiveSpec)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(t.In(s.loc)), nil
}

func (s *Scheduler) RunMonthlyArchive() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	entry := s.log.WithField("job", "monthly_archive")
	ctx = logging.WithLogger(ctx, entry)

	start := time.Now()
	entry.Info("monthly archive started")
	if err := s.archiver.ArchivePrevious(ctx, start.In(s.loc), s.formats...); err != nil {
		entry.WithError(err).Error("monthly archive failed")
		return
	}
	entry.WithField("took", time.Since(start).String()).Info("monthly archive completed")
}
