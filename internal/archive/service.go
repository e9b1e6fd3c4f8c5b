package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kt-primus/einsatzplanung/internal/export"
	"github.com/kt-primus/einsatzplanung/internal/ids"
	"github.com/kt-primus/einsatzplanung/internal/logging"
	"github.com/kt-primus/einsatzplanung/internal/planning"
)

// SystemActor is recorded as creator of scheduled archive runs.
const SystemActor = "system"

var archived = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "primus",
	Subsystem: "archive",
	Name:      "exports_total",
	Help:      "Archived month exports by format and result.",
}, []string{"format", "result"})

type MonthLoader interface {
	Month(ctx context.Context, year, month int) (*planning.View, error)
}

type Store interface {
	Save(ctx context.Context, rec Record) error
	List(ctx context.Context, year, limit int) ([]Record, error)
	Get(ctx context.Context, id string) (*Record, error)
}

// Service renders month snapshots and keeps them as archive entries.
type Service struct {
	plans     MonthLoader
	renderers *export.Registry
	store     Store
	now       func() time.Time
}

func NewService(plans MonthLoader, renderers *export.Registry, store Store) *Service {
	return &Service{plans: plans, renderers: renderers, store: store, now: time.Now}
}

// Archive renders the month as it currently stands and stores the result.
func (s *Service) Archive(ctx context.Context, actor string, year, month int, format string) (*Record, error) {
	renderer, err := s.renderers.Get(format)
	if err != nil {
		return nil, err
	}
	v, err := s.plans.Month(ctx, year, month)
	if err != nil {
		return nil, err
	}
	art, err := renderer.Render(ctx, v)
	if err != nil {
		archived.WithLabelValues(renderer.Format(), "failed").Inc()
		return nil, fmt.Errorf("render %s: %w", renderer.Format(), err)
	}

	at := s.now().UTC()
	rec := Record{
		ID:          ids.NewAt(at),
		Year:        year,
		Month:       month,
		Format:      renderer.Format(),
		FileName:    art.FileName,
		ContentType: art.ContentType,
		Size:        len(art.Data),
		CreatedBy:   actor,
		CreatedAt:   at,
		Data:        art.Data,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		archived.WithLabelValues(rec.Format, "failed").Inc()
		return nil, err
	}
	archived.WithLabelValues(rec.Format, "ok").Inc()

	logging.FromContext(ctx).
		WithField("id", rec.ID).
		WithField("month", planning.MonthKey(year, month)).
		WithField("format", rec.Format).
		WithField("bytes", rec.Size).
		Info("plan archived")

	rec.Data = nil
	return &rec, nil
}

// ArchivePrevious archives the month before now in every given format.
// All formats are attempted; the first error is returned.
func (s *Service) ArchivePrevious(ctx context.Context, now time.Time, formats ...string) error {
	year, month := planning.PreviousMonth(now)
	var firstErr error
	for _, f := range formats {
		if _, err := s.Archive(ctx, SystemActor, year, month, f); err != nil {
			logging.FromContext(ctx).WithError(err).WithField("format", f).Error("scheduled archive failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Service) List(ctx context.Context, year, limit int) ([]Record, error) {
	return s.store.List(ctx, year, limit)
}

func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.store.Get(ctx, id)
}
