package duty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kt-primus/einsatzplanung/internal/docstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/logging"
	"github.com/kt-primus/einsatzplanung/internal/planning"
	"github.com/kt-primus/einsatzplanung/internal/realtime"
)

var ErrInvalid = errors.New("invalid duty entry")

type Publisher interface {
	Publish(ctx context.Context, ev realtime.Event) error
}

// Service keeps the duty and vacation list. Writes are announced on
// realtime.DutyTopic so open lists reload.
type Service struct {
	store  docstore.DutyStore
	events Publisher
}

func NewService(store docstore.DutyStore, events Publisher) *Service {
	return &Service{store: store, events: events}
}

func (s *Service) List(ctx context.Context) ([]domain.DutyEntry, error) {
	entries, err := s.store.ListDuty(ctx)
	if err != nil {
		return nil, fmt.Errorf("list duty entries: %w", err)
	}
	return entries, nil
}

// Create stores a new entry attributed to actor.
func (s *Service) Create(ctx context.Context, actor string, e domain.DutyEntry) (*domain.DutyEntry, error) {
	if err := normalize(&e); err != nil {
		return nil, err
	}
	e.CreatedBy = actor
	created, err := s.store.CreateDuty(ctx, e)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, created.Date)
	return created, nil
}

func (s *Service) Update(ctx context.Context, actor string, e domain.DutyEntry) (*domain.DutyEntry, error) {
	if err := normalize(&e); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateDuty(ctx, e)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, updated.Date)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor, id string) error {
	if err := s.store.DeleteDuty(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, actor, "")
	return nil
}

func (s *Service) changed(ctx context.Context, actor, date string) {
	if s.events == nil {
		return
	}
	ev := realtime.Event{Kind: realtime.KindDuty, Month: realtime.DutyTopic, Date: date, Actor: actor}
	if err := s.events.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("duty event not published")
	}
}

func normalize(e *domain.DutyEntry) error {
	e.Date = strings.TrimSpace(e.Date)
	e.Employee = strings.TrimSpace(e.Employee)
	e.Notes = strings.TrimSpace(e.Notes)
	if e.Date == "" || e.Employee == "" {
		return fmt.Errorf("%w: date and employee are required", ErrInvalid)
	}
	if _, err := time.Parse(planning.DateLayout, e.Date); err != nil {
		return fmt.Errorf("%w: date %q", ErrInvalid, e.Date)
	}
	if e.Shift == "" {
		e.Shift = domain.DutyEarly
	}
	if !docstore.ValidDutyShift(e.Shift) {
		return fmt.Errorf("%w: shift %q", ErrInvalid, e.Shift)
	}
	return nil
}
