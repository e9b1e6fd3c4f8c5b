package http

import (
	"context"
	"time"

	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/realtime"
)

type DutyService interface {
	List(ctx context.Context) ([]domain.DutyEntry, error)
	Create(ctx context.Context, actor string, e domain.DutyEntry) (*domain.DutyEntry, error)
	Update(ctx context.Context, actor string, e domain.DutyEntry) (*domain.DutyEntry, error)
	Delete(ctx context.Context, actor, id string) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan realtime.Event, func(), error)
}

type Handler struct {
	duty      DutyService
	events    Subscriber
	keepAlive time.Duration
}

func New(duty DutyService, events Subscriber) *Handler {
	return &Handler{duty: duty, events: events, keepAlive: 15 * time.Second}
}

type entryRequest struct {
	Date     string `json:"date" binding:"required,datetime=2006-01-02"`
	Employee string `json:"employee" binding:"required,max=128"`
	Shift    string `json:"shift" binding:"omitempty,oneof=Früh Spät Nacht"`
	Notes    string `json:"notes" binding:"max=500"`
}

func (r entryRequest) toDomain(id string) domain.DutyEntry {
	return domain.DutyEntry{ID: id, Date: r.Date, Employee: r.Employee, Shift: r.Shift, Notes: r.Notes}
}
