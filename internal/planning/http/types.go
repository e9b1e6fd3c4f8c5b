package http

import (
	"context"
	"time"

	"github.com/kt-primus/einsatzplanung/internal/audit"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/export"
	"github.com/kt-primus/einsatzplanung/internal/planning"
	"github.com/kt-primus/einsatzplanung/internal/realtime"
)

type PlanService interface {
	Month(ctx context.Context, year, month int) (*planning.View, error)
	Picker(ctx context.Context, ed planning.Editor, year, month int, uid, date string, anchor planning.Anchor) (*planning.Picker, error)
	Assign(ctx context.Context, ed planning.Editor, req planning.AssignRequest) (*domain.Assignment, error)
	Clear(ctx context.Context, ed planning.Editor, year, month int, uid, date string) (int, error)
}

type Subscriber interface {
	Subscribe(ctx context.Context, month string) (<-chan realtime.Event, func(), error)
}

type AuditLister interface {
	ListRange(ctx context.Context, from, to string, limit int) ([]audit.Entry, error)
}

type Handler struct {
	plans     PlanService
	events    Subscriber
	renderers *export.Registry
	audit     AuditLister
	keepAlive time.Duration
}

// New wires the plan endpoints. auditLog may be nil when no database is
// configured; the audit endpoint then answers 503.
func New(plans PlanService, events Subscriber, renderers *export.Registry, auditLog AuditLister) *Handler {
	return &Handler{
		plans:     plans,
		events:    events,
		renderers: renderers,
		audit:     auditLog,
		keepAlive: 15 * time.Second,
	}
}

type assignRequest struct {
	ShiftTypeID string `json:"shiftTypeId" binding:"required"`
	VehicleID   string `json:"vehicleId"`
}
