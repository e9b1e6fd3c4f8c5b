package planning

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kt-primus/einsatzplanung/internal/audit"
	"github.com/kt-primus/einsatzplanung/internal/docstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/logging"
	"github.com/kt-primus/einsatzplanung/internal/realtime"
)

var mutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "primus",
	Subsystem: "planning",
	Name:      "mutations_total",
	Help:      "Grid cell edits by action and result.",
}, []string{"action", "result"})

// Store is the part of the document store the grid works on.
type Store interface {
	GetUser(ctx context.Context, uid string) (*domain.User, error)
	ListUsers(ctx context.Context, activeOnly bool) ([]domain.User, error)
	ListShiftTypes(ctx context.Context) ([]domain.ShiftType, error)
	GetShiftType(ctx context.Context, id string) (*domain.ShiftType, error)
	CreateShiftType(ctx context.Context, st domain.ShiftType) (*domain.ShiftType, error)
	GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error)
	docstore.AssignmentStore
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

type Publisher interface {
	Publish(ctx context.Context, ev realtime.Event) error
}

// Editor is whoever triggers a cell edit.
type Editor struct {
	UID  string
	Role domain.Role
}

// Service loads month views and applies the cell edit protocol.
type Service struct {
	store  Store
	events Publisher
	audit  AuditRecorder
}

// NewService accepts nil events and audit; those side effects are then
// skipped.
func NewService(store Store, events Publisher, auditLog AuditRecorder) *Service {
	return &Service{store: store, events: events, audit: auditLog}
}

// Month renders the grid for one month. An empty shift-type catalog is
// seeded with the defaults first.
func (s *Service) Month(ctx context.Context, year, month int) (*View, error) {
	if err := ValidateMonth(year, month); err != nil {
		return nil, err
	}

	types, err := s.EnsureCatalog(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := s.store.ListUsers(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	from, to := MonthRange(year, month)
	assignments, err := s.store.ListAssignments(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list assignments %s..%s: %w", from, to, err)
	}

	return Build(year, month, employees, types, assignments)
}

// EnsureCatalog returns the shift types, creating the six defaults when the
// catalog is empty. Entries created concurrently by another instance are
// accepted as they are.
func (s *Service) EnsureCatalog(ctx context.Context) ([]domain.ShiftType, error) {
	types, err := s.store.ListShiftTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shift types: %w", err)
	}
	if len(types) > 0 {
		SortShiftTypes(types)
		return types, nil
	}

	logging.FromContext(ctx).Info("shift type catalog empty, seeding defaults")
	for _, st := range DefaultShiftTypes() {
		if _, err := s.store.CreateShiftType(ctx, st); err != nil && !errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("seed shift type %q: %w", st.ID, err)
		}
	}
	s.publish(ctx, realtime.Event{Kind: realtime.KindCatalog})

	types, err = s.store.ListShiftTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shift types: %w", err)
	}
	SortShiftTypes(types)
	return types, nil
}

// PickerOption is one entry of the cell picker.
type PickerOption struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Anchor struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Picker is what the client needs to open the transient shift picker at a
// cell: every shift type plus an explicit clear action.
type Picker struct {
	UID     string         `json:"uid"`
	Date    string         `json:"date"`
	Current string         `json:"current,omitempty"`
	Anchor  Anchor         `json:"anchor"`
	Options []PickerOption `json:"options"`
	Clear   bool           `json:"clear"`
}

func (s *Service) Picker(ctx context.Context, ed Editor, year, month int, uid, date string, anchor Anchor) (*Picker, error) {
	if err := s.checkEdit(ed, year, month, date); err != nil {
		return nil, err
	}

	types, err := s.EnsureCatalog(ctx)
	if err != nil {
		return nil, err
	}
	p := &Picker{UID: uid, Date: date, Anchor: anchor, Clear: true, Options: make([]PickerOption, 0, len(types))}
	for _, st := range types {
		p.Options = append(p.Options, PickerOption{ID: st.ID, Code: st.Code, Name: st.Name, Color: st.Color})
	}

	from, to := MonthRange(year, month)
	assignments, err := s.store.ListAssignments(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list assignments %s..%s: %w", from, to, err)
	}
	if a, ok := BuildIndex(assignments).Lookup(uid, date); ok {
		p.Current = a.ShiftTypeID
	}
	return p, nil
}

// AssignRequest selects a shift type for one cell.
type AssignRequest struct {
	Year        int
	Month       int
	UID         string
	Date        string
	ShiftTypeID string
	VehicleID   string
}

// Assign creates or updates the cell's assignment with source manual. The
// store upsert is atomic per cell, so the id of an existing assignment stays
// stable and repeated selections never add documents.
func (s *Service) Assign(ctx context.Context, ed Editor, req AssignRequest) (*domain.Assignment, error) {
	if err := s.checkEdit(ed, req.Year, req.Month, req.Date); err != nil {
		mutations.WithLabelValues(audit.ActionAssign, "rejected").Inc()
		return nil, err
	}
	if err := s.checkReferences(ctx, req); err != nil {
		mutations.WithLabelValues(audit.ActionAssign, "rejected").Inc()
		return nil, err
	}

	saved, prev, err := s.store.UpsertAssignment(ctx, docstore.AssignmentWrite{
		UID:         req.UID,
		Date:        req.Date,
		ShiftTypeID: req.ShiftTypeID,
		VehicleID:   req.VehicleID,
		Source:      domain.SourceManual,
	})
	if err != nil {
		mutations.WithLabelValues(audit.ActionAssign, "failed").Inc()
		return nil, err
	}
	mutations.WithLabelValues(audit.ActionAssign, "ok").Inc()

	entry := audit.Entry{Actor: ed.UID, Action: audit.ActionAssign, UID: req.UID, Date: req.Date, ShiftTypeID: saved.ShiftTypeID}
	if prev != nil {
		entry.PreviousShiftTypeID = prev.ShiftTypeID
	}
	s.afterWrite(ctx, ed, entry)
	return saved, nil
}

// Clear removes the cell's assignment. A cell without one is left alone and
// reports zero removed documents.
func (s *Service) Clear(ctx context.Context, ed Editor, year, month int, uid, date string) (int, error) {
	if err := s.checkEdit(ed, year, month, date); err != nil {
		mutations.WithLabelValues(audit.ActionClear, "rejected").Inc()
		return 0, err
	}

	removed, err := s.store.ClearAssignment(ctx, uid, date)
	if err != nil {
		mutations.WithLabelValues(audit.ActionClear, "failed").Inc()
		return 0, err
	}
	if len(removed) == 0 {
		mutations.WithLabelValues(audit.ActionClear, "noop").Inc()
		return 0, nil
	}
	mutations.WithLabelValues(audit.ActionClear, "ok").Inc()

	latest := BuildIndex(removed)[domain.CellKey{UID: uid, Date: date}]
	s.afterWrite(ctx, ed, audit.Entry{
		Actor:               ed.UID,
		Action:              audit.ActionClear,
		UID:                 uid,
		Date:                date,
		PreviousShiftTypeID: latest.ShiftTypeID,
	})
	return len(removed), nil
}

func (s *Service) checkEdit(ed Editor, year, month int, date string) error {
	if !ed.Role.CanWrite() {
		return ErrReadOnly
	}
	if err := ValidateMonth(year, month); err != nil {
		return err
	}
	if !InMonth(date, year, month) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

func (s *Service) checkReferences(ctx context.Context, req AssignRequest) error {
	if req.ShiftTypeID == "" {
		return ErrUnknownShiftType
	}
	if _, err := s.store.GetShiftType(ctx, req.ShiftTypeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %q", ErrUnknownShiftType, req.ShiftTypeID)
		}
		return fmt.Errorf("get shift type: %w", err)
	}

	u, err := s.store.GetUser(ctx, req.UID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %q", ErrUnknownEmployee, req.UID)
		}
		return fmt.Errorf("get employee: %w", err)
	}
	if !u.IsActive {
		return fmt.Errorf("%w: %q", ErrUnknownEmployee, req.UID)
	}

	if req.VehicleID != "" {
		if _, err := s.store.GetVehicle(ctx, req.VehicleID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: %q", ErrUnknownVehicle, req.VehicleID)
			}
			return fmt.Errorf("get vehicle: %w", err)
		}
	}
	return nil
}

// afterWrite announces the change and appends the audit entry. Neither can
// fail the edit.
func (s *Service) afterWrite(ctx context.Context, ed Editor, entry audit.Entry) {
	s.publish(ctx, realtime.Event{
		Kind:  realtime.KindAssignment,
		Month: realtime.MonthOf(entry.Date),
		UID:   entry.UID,
		Date:  entry.Date,
		Actor: ed.UID,
	})

	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		logging.FromContext(ctx).WithError(err).
			WithField("uid", entry.UID).
			WithField("date", entry.Date).
			Warn("audit entry not written")
	}
}

func (s *Service) publish(ctx context.Context, ev realtime.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("kind", ev.Kind).Warn("change event not published")
	}
}
