package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kt-primus/einsatzplanung/internal/docstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/logging"
	"github.com/kt-primus/einsatzplanung/internal/planning"
	"github.com/kt-primus/einsatzplanung/internal/realtime"
)

var ErrInvalid = errors.New("invalid catalog entry")

type Store interface {
	docstore.ShiftTypeStore
	docstore.VehicleStore
}

type Publisher interface {
	Publish(ctx context.Context, ev realtime.Event) error
}

// Service manages the shift-type and vehicle catalogs. Every change is
// announced so open planning grids re-render.
type Service struct {
	store  Store
	events Publisher
}

func NewService(store Store, events Publisher) *Service {
	return &Service{store: store, events: events}
}

func (s *Service) ShiftTypes(ctx context.Context) ([]domain.ShiftType, error) {
	types, err := s.store.ListShiftTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shift types: %w", err)
	}
	planning.SortShiftTypes(types)
	return types, nil
}

func (s *Service) CreateShiftType(ctx context.Context, actor string, st domain.ShiftType) (*domain.ShiftType, error) {
	if err := normalizeShiftType(&st); err != nil {
		return nil, err
	}
	created, err := s.store.CreateShiftType(ctx, st)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor)
	return created, nil
}

func (s *Service) UpdateShiftType(ctx context.Context, actor string, st domain.ShiftType) (*domain.ShiftType, error) {
	if err := normalizeShiftType(&st); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateShiftType(ctx, st)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor)
	return updated, nil
}

// DeleteShiftType removes a catalog entry. Assignments referencing it keep
// their id and render with the unknown-code mark.
func (s *Service) DeleteShiftType(ctx context.Context, actor, id string) error {
	if err := s.store.DeleteShiftType(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, actor)
	return nil
}

func (s *Service) Vehicles(ctx context.Context) ([]domain.Vehicle, error) {
	vs, err := s.store.ListVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vs, nil
}

func (s *Service) CreateVehicle(ctx context.Context, actor string, v domain.Vehicle) (*domain.Vehicle, error) {
	if err := normalizeVehicle(&v); err != nil {
		return nil, err
	}
	created, err := s.store.CreateVehicle(ctx, v)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor)
	return created, nil
}

func (s *Service) UpdateVehicle(ctx context.Context, actor string, v domain.Vehicle) (*domain.Vehicle, error) {
	if err := normalizeVehicle(&v); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateVehicle(ctx, v)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor)
	return updated, nil
}

func (s *Service) DeleteVehicle(ctx context.Context, actor, id string) error {
	if err := s.store.DeleteVehicle(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, actor)
	return nil
}

func (s *Service) changed(ctx context.Context, actor string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, realtime.Event{Kind: realtime.KindCatalog, Actor: actor}); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("catalog event not published")
	}
}

func normalizeShiftType(st *domain.ShiftType) error {
	st.Code = strings.TrimSpace(st.Code)
	st.Name = strings.TrimSpace(st.Name)
	st.Color = strings.ToLower(strings.TrimSpace(st.Color))
	if st.Code == "" || st.Name == "" {
		return fmt.Errorf("%w: code and name are required", ErrInvalid)
	}
	if (st.StartTime == "") != (st.EndTime == "") {
		return fmt.Errorf("%w: start and end time go together", ErrInvalid)
	}
	for _, d := range st.ActiveWeekdays {
		if !docstore.ValidWeekday(d) {
			return fmt.Errorf("%w: weekday %q", ErrInvalid, d)
		}
	}
	if st.HoursValue != nil && *st.HoursValue < 0 {
		return fmt.Errorf("%w: negative hours", ErrInvalid)
	}
	return nil
}

func normalizeVehicle(v *domain.Vehicle) error {
	v.Name = strings.TrimSpace(v.Name)
	v.Plate = strings.ToUpper(strings.TrimSpace(v.Plate))
	if v.Name == "" || v.Plate == "" {
		return fmt.Errorf("%w: name and plate are required", ErrInvalid)
	}
	return nil
}
