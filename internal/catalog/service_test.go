package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kt-primus/einsatzplanung/internal/docstore/memstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/realtime"
)

type recordingEvents struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recordingEvents) Publish(_ context.Context, ev realtime.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func TestShiftTypeLifecycle(t *testing.T) {
	ctx := context.Background()
	events := &recordingEvents{}
	svc := NewService(memstore.New(), events)

	st, err := svc.CreateShiftType(ctx, "admin-1", domain.ShiftType{
		ID: "night", Code: " N ", Name: "Nacht", Color: "#1E293B",
		StartTime: "22:00", EndTime: "06:00", ActiveWeekdays: []string{"Mo", "Fr"},
	})
	require.NoError(t, err)
	assert.Equal(t, "N", st.Code)
	assert.Equal(t, "#1e293b", st.Color)

	_, err = svc.CreateShiftType(ctx, "admin-1", domain.ShiftType{ID: "night", Code: "N", Name: "Nacht"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	st.Name = "Nachtdienst"
	updated, err := svc.UpdateShiftType(ctx, "admin-1", *st)
	require.NoError(t, err)
	assert.Equal(t, "Nachtdienst", updated.Name)

	require.NoError(t, svc.DeleteShiftType(ctx, "admin-1", "night"))
	assert.ErrorIs(t, svc.DeleteShiftType(ctx, "admin-1", "night"), domain.ErrNotFound)

	types, err := svc.ShiftTypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, types)

	require.Len(t, events.events, 3)
	for _, ev := range events.events {
		assert.Equal(t, realtime.KindCatalog, ev.Kind)
		assert.Equal(t, "admin-1", ev.Actor)
	}
}

func TestShiftTypeValidation(t *testing.T) {
	svc := NewService(memstore.New(), nil)
	ctx := context.Background()

	cases := map[string]domain.ShiftType{
		"missing code":   {Name: "Nacht"},
		"missing name":   {Code: "N"},
		"half a time":    {Code: "N", Name: "Nacht", StartTime: "22:00"},
		"bad weekday":    {Code: "N", Name: "Nacht", ActiveWeekdays: []string{"Mon"}},
		"negative hours": {Code: "N", Name: "Nacht", HoursValue: ptr(-1.0)},
	}
	for name, st := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateShiftType(ctx, "a", st)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestVehicleLifecycle(t *testing.T) {
	ctx := context.Background()
	events := &recordingEvents{}
	svc := NewService(memstore.New(), events)

	v, err := svc.CreateVehicle(ctx, "admin-1", domain.Vehicle{Name: "RTW 1", Plate: "hb-rk 112"})
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "HB-RK 112", v.Plate)

	_, err = svc.CreateVehicle(ctx, "admin-1", domain.Vehicle{Name: "RTW 2"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.UpdateVehicle(ctx, "admin-1", domain.Vehicle{ID: "missing", Name: "x", Plate: "y"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	vs, err := svc.Vehicles(ctx)
	require.NoError(t, err)
	assert.Len(t, vs, 1)

	require.NoError(t, svc.DeleteVehicle(ctx, "admin-1", v.ID))
	assert.Len(t, events.events, 2)
}

func ptr[T any](v T) *T { return &v }
