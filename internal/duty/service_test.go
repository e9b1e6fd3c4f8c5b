package duty

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

func TestDutyLifecycle(t *testing.T) {
	ctx := context.Background()
	events := &recordingEvents{}
	svc := NewService(memstore.New(), events)

	e, err := svc.Create(ctx, "u-dora", domain.DutyEntry{Date: "2025-03-12", Employee: " Anna Berger ", Notes: " Urlaub "})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "Anna Berger", e.Employee)
	assert.Equal(t, domain.DutyEarly, e.Shift)
	assert.Equal(t, "Urlaub", e.Notes)
	assert.Equal(t, "u-dora", e.CreatedBy)

	_, err = svc.Create(ctx, "u-dora", domain.DutyEntry{Date: "2025-03-01", Employee: "Bernd", Shift: domain.DutyNight})
	require.NoError(t, err)

	e.Shift = domain.DutyLate
	updated, err := svc.Update(ctx, "u-admin", *e)
	require.NoError(t, err)
	assert.Equal(t, domain.DutyLate, updated.Shift)
	assert.Equal(t, "u-dora", updated.CreatedBy)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bernd", list[0].Employee)

	require.NoError(t, svc.Delete(ctx, "u-admin", e.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "u-admin", e.ID), domain.ErrNotFound)

	require.Len(t, events.events, 4)
	for _, ev := range events.events {
		assert.Equal(t, realtime.KindDuty, ev.Kind)
		assert.Equal(t, realtime.DutyTopic, ev.Month)
	}
	assert.Equal(t, "u-admin", events.events[3].Actor)
}

func TestDutyValidation(t *testing.T) {
	svc := NewService(memstore.New(), nil)
	ctx := context.Background()

	cases := map[string]domain.DutyEntry{
		"missing date":     {Employee: "Anna"},
		"missing employee": {Date: "2025-03-01", Employee: "  "},
		"bad date":         {Date: "01.03.2025", Employee: "Anna"},
		"no such day":      {Date: "2025-02-30", Employee: "Anna"},
		"unknown shift":    {Date: "2025-03-01", Employee: "Anna", Shift: "Mittel"},
	}
	for name, e := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, "u", e)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := svc.Update(ctx, "u", domain.DutyEntry{ID: "missing", Date: "2025-03-01", Employee: "Anna"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
