package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kt-primus/einsatzplanung/internal/docstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
)

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore() *Store {
	clk := &fixedClock{t: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	return New().WithClock(clk.Now)
}

func TestUpsertAssignment_CreateThenUpdateKeepsID(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	saved, prev, err := s.UpsertAssignment(ctx, docstore.AssignmentWrite{
		UID: "u1", Date: "2025-03-04", ShiftTypeID: "early", Source: domain.SourceManual,
	})
	require.NoError(t, err)
	assert.Nil(t, prev)
	assert.Equal(t, "u1_2025-03-04", saved.ID)

	updated, prev, err := s.UpsertAssignment(ctx, docstore.AssignmentWrite{
		UID: "u1", Date: "2025-03-04", ShiftTypeID: "late", Source: domain.SourceManual,
	})
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "early", prev.ShiftTypeID)
	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, saved.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "late", updated.ShiftTypeID)

	all, err := s.ListAssignments(ctx, "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertAssignment_ConcurrentWritersLeaveOneDocument(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.UpsertAssignment(ctx, docstore.AssignmentWrite{
				UID: "u1", Date: "2025-03-04", ShiftTypeID: "mid", Source: domain.SourceManual,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := s.ListAssignments(ctx, "2025-03-04", "2025-03-04")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertAssignment_UpdatesLatestLegacyDocument(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	s.PutAssignment(domain.Assignment{ID: "old", UID: "u1", Date: "2025-03-04", ShiftTypeID: "early", UpdatedAt: base})
	s.PutAssignment(domain.Assignment{ID: "new", UID: "u1", Date: "2025-03-04", ShiftTypeID: "mid", UpdatedAt: base.Add(time.Hour)})

	saved, prev, err := s.UpsertAssignment(ctx, docstore.AssignmentWrite{
		UID: "u1", Date: "2025-03-04", ShiftTypeID: "late", Source: domain.SourceManual,
	})
	require.NoError(t, err)
	assert.Equal(t, "new", saved.ID)
	assert.Equal(t, "mid", prev.ShiftTypeID)

	removed, err := s.ClearAssignment(ctx, "u1", "2025-03-04")
	require.NoError(t, err)
	assert.Len(t, removed, 2)
}

func TestClearAssignment_EmptyCellIsNoop(t *testing.T) {
	s := newStore()
	var changes int
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Watch(ctx, func(docstore.Change) { changes++ })
		close(done)
	}()

	removed, err := s.ClearAssignment(context.Background(), "u1", "2025-03-04")
	require.NoError(t, err)
	assert.Empty(t, removed)

	cancel()
	<-done
	assert.Zero(t, changes)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	s.PutUser(domain.User{UID: "b", DisplayName: "Zoe", Email: "z@example.org", IsActive: true})
	s.PutUser(domain.User{UID: "a", DisplayName: "anna", Email: "a@example.org", IsActive: true})
	s.PutUser(domain.User{UID: "c", DisplayName: "Carl", Email: "a@example.org", IsActive: false})

	active, err := s.ListUsers(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "a", active[0].UID)

	u, err := s.FindUserByEmail(ctx, "a@example.org")
	require.NoError(t, err)
	assert.Equal(t, "a", u.UID)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	role := domain.RoleDisp
	updated, err := s.UpdateUser(ctx, "c", docstore.UserUpdate{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDisp, updated.Role)
	assert.True(t, updated.RoleKnown)
}

func TestCatalogCRUD(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	st, err := s.CreateShiftType(ctx, domain.ShiftType{ID: "early", Code: "F", Name: "Früh"})
	require.NoError(t, err)
	_, err = s.CreateShiftType(ctx, *st)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = s.UpdateShiftType(ctx, domain.ShiftType{ID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, s.DeleteShiftType(ctx, "early"))
	assert.ErrorIs(t, s.DeleteShiftType(ctx, "early"), domain.ErrNotFound)

	v, err := s.CreateVehicle(ctx, domain.Vehicle{Name: "RTW", Plate: "M-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	got, err := s.GetVehicle(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, *v, *got)
}

func TestDutyCRUD(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	late, err := s.CreateDuty(ctx, domain.DutyEntry{Date: "2025-03-10", Employee: "Bernd", Shift: domain.DutyLate, CreatedBy: "u-dora"})
	require.NoError(t, err)
	require.NotEmpty(t, late.ID)
	assert.False(t, late.CreatedAt.IsZero())

	_, err = s.CreateDuty(ctx, domain.DutyEntry{Date: "2025-03-02", Employee: "Anna", Shift: domain.DutyEarly})
	require.NoError(t, err)

	list, err := s.ListDuty(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2025-03-02", list[0].Date)
	assert.Equal(t, "2025-03-10", list[1].Date)

	updated, err := s.UpdateDuty(ctx, domain.DutyEntry{ID: late.ID, Date: "2025-03-11", Employee: "Bernd", Shift: domain.DutyNight, CreatedBy: "someone-else"})
	require.NoError(t, err)
	assert.Equal(t, late.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "u-dora", updated.CreatedBy)
	assert.Equal(t, domain.DutyNight, updated.Shift)

	_, err = s.UpdateDuty(ctx, domain.DutyEntry{ID: "missing", Date: "2025-03-11", Employee: "X", Shift: domain.DutyEarly})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.DeleteDuty(ctx, late.ID))
	assert.ErrorIs(t, s.DeleteDuty(ctx, late.ID), domain.ErrNotFound)

	list, err = s.ListDuty(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
