package planning

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kt-primus/einsatzplanung/internal/audit"
	"github.com/kt-primus/einsatzplanung/internal/docstore"
	"github.com/kt-primus/einsatzplanung/internal/docstore/memstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/realtime"
)

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
	err     error
}

func (r *recordingAudit) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return r.err
}

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

func (r *recordingEvents) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

// countingStore counts writes reaching the store.
type countingStore struct {
	*memstore.Store
	mu     sync.Mutex
	writes int
}

func (c *countingStore) UpsertAssignment(ctx context.Context, w docstore.AssignmentWrite) (*domain.Assignment, *domain.Assignment, error) {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.Store.UpsertAssignment(ctx, w)
}

func (c *countingStore) ClearAssignment(ctx context.Context, uid, date string) ([]domain.Assignment, error) {
	removed, err := c.Store.ClearAssignment(ctx, uid, date)
	if len(removed) > 0 {
		c.mu.Lock()
		c.writes++
		c.mu.Unlock()
	}
	return removed, err
}

type fixture struct {
	store  *countingStore
	svc    *Service
	audit  *recordingAudit
	events *recordingEvents
}

var (
	admin    = Editor{UID: "admin1", Role: domain.RoleAdmin}
	disp     = Editor{UID: "disp1", Role: domain.RoleDisp}
	personal = Editor{UID: "u-anna", Role: domain.RolePersonal}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memstore.New()
	for _, u := range employees() {
		mem.PutUser(u)
	}
	f := &fixture{
		store:  &countingStore{Store: mem},
		audit:  &recordingAudit{},
		events: &recordingEvents{},
	}
	f.svc = NewService(f.store, f.events, f.audit)
	return f
}

func (f *fixture) cellDocs(t *testing.T, uid, date string) []domain.Assignment {
	t.Helper()
	all, err := f.store.ListAssignments(context.Background(), date, date)
	require.NoError(t, err)
	var out []domain.Assignment
	for _, a := range all {
		if a.UID == uid {
			out = append(out, a)
		}
	}
	return out
}

func TestMonth_SeedsEmptyCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.Month(ctx, 2025, 3)
	require.NoError(t, err)

	types, err := f.store.ListShiftTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 6)

	var ids []string
	for _, st := range v.ShiftTypes {
		ids = append(ids, st.ID)
	}
	assert.Equal(t, []string{"early", "mid", "late", "WF", "U", "—"}, ids)
	assert.Contains(t, f.events.kinds(), realtime.KindCatalog)

	_, err = f.svc.Month(ctx, 2025, 4)
	require.NoError(t, err)
	types, err = f.store.ListShiftTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 6, "seeding happens only once")
}

func TestMonth_KeepsExistingCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.CreateShiftType(ctx, domain.ShiftType{ID: "night", Code: "N", Name: "Nacht", Color: "#000000"})
	require.NoError(t, err)

	v, err := f.svc.Month(ctx, 2025, 3)
	require.NoError(t, err)
	require.Len(t, v.ShiftTypes, 1)
	assert.Equal(t, "night", v.ShiftTypes[0].ID)
}

func TestMonth_InvalidMonth(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Month(context.Background(), 2025, 13)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestAssign_CreateThenUpdateKeepsID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.EnsureCatalog(ctx)
	require.NoError(t, err)

	created, err := f.svc.Assign(ctx, disp, AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-04", ShiftTypeID: ShiftEarly})
	require.NoError(t, err)
	assert.Equal(t, "u-anna_2025-03-04", created.ID)
	assert.Equal(t, domain.SourceManual, created.Source)
	assert.False(t, created.CreatedAt.IsZero())

	docs := f.cellDocs(t, "u-anna", "2025-03-04")
	require.Len(t, docs, 1)
	assert.Equal(t, ShiftEarly, docs[0].ShiftTypeID)

	updated, err := f.svc.Assign(ctx, disp, AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-04", ShiftTypeID: ShiftLate})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.UID, updated.UID)
	assert.Equal(t, created.Date, updated.Date)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, ShiftLate, updated.ShiftTypeID)

	require.Len(t, f.audit.entries, 2)
	assert.Equal(t, ShiftEarly, f.audit.entries[1].PreviousShiftTypeID)
	assert.Equal(t, "disp1", f.audit.entries[1].Actor)
}

func TestAssign_SameSelectionTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.EnsureCatalog(ctx)
	require.NoError(t, err)

	req := AssignRequest{Year: 2025, Month: 3, UID: "u-bernd", Date: "2025-03-10", ShiftTypeID: ShiftMid}
	_, err = f.svc.Assign(ctx, admin, req)
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, admin, req)
	require.NoError(t, err)

	docs := f.cellDocs(t, "u-bernd", "2025-03-10")
	require.Len(t, docs, 1)
	assert.Equal(t, ShiftMid, docs[0].ShiftTypeID)
}

func TestAssign_UpdatesLegacyDocumentInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.EnsureCatalog(ctx)
	require.NoError(t, err)
	f.store.PutAssignment(domain.Assignment{ID: "legacy-xyz", UID: "u-anna", Date: "2025-03-07", ShiftTypeID: ShiftEarly, Source: domain.SourceAuto})

	saved, err := f.svc.Assign(ctx, admin, AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-07", ShiftTypeID: ShiftLate})
	require.NoError(t, err)
	assert.Equal(t, "legacy-xyz", saved.ID)
	assert.Equal(t, domain.SourceManual, saved.Source)
	assert.Len(t, f.cellDocs(t, "u-anna", "2025-03-07"), 1)
}

func TestAssign_ConcurrentEditorsYieldOneDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.EnsureCatalog(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i, st := range []string{ShiftEarly, ShiftLate, ShiftMid, ShiftEarly} {
		wg.Add(1)
		go func(i int, st string) {
			defer wg.Done()
			ed := Editor{UID: "editor", Role: domain.RoleDisp}
			_, err := f.svc.Assign(ctx, ed, AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-12", ShiftTypeID: st})
			assert.NoError(t, err, "editor %d", i)
		}(i, st)
	}
	wg.Wait()

	assert.Len(t, f.cellDocs(t, "u-anna", "2025-03-12"), 1)
}

func TestAssign_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.EnsureCatalog(ctx)
	require.NoError(t, err)
	_, err = f.store.CreateVehicle(ctx, domain.Vehicle{ID: "rtw1", Name: "RTW 1", Plate: "KT-RK 101"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  AssignRequest
		want error
	}{
		{"date outside month", AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-04-01", ShiftTypeID: ShiftEarly}, ErrInvalidDate},
		{"malformed date", AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "03/04/2025", ShiftTypeID: ShiftEarly}, ErrInvalidDate},
		{"unknown shift type", AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-04", ShiftTypeID: "night"}, ErrUnknownShiftType},
		{"missing shift type", AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-04"}, ErrUnknownShiftType},
		{"unknown employee", AssignRequest{Year: 2025, Month: 3, UID: "ghost", Date: "2025-03-04", ShiftTypeID: ShiftEarly}, ErrUnknownEmployee},
		{"inactive employee", AssignRequest{Year: 2025, Month: 3, UID: "u-old", Date: "2025-03-04", ShiftTypeID: ShiftEarly}, ErrUnknownEmployee},
		{"unknown vehicle", AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-04", ShiftTypeID: ShiftEarly, VehicleID: "nef9"}, ErrUnknownVehicle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Assign(ctx, admin, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, f.store.writes)

	saved, err := f.svc.Assign(ctx, admin, AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-04", ShiftTypeID: ShiftEarly, VehicleID: "rtw1"})
	require.NoError(t, err)
	assert.Equal(t, "rtw1", saved.VehicleID)
}

func TestPersonalRoleCannotMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.EnsureCatalog(ctx)
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, personal, AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-04", ShiftTypeID: ShiftEarly})
	assert.ErrorIs(t, err, ErrReadOnly)

	_, err = f.svc.Clear(ctx, personal, 2025, 3, "u-anna", "2025-03-04")
	assert.ErrorIs(t, err, ErrReadOnly)

	_, err = f.svc.Picker(ctx, personal, 2025, 3, "u-anna", "2025-03-04", Anchor{})
	assert.ErrorIs(t, err, ErrReadOnly)

	assert.Zero(t, f.store.writes)
	assert.Empty(t, f.audit.entries)
}

func TestPrivilegedRoleMutatesOncePerSelection(t *testing.T) {
	for _, ed := range []Editor{admin, disp} {
		t.Run(ed.Role.String(), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			_, err := f.svc.EnsureCatalog(ctx)
			require.NoError(t, err)

			_, err = f.svc.Assign(ctx, ed, AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-04", ShiftTypeID: ShiftEarly})
			require.NoError(t, err)
			assert.Equal(t, 1, f.store.writes)
		})
	}
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.EnsureCatalog(ctx)
	require.NoError(t, err)

	t.Run("empty cell is a no-op", func(t *testing.T) {
		n, err := f.svc.Clear(ctx, admin, 2025, 3, "u-anna", "2025-03-20")
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Zero(t, f.store.writes)
		assert.Empty(t, f.audit.entries)
	})

	t.Run("removes the assignment", func(t *testing.T) {
		_, err := f.svc.Assign(ctx, admin, AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-20", ShiftTypeID: ShiftLate})
		require.NoError(t, err)

		n, err := f.svc.Clear(ctx, admin, 2025, 3, "u-anna", "2025-03-20")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Empty(t, f.cellDocs(t, "u-anna", "2025-03-20"))

		last := f.audit.entries[len(f.audit.entries)-1]
		assert.Equal(t, audit.ActionClear, last.Action)
		assert.Equal(t, ShiftLate, last.PreviousShiftTypeID)
	})

	t.Run("removes legacy duplicates", func(t *testing.T) {
		t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		f.store.PutAssignment(domain.Assignment{ID: "dup-a", UID: "u-bernd", Date: "2025-03-21", ShiftTypeID: ShiftEarly, UpdatedAt: t0})
		f.store.PutAssignment(domain.Assignment{ID: "dup-b", UID: "u-bernd", Date: "2025-03-21", ShiftTypeID: ShiftMid, UpdatedAt: t0.Add(time.Hour)})

		n, err := f.svc.Clear(ctx, disp, 2025, 3, "u-bernd", "2025-03-21")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Empty(t, f.cellDocs(t, "u-bernd", "2025-03-21"))
		assert.Equal(t, ShiftMid, f.audit.entries[len(f.audit.entries)-1].PreviousShiftTypeID)
	})

	t.Run("date outside month", func(t *testing.T) {
		_, err := f.svc.Clear(ctx, admin, 2025, 3, "u-anna", "2025-02-28")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestAssign_PublishesMonthEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.EnsureCatalog(ctx)
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, admin, AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-04", ShiftTypeID: ShiftEarly})
	require.NoError(t, err)

	last := f.events.events[len(f.events.events)-1]
	assert.Equal(t, realtime.KindAssignment, last.Kind)
	assert.Equal(t, "2025-03", last.Month)
	assert.Equal(t, "u-anna", last.UID)
	assert.Equal(t, "admin1", last.Actor)
}

func TestAssign_AuditFailureDoesNotFailEdit(t *testing.T) {
	f := newFixture(t)
	f.audit.err = errors.New("db down")
	ctx := context.Background()
	_, err := f.svc.EnsureCatalog(ctx)
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, admin, AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-04", ShiftTypeID: ShiftEarly})
	assert.NoError(t, err)
}

func TestPicker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Assign(ctx, admin, AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-04", ShiftTypeID: ShiftEarly})
	require.ErrorIs(t, err, ErrUnknownShiftType, "catalog not seeded yet")

	p, err := f.svc.Picker(ctx, disp, 2025, 3, "u-anna", "2025-03-04", Anchor{X: 120, Y: 48})
	require.NoError(t, err)
	assert.Len(t, p.Options, 6)
	assert.True(t, p.Clear)
	assert.Equal(t, Anchor{X: 120, Y: 48}, p.Anchor)
	assert.Empty(t, p.Current)

	_, err = f.svc.Assign(ctx, admin, AssignRequest{Year: 2025, Month: 3, UID: "u-anna", Date: "2025-03-04", ShiftTypeID: ShiftMid})
	require.NoError(t, err)
	p, err = f.svc.Picker(ctx, disp, 2025, 3, "u-anna", "2025-03-04", Anchor{})
	require.NoError(t, err)
	assert.Equal(t, ShiftMid, p.Current)
}
