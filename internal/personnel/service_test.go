package personnel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kt-primus/einsatzplanung/internal/docstore"
	"github.com/kt-primus/einsatzplanung/internal/docstore/memstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/realtime"
)

type recordingCache struct{ invalidated []string }

func (r *recordingCache) Invalidate(_ context.Context, uid string) {
	r.invalidated = append(r.invalidated, uid)
}

type recordingEvents struct{ events []realtime.Event }

func (r *recordingEvents) Publish(_ context.Context, ev realtime.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func setup() (*Service, *memstore.Store, *recordingCache, *recordingEvents) {
	store := memstore.New()
	store.PutUser(domain.User{UID: "admin", DisplayName: "Chefin", Role: domain.RoleAdmin, RoleKnown: true, IsActive: true})
	store.PutUser(domain.User{UID: "u1", DisplayName: "Anna", Role: domain.RolePersonal, RoleKnown: true, IsActive: true})
	store.PutUser(domain.User{UID: "u2", DisplayName: "Bernd", Role: domain.RolePersonal, RoleKnown: true, IsActive: false})
	cache, events := &recordingCache{}, &recordingEvents{}
	return NewService(store, cache, events), store, cache, events
}

func TestList_IncludesInactive(t *testing.T) {
	svc, _, _, _ := setup()
	users, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "Anna", users[0].DisplayName)
}

func TestUpdate_ChangesRoleAndInvalidatesCache(t *testing.T) {
	svc, store, cache, events := setup()
	ctx := context.Background()
	disp := domain.RoleDisp

	u, err := svc.Update(ctx, "admin", "u1", docstore.UserUpdate{Role: &disp})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDisp, u.Role)

	stored, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDisp, stored.Role)

	assert.Equal(t, []string{"u1"}, cache.invalidated)
	require.Len(t, events.events, 1)
	assert.Equal(t, realtime.KindPersonnel, events.events[0].Kind)
}

func TestUpdate_Rejections(t *testing.T) {
	svc, _, cache, _ := setup()
	ctx := context.Background()
	blank, inactive, personal := "  ", false, domain.RolePersonal

	_, err := svc.Update(ctx, "admin", "u1", docstore.UserUpdate{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	_, err = svc.Update(ctx, "admin", "u1", docstore.UserUpdate{DisplayName: &blank})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = svc.Update(ctx, "admin", "admin", docstore.UserUpdate{IsActive: &inactive})
	assert.ErrorIs(t, err, ErrSelfLockout)

	_, err = svc.Update(ctx, "admin", "admin", docstore.UserUpdate{Role: &personal})
	assert.ErrorIs(t, err, ErrSelfLockout)

	_, err = svc.Update(ctx, "admin", "ghost", docstore.UserUpdate{IsActive: &inactive})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, cache.invalidated)
}
