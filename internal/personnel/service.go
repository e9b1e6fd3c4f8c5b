package personnel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kt-primus/einsatzplanung/internal/docstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/logging"
	"github.com/kt-primus/einsatzplanung/internal/realtime"
)

var (
	ErrEmptyUpdate = errors.New("nothing to update")
	ErrInvalidName = errors.New("display name must not be empty")
	// ErrSelfLockout blocks admins from demoting or deactivating themselves.
	ErrSelfLockout = errors.New("cannot revoke own admin access")
)

type Store interface {
	ListUsers(ctx context.Context, activeOnly bool) ([]domain.User, error)
	UpdateUser(ctx context.Context, uid string, upd docstore.UserUpdate) (*domain.User, error)
}

// RoleCache drops cached role resolutions.
type RoleCache interface {
	Invalidate(ctx context.Context, uid string)
}

type Publisher interface {
	Publish(ctx context.Context, ev realtime.Event) error
}

// Service lists and edits employee profiles. Profiles are created by
// onboarding outside this application and never deleted here.
type Service struct {
	store  Store
	roles  RoleCache
	events Publisher
}

func NewService(store Store, roles RoleCache, events Publisher) *Service {
	return &Service{store: store, roles: roles, events: events}
}

// List returns every profile, inactive ones included, ordered by name.
func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.ListUsers(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Service) Update(ctx context.Context, actor, uid string, upd docstore.UserUpdate) (*domain.User, error) {
	if upd.DisplayName == nil && upd.Role == nil && upd.IsActive == nil {
		return nil, ErrEmptyUpdate
	}
	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		if name == "" {
			return nil, ErrInvalidName
		}
		upd.DisplayName = &name
	}
	if actor == uid {
		if (upd.Role != nil && *upd.Role != domain.RoleAdmin) || (upd.IsActive != nil && !*upd.IsActive) {
			return nil, ErrSelfLockout
		}
	}

	u, err := s.store.UpdateUser(ctx, uid, upd)
	if err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx).WithField("uid", uid).WithField("actor", actor)
	log.WithField("role", u.Role.String()).WithField("active", u.IsActive).Info("profile updated")

	if s.roles != nil {
		s.roles.Invalidate(ctx, uid)
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, realtime.Event{Kind: realtime.KindPersonnel, UID: uid, Actor: actor}); err != nil {
			log.WithError(err).Warn("personnel event not published")
		}
	}
	return u, nil
}
