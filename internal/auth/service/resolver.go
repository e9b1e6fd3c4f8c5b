package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	authdomain "github.com/kt-primus/einsatzplanung/internal/auth/domain"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/logging"
)

// ProfileReader is the part of the user store the resolver reads.
type ProfileReader interface {
	GetUser(ctx context.Context, uid string) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

type RoleCache interface {
	Get(ctx context.Context, uid string) (authdomain.Resolution, bool, error)
	Set(ctx context.Context, res authdomain.Resolution) error
	Invalidate(ctx context.Context, uid string) error
}

// Resolver derives the role of an authenticated identity from its profile
// document. It never creates profiles.
type Resolver struct {
	users ProfileReader
	cache RoleCache
}

func NewResolver(users ProfileReader, cache RoleCache) *Resolver {
	return &Resolver{users: users, cache: cache}
}

// Resolve looks the profile up by uid, then by email. A profile whose role is
// not recognized resolves to personal; no profile or an inactive one resolves
// to none. Store errors count as "not found".
func (r *Resolver) Resolve(ctx context.Context, id authdomain.Identity) authdomain.Resolution {
	res, _ := r.resolveCached(ctx, id)
	return res
}

// Refresh re-derives the role behind an issued session, so demotions and
// deactivations apply before the cookie expires. ok is false when the
// profile could not be read; the caller then keeps the session as issued.
func (r *Resolver) Refresh(ctx context.Context, s authdomain.Session) (authdomain.Resolution, bool) {
	return r.resolveCached(ctx, authdomain.Identity{UID: s.UID, Email: s.Email, DisplayName: s.DisplayName})
}

func (r *Resolver) resolveCached(ctx context.Context, id authdomain.Identity) (authdomain.Resolution, bool) {
	log := logging.FromContext(ctx).WithField("uid", id.UID)

	if r.cache != nil && id.UID != "" {
		cached, ok, err := r.cache.Get(ctx, id.UID)
		if err != nil {
			log.WithError(err).Debug("role cache unavailable")
		} else if ok {
			return cached, true
		}
	}

	res, clean := r.resolve(ctx, id, log)

	if r.cache != nil && clean && res.UID != "" {
		if err := r.cache.Set(ctx, res); err != nil {
			log.WithError(err).Debug("role cache write failed")
		}
	}
	return res, clean
}

// Invalidate drops the cached resolution of uid.
func (r *Resolver) Invalidate(ctx context.Context, uid string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, uid); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("uid", uid).Warn("role cache invalidation failed")
	}
}

func (r *Resolver) resolve(ctx context.Context, id authdomain.Identity, log *logrus.Entry) (authdomain.Resolution, bool) {
	clean := true
	lookup := func(what string, fn func() (*domain.User, error)) *domain.User {
		u, err := fn()
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				clean = false
				log.WithError(err).Warnf("profile lookup by %s failed", what)
			}
			return nil
		}
		return u
	}

	var candidates []*domain.User
	if id.UID != "" {
		if u := lookup("uid", func() (*domain.User, error) { return r.users.GetUser(ctx, id.UID) }); u != nil {
			candidates = append(candidates, u)
		}
	}
	if (len(candidates) == 0 || !candidates[0].RoleKnown) && strings.TrimSpace(id.Email) != "" {
		if u := lookup("email", func() (*domain.User, error) { return r.users.FindUserByEmail(ctx, strings.TrimSpace(id.Email)) }); u != nil {
			candidates = append(candidates, u)
		}
	}

	res := authdomain.Resolution{
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		Role:        domain.RoleNone,
	}
	if len(candidates) == 0 {
		res.DisplayName = displayName(res)
		return res, clean
	}

	profile := candidates[0]
	role := domain.RolePersonal
	for _, c := range candidates {
		if c.RoleKnown {
			profile, role = c, c.Role
			break
		}
	}

	res.Found = true
	res.Role = role
	if !profile.IsActive {
		res.Role = domain.RoleNone
	}
	if profile.DisplayName != "" {
		res.DisplayName = profile.DisplayName
	}
	if res.Email == "" {
		res.Email = profile.Email
	}
	res.DisplayName = displayName(res)
	return res, clean
}

func displayName(res authdomain.Resolution) string {
	if strings.TrimSpace(res.DisplayName) != "" {
		return res.DisplayName
	}
	return res.Email
}
