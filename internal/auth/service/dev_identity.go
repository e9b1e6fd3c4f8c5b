package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	authdomain "github.com/kt-primus/einsatzplanung/internal/auth/domain"
	"github.com/kt-primus/einsatzplanung/internal/domain"
)

// DevIdentity signs in every stored profile with one shared password. It
// backs the in-memory store in development; ID tokens are never accepted.
type DevIdentity struct {
	users    ProfileReader
	password string
}

var _ IdentityProvider = (*DevIdentity)(nil)

func NewDevIdentity(users ProfileReader, password string) *DevIdentity {
	return &DevIdentity{users: users, password: password}
}

func (d *DevIdentity) SignInWithPassword(ctx context.Context, email, password string) (authdomain.Identity, error) {
	if d.password == "" || subtle.ConstantTimeCompare([]byte(password), []byte(d.password)) != 1 {
		return authdomain.Identity{}, authdomain.ErrBadCredentials
	}
	u, err := d.users.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return authdomain.Identity{}, authdomain.ErrBadCredentials
		}
		return authdomain.Identity{}, errors.Join(authdomain.ErrProviderFailure, err)
	}
	return authdomain.Identity{UID: u.UID, Email: u.Email, DisplayName: u.DisplayName}, nil
}

func (d *DevIdentity) VerifyIDToken(context.Context, string) (authdomain.Identity, error) {
	return authdomain.Identity{}, authdomain.ErrInvalidIDToken
}

func (d *DevIdentity) RevokeSessions(context.Context, string) error {
	return nil
}
