package domain

import (
	"errors"

	core "github.com/kt-primus/einsatzplanung/internal/domain"
)

var (
	ErrInvalidSession  = errors.New("invalid session")
	ErrBadCredentials  = errors.New("invalid email or password")
	ErrNoAccess        = errors.New("no access")
	ErrInvalidIDToken  = errors.New("invalid id token")
	ErrProviderFailure = errors.New("identity provider unavailable")
)

// Identity is what the identity provider vouches for after sign-in.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
}

// Resolution is the outcome of a role lookup. Found is false when no
// profile document exists for the identity.
type Resolution struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        core.Role `json:"role"`
	Found       bool      `json:"found"`
}

// Session is the signed-in user as seen by every handler. It is decoded once
// per request from the session cookie or a bearer token.
type Session struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        core.Role `json:"role"`
}

func (r Resolution) Session() Session {
	return Session{UID: r.UID, Email: r.Email, DisplayName: r.DisplayName, Role: r.Role}
}
