package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"

	authdomain "github.com/kt-primus/einsatzplanung/internal/auth/domain"
)

// IdentityProvider is the thin client over the external identity service.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (authdomain.Identity, error)
	VerifyIDToken(ctx context.Context, idToken string) (authdomain.Identity, error)
	RevokeSessions(ctx context.Context, uid string) error
}

// FirebaseIdentity signs users in through the Identity Toolkit REST API and
// verifies or revokes their tokens with the Admin SDK.
type FirebaseIdentity struct {
	admin   *auth.Client
	toolkit *identitytoolkit.Service
}

var _ IdentityProvider = (*FirebaseIdentity)(nil)

func NewFirebaseIdentity(admin *auth.Client, toolkit *identitytoolkit.Service) *FirebaseIdentity {
	return &FirebaseIdentity{admin: admin, toolkit: toolkit}
}

func (f *FirebaseIdentity) SignInWithPassword(ctx context.Context, email, password string) (authdomain.Identity, error) {
	if f.toolkit == nil {
		return authdomain.Identity{}, fmt.Errorf("%w: password sign-in not configured", authdomain.ErrProviderFailure)
	}

	resp, err := f.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
			return authdomain.Identity{}, authdomain.ErrBadCredentials
		}
		return authdomain.Identity{}, fmt.Errorf("%w: %v", authdomain.ErrProviderFailure, err)
	}

	return authdomain.Identity{
		UID:         resp.LocalId,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
	}, nil
}

func (f *FirebaseIdentity) VerifyIDToken(ctx context.Context, idToken string) (authdomain.Identity, error) {
	token, err := f.admin.VerifyIDToken(ctx, idToken)
	if err != nil {
		return authdomain.Identity{}, authdomain.ErrInvalidIDToken
	}

	id := authdomain.Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.DisplayName = name
	}
	return id, nil
}

func (f *FirebaseIdentity) RevokeSessions(ctx context.Context, uid string) error {
	if err := f.admin.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}
