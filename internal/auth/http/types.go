package http

import (
	"context"

	authdomain "github.com/kt-primus/einsatzplanung/internal/auth/domain"
	"github.com/kt-primus/einsatzplanung/internal/auth/service"
)

type RoleResolver interface {
	Resolve(ctx context.Context, id authdomain.Identity) authdomain.Resolution
	Invalidate(ctx context.Context, uid string)
}

type Handler struct {
	identity     service.IdentityProvider
	resolver     RoleResolver
	codec        *service.SessionCodec
	secureCookie bool
}

func New(identity service.IdentityProvider, resolver RoleResolver, codec *service.SessionCodec, secureCookie bool) *Handler {
	return &Handler{
		identity:     identity,
		resolver:     resolver,
		codec:        codec,
		secureCookie: secureCookie,
	}
}

type createSessionRequest struct {
	IDToken  string `json:"idToken" binding:"required"`
	Remember bool   `json:"remember"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}
