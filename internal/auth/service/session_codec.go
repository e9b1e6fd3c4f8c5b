package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authdomain "github.com/kt-primus/einsatzplanung/internal/auth/domain"
	"github.com/kt-primus/einsatzplanung/internal/domain"
)

const sessionIssuer = "primus-einsatzplanung"

type sessionClaims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SessionCodec signs and verifies the value of the role cookie.
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionCodec(secret string, ttl time.Duration) *SessionCodec {
	return &SessionCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source used for issuing and validating.
func (c *SessionCodec) WithClock(now func() time.Time) *SessionCodec {
	c.now = now
	return c
}

func (c *SessionCodec) TTL() time.Duration { return c.ttl }

func (c *SessionCodec) Encode(s authdomain.Session) (string, error) {
	if strings.TrimSpace(s.UID) == "" {
		return "", errors.New("session uid is required")
	}
	if s.Role == domain.RoleNone {
		return "", authdomain.ErrNoAccess
	}

	now := c.now().UTC()
	claims := sessionClaims{
		Role:  s.Role.String(),
		Email: s.Email,
		Name:  s.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   s.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Decode returns ErrInvalidSession for anything that is not a current,
// correctly signed session token.
func (c *SessionCodec) Decode(token string) (authdomain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return authdomain.Session{}, authdomain.ErrInvalidSession
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return authdomain.Session{}, authdomain.ErrInvalidSession
	}

	role, ok := domain.ParseRole(claims.Role)
	if !ok || role == domain.RoleNone || claims.Subject == "" {
		return authdomain.Session{}, authdomain.ErrInvalidSession
	}
	return authdomain.Session{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Role:        role,
	}, nil
}
