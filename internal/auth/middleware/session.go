package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kt-primus/einsatzplanung/internal/auth"
	authdomain "github.com/kt-primus/einsatzplanung/internal/auth/domain"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/logging"
)

type SessionDecoder interface {
	Decode(token string) (authdomain.Session, error)
}

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (authdomain.Identity, error)
}

type RoleResolver interface {
	Resolve(ctx context.Context, id authdomain.Identity) authdomain.Resolution
	Refresh(ctx context.Context, s authdomain.Session) (authdomain.Resolution, bool)
}

// LoadSession is the single place a request's session is established. The
// role cookie wins; API clients may instead send a Firebase ID token as a
// Bearer token, which is verified and resolved. With a resolver, the role in
// the cookie is re-checked against the profile on every request; a
// deactivated profile loses its session. It never aborts.
func LoadSession(codec SessionDecoder, verifier TokenVerifier, resolver RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(auth.SessionCookieName); err == nil && raw != "" {
			if s, err := codec.Decode(raw); err == nil {
				if s, ok := refresh(c, resolver, s); ok {
					auth.SetSession(c, s)
				}
				c.Next()
				return
			}
		}

		if token := extractToken(c); token != "" && verifier != nil && resolver != nil {
			ctx := c.Request.Context()
			id, err := verifier.VerifyIDToken(ctx, token)
			if err != nil {
				logging.FromContext(ctx).WithError(err).Debug("bearer token rejected")
			} else if res := resolver.Resolve(ctx, id); res.Role != domain.RoleNone {
				auth.SetSession(c, res.Session())
			}
		}

		c.Next()
	}
}

// refresh applies the current profile role to a cookie session. ok is false
// when the profile no longer grants access.
func refresh(c *gin.Context, resolver RoleResolver, s authdomain.Session) (authdomain.Session, bool) {
	if resolver == nil {
		return s, true
	}
	ctx := c.Request.Context()
	res, ok := resolver.Refresh(ctx, s)
	if !ok {
		return s, true
	}
	if res.Role == domain.RoleNone {
		logging.FromContext(ctx).WithField("uid", s.UID).Info("session revoked by profile")
		return authdomain.Session{}, false
	}
	if res.Role != s.Role {
		logging.FromContext(ctx).WithFields(logrus.Fields{
			"uid":  s.UID,
			"from": s.Role.String(),
			"to":   res.Role.String(),
		}).Info("session role changed")
	}
	s.Role = res.Role
	if res.DisplayName != "" {
		s.DisplayName = res.DisplayName
	}
	return s, true
}

// RequireSession rejects API requests without a session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.SessionFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in"})
			return
		}
		c.Next()
	}
}

// RequireRole rejects API requests whose role is below min.
func RequireRole(min domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := auth.SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in"})
			return
		}
		if !s.Role.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "insufficient role"})
			return
		}
		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
