package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kt-primus/einsatzplanung/internal/auth"
	authdomain "github.com/kt-primus/einsatzplanung/internal/auth/domain"
	"github.com/kt-primus/einsatzplanung/internal/domain"
	"github.com/kt-primus/einsatzplanung/internal/logging"
)

// CreateSession exchanges a Firebase ID token for the session cookie.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "idToken is required"})
		return
	}

	id, err := h.identity.VerifyIDToken(c.Request.Context(), req.IDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
		return
	}

	h.establish(c, id, req.Remember)
}

// Login signs in with email and password. Bad credentials are reported
// inline and never retried.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "email and password are required"})
		return
	}

	id, err := h.identity.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, authdomain.ErrBadCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "E-Mail oder Passwort ist falsch"})
		return
	case err != nil:
		logging.FromContext(c.Request.Context()).WithError(err).Error("password sign-in failed")
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "Anmeldung derzeit nicht möglich"})
		return
	}

	h.establish(c, id, req.Remember)
}

func (h *Handler) GetSession(c *gin.Context) {
	s, ok := auth.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not signed in"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"uid":         s.UID,
		"email":       s.Email,
		"displayName": s.DisplayName,
		"role":        s.Role,
		"canWrite":    s.Role.CanWrite(),
	})
}

func (h *Handler) DeleteSession(c *gin.Context) {
	h.EndSession(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// EndSession clears the cookie, revokes the user's refresh tokens and drops
// the cached role. Revocation is best effort.
func (h *Handler) EndSession(c *gin.Context) {
	auth.ClearSessionCookie(c, h.secureCookie)

	s, ok := auth.SessionFrom(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.identity.RevokeSessions(ctx, s.UID); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("uid", s.UID).Warn("token revocation failed")
	}
	h.resolver.Invalidate(ctx, s.UID)
}

func (h *Handler) establish(c *gin.Context, id authdomain.Identity, remember bool) {
	ctx := c.Request.Context()
	log := logging.FromContext(ctx).WithField("uid", id.UID)

	res := h.resolver.Resolve(ctx, id)
	if res.Role == domain.RoleNone {
		auth.ClearSessionCookie(c, h.secureCookie)
		log.WithField("profile_found", res.Found).Info("sign-in without access")
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "Kein Zugriff. Bitte wenden Sie sich an die Administration."})
		return
	}

	token, err := h.codec.Encode(res.Session())
	if err != nil {
		log.WithError(err).Error("session encode failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to create session"})
		return
	}
	auth.WriteSessionCookie(c, token, remember, h.secureCookie)

	log.WithField("role", res.Role.String()).Info("session created")
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"role":        res.Role,
		"displayName": res.DisplayName,
	})
}
