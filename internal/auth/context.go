package auth

import (
	"github.com/gin-gonic/gin"

	authdomain "github.com/kt-primus/einsatzplanung/internal/auth/domain"
	"github.com/kt-primus/einsatzplanung/internal/domain"
)

const (
	CtxSession     = "session"
	CtxFirebaseUID = "firebase_uid"
)

// SetSession stores the decoded session for downstream handlers.
func SetSession(c *gin.Context, s authdomain.Session) {
	c.Set(CtxSession, s)
	c.Set(CtxFirebaseUID, s.UID)
}

// SessionFrom returns the request's session, if any.
func SessionFrom(c *gin.Context) (authdomain.Session, bool) {
	v, ok := c.Get(CtxSession)
	if !ok {
		return authdomain.Session{}, false
	}
	s, ok := v.(authdomain.Session)
	return s, ok
}

// RoleFrom returns RoleNone when the request has no session.
func RoleFrom(c *gin.Context) domain.Role {
	s, ok := SessionFrom(c)
	if !ok {
		return domain.RoleNone
	}
	return s.Role
}
