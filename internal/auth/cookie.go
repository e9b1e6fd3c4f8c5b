package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const SessionCookieName = "role"

// RememberFor is the cookie lifetime for device-scoped sessions.
const RememberFor = 7 * 24 * time.Hour

// WriteSessionCookie sets the signed session cookie. Without remember the
// cookie has no Max-Age and ends with the browser session.
func WriteSessionCookie(c *gin.Context, token string, remember, secure bool) {
	maxAge := 0
	if remember {
		maxAge = int(RememberFor / time.Second)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, maxAge, "/", "", secure, true)
}

// ClearSessionCookie expires the cookie immediately (Max-Age=0).
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", secure, true)
}
