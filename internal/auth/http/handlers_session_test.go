package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kt-primus/einsatzplanung/internal/auth"
	authdomain "github.com/kt-primus/einsatzplanung/internal/auth/domain"
	"github.com/kt-primus/einsatzplanung/internal/auth/middleware"
	"github.com/kt-primus/einsatzplanung/internal/auth/service"
	"github.com/kt-primus/einsatzplanung/internal/docstore/memstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeIdentity struct {
	tokens   map[string]authdomain.Identity
	password map[string]string
	revoked  []string
}

func (f *fakeIdentity) SignInWithPassword(_ context.Context, email, password string) (authdomain.Identity, error) {
	if f.password[email] != password {
		return authdomain.Identity{}, authdomain.ErrBadCredentials
	}
	for _, id := range f.tokens {
		if id.Email == email {
			return id, nil
		}
	}
	return authdomain.Identity{}, authdomain.ErrBadCredentials
}

func (f *fakeIdentity) VerifyIDToken(_ context.Context, token string) (authdomain.Identity, error) {
	id, ok := f.tokens[token]
	if !ok {
		return authdomain.Identity{}, authdomain.ErrInvalidIDToken
	}
	return id, nil
}

func (f *fakeIdentity) RevokeSessions(_ context.Context, uid string) error {
	f.revoked = append(f.revoked, uid)
	return nil
}

type testEnv struct {
	router   *gin.Engine
	identity *fakeIdentity
	codec    *service.SessionCodec
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	store.PutUser(domain.User{UID: "disp1", DisplayName: "Dora", Email: "dora@example.org", Role: domain.RoleDisp, RoleKnown: true, IsActive: true})

	identity := &fakeIdentity{
		tokens: map[string]authdomain.Identity{
			"tok-dora":     {UID: "disp1", Email: "dora@example.org"},
			"tok-stranger": {UID: "nobody", Email: "nobody@example.org"},
		},
		password: map[string]string{"dora@example.org": "geheim"},
	}
	resolver := service.NewResolver(store, nil)
	codec := service.NewSessionCodec(testSecret, auth.RememberFor)

	r := gin.New()
	r.Use(middleware.LoadSession(codec, identity, resolver))
	h := New(identity, resolver, codec, false)
	h.Register(r.Group("/api"), middleware.RateLimit(60, 2))

	return &testEnv{router: r, identity: identity, codec: codec}
}

func (e *testEnv) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestCreateSession_SetsSignedCookie(t *testing.T) {
	env := setup(t)

	w := env.do(http.MethodPost, "/api/session", `{"idToken":"tok-dora","remember":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "disp", body["role"])
	assert.Equal(t, "Dora", body["displayName"])

	c := sessionCookie(t, w)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), c.MaxAge)

	s, err := env.codec.Decode(c.Value)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDisp, s.Role)
}

func TestCreateSession_TabScopedCookieHasNoMaxAge(t *testing.T) {
	env := setup(t)
	w := env.do(http.MethodPost, "/api/session", `{"idToken":"tok-dora"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, sessionCookie(t, w).MaxAge)
	assert.NotContains(t, w.Header().Get("Set-Cookie"), "Max-Age")
}

func TestCreateSession_NoProfileIsForbidden(t *testing.T) {
	env := setup(t)
	w := env.do(http.MethodPost, "/api/session", `{"idToken":"tok-stranger"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestCreateSession_InvalidToken(t *testing.T) {
	env := setup(t)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/session", `{"idToken":"forged"}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/session", `{}`).Code)
}

func TestLogin(t *testing.T) {
	env := setup(t)

	w := env.do(http.MethodPost, "/api/login", `{"email":"dora@example.org","password":"falsch"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/login", `{"email":"dora@example.org","password":"geheim"}`)
	require.Equal(t, http.StatusOK, w.Code)
	sessionCookie(t, w)

	w = env.do(http.MethodPost, "/api/login", `{"email":"dora@example.org","password":"geheim"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestGetAndDeleteSession(t *testing.T) {
	env := setup(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/session", "").Code)

	cookie := sessionCookie(t, env.do(http.MethodPost, "/api/session", `{"idToken":"tok-dora"}`))

	w := env.do(http.MethodGet, "/api/session", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"canWrite":true`)

	w = env.do(http.MethodDelete, "/api/session", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
	assert.Equal(t, []string{"disp1"}, env.identity.revoked)
}

func TestLoadSession_BearerToken(t *testing.T) {
	env := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer tok-dora")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
