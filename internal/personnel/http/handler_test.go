package http

import (
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
	"github.com/kt-primus/einsatzplanung/internal/personnel"
)

func TestPersonnelEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	store.PutUser(domain.User{UID: "u1", DisplayName: "Anna", Role: domain.RolePersonal, RoleKnown: true, IsActive: true})
	codec := service.NewSessionCodec("0123456789abcdef0123456789abcdef", time.Hour)

	r := gin.New()
	r.Use(middleware.LoadSession(codec, nil, nil))
	New(personnel.NewService(store, nil, nil)).Register(r.Group("/api"))

	call := func(role domain.Role, method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		token, err := codec.Encode(authdomain.Session{UID: "me", Role: role})
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusForbidden, call(domain.RolePersonal, http.MethodGet, "/api/personnel", "").Code)

	w := call(domain.RoleDisp, http.MethodGet, "/api/personnel", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"personal"`)

	assert.Equal(t, http.StatusForbidden, call(domain.RoleDisp, http.MethodPatch, "/api/personnel/u1", `{"role":"disp"}`).Code)
	assert.Equal(t, http.StatusBadRequest, call(domain.RoleAdmin, http.MethodPatch, "/api/personnel/u1", `{"role":"superuser"}`).Code)
	assert.Equal(t, http.StatusBadRequest, call(domain.RoleAdmin, http.MethodPatch, "/api/personnel/u1", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, call(domain.RoleAdmin, http.MethodPatch, "/api/personnel/ghost", `{"isActive":false}`).Code)

	w = call(domain.RoleAdmin, http.MethodPatch, "/api/personnel/u1", `{"role":"disp","isActive":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"role":"disp"`)
	assert.Contains(t, w.Body.String(), `"isActive":false`)
}
