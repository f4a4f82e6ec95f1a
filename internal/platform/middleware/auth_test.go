package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BnBPlug/service-reservation/internal/platform/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(jwtManager *auth.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())

	whoami := func(c *gin.Context) {
		u, ok := auth.UserFromContext(c.Request.Context())
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, u.ID.String())
	}

	r.GET("/optional", OptionalAuthMiddleware(jwtManager), whoami)
	r.GET("/required", AuthMiddleware(jwtManager), whoami)
	r.GET("/admin", AuthMiddleware(jwtManager), RequireRole(auth.RoleAdmin), whoami)
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	m := auth.NewJWTManager("secret", time.Minute, time.Hour)
	r := newRouter(m)
	userID := uuid.New()
	token, err := m.GenerateAccessToken(userID, "amina@example.com", auth.RoleGuest)
	require.NoError(t, err)

	w := get(r, "/optional", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = get(r, "/optional", token)
	assert.Equal(t, userID.String(), w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "/required", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/required", "garbage").Code)
	assert.Equal(t, http.StatusOK, get(r, "/required", token).Code)

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", token).Code)
}
