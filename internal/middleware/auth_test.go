package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tallerapp/vehicle-maintenance/internal/auth"
	"github.com/tallerapp/vehicle-maintenance/internal/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	authService, _ := auth.NewService()
	m := NewAuthMiddleware(authService)

	req := httptest.NewRequest(http.MethodGet, "/vehicle/user", nil)
	w := httptest.NewRecorder()
	m.Authenticate(okHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	authService, _ := auth.NewService()
	m := NewAuthMiddleware(authService)

	req := httptest.NewRequest(http.MethodGet, "/vehicle/user", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	m.Authenticate(okHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_ValidToken(t *testing.T) {
	authService, _ := auth.NewService()
	m := NewAuthMiddleware(authService)

	user := &models.User{ID: 7, Username: "owner", Role: models.RoleOwner}
	token, _ := authService.GenerateToken(user)

	var seen *models.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/vehicle/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	m.Authenticate(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, seen)
	assert.Equal(t, int64(7), seen.UserID)
	assert.Equal(t, models.RoleOwner, seen.Role)
}

func TestAuthenticate_SkipsPublicPaths(t *testing.T) {
	authService, _ := auth.NewService()
	m := NewAuthMiddleware(authService)

	for _, path := range []string{"/auth/login", "/auth/register", "/health"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		w := httptest.NewRecorder()
		m.Authenticate(okHandler()).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "path %s should skip auth", path)
	}
}

func TestRequirePermission(t *testing.T) {
	authService, _ := auth.NewService()
	m := NewAuthMiddleware(authService)

	owner, _ := authService.GenerateToken(&models.User{ID: 1, Username: "o", Role: models.RoleOwner})
	workshop, _ := authService.GenerateToken(&models.User{ID: 2, Username: "w", Role: models.RoleWorkshop})

	protected := m.Authenticate(m.RequirePermission("manage_reminders")(okHandler()))

	req := httptest.NewRequest(http.MethodPost, "/reminders", nil)
	req.Header.Set("Authorization", "Bearer "+owner)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/reminders", nil)
	req.Header.Set("Authorization", "Bearer "+workshop)
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimit(t *testing.T) {
	m := NewRateLimitMiddleware()
	limited := m.RateLimit(2, 60)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/vehicle/user", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/vehicle/user", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	limited.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Different IP is unaffected
	req = httptest.NewRequest(http.MethodGet, "/vehicle/user", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w = httptest.NewRecorder()
	limited.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
