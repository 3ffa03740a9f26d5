package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mentorlink/backend/config"
	"mentorlink/backend/internal/api/handler"
	"mentorlink/backend/pkg/jwt"
)

func setupRouter(t *testing.T) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{
			BodyLimit:  1 << 20,
			RateLimit:  10,
			RateWindow: time.Minute,
		},
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret-key-for-unit-testing-2026",
			Issuer:         "mentorlink",
			AccessTokenTTL: time.Minute,
		},
	}
	mgr := jwt.NewManager(&cfg.Auth)

	// Services are never reached: every request below is rejected by middleware.
	h := &handler.Handler{
		AcademicSession: handler.NewAcademicSessionHandler(nil),
		Mentee:          handler.NewMenteeHandler(nil, 0),
		Export:          handler.NewExportHandler(nil),
	}

	r, err := Setup(cfg, h, mgr, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return r, mgr
}

func TestRouter_Health(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestRouter_RequiresToken(t *testing.T) {
	r, _ := setupRouter(t)

	for _, route := range [][2]string{
		{"GET", "/api/v1/academic-sessions"},
		{"GET", "/api/v1/academic-sessions/periods"},
		{"PUT", "/api/v1/academic-sessions/rollover"},
		{"GET", "/api/v1/mentees"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(route[0], route[1], nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", route[0], route[1], w.Code)
		}
	}
}

func TestRouter_MutationsRequireAdmin(t *testing.T) {
	r, mgr := setupRouter(t)
	token, _ := mgr.GenerateAccessToken("mentor-1", "mentor@muj.manipal.edu", "mentor")

	for _, route := range [][2]string{
		{"POST", "/api/v1/academic-sessions"},
		{"PUT", "/api/v1/academic-sessions/archive"},
		{"PUT", "/api/v1/academic-sessions/rollover"},
		{"GET", "/api/v1/academic-sessions/export"},
		{"POST", "/api/v1/mentees/import"},
	} {
		req := httptest.NewRequest(route[0], route[1], nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Errorf("%s %s: expected 403, got %d", route[0], route[1], w.Code)
		}
	}
}
