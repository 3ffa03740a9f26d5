package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mentorlink/backend/config"
	"mentorlink/backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		Issuer:         "mentorlink",
		AccessTokenTTL: 15 * time.Minute,
	})
}

func echoCaller(c *gin.Context) {
	c.String(http.StatusOK, c.GetString("user_id")+"|"+c.GetString("role"))
}

// ── JWTAuth / RoleAuth ──

func TestJWTAuth(t *testing.T) {
	mgr := newTestJWT()
	token, err := mgr.GenerateAccessToken("admin-1", "admin@muj.manipal.edu", "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	r := gin.New()
	r.GET("/me", JWTAuth(mgr), echoCaller)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer not.a.token", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
			if tt.want == http.StatusOK && w.Body.String() != "admin-1|admin" {
				t.Errorf("caller not injected: %s", w.Body.String())
			}
		})
	}
}

func TestRoleAuth(t *testing.T) {
	mgr := newTestJWT()
	r := gin.New()
	r.PUT("/rollover", JWTAuth(mgr), RoleAuth("admin"), echoCaller)

	for role, want := range map[string]int{"admin": http.StatusOK, "mentor": http.StatusForbidden} {
		token, _ := mgr.GenerateAccessToken("u-1", "", role)
		req := httptest.NewRequest("PUT", "/rollover", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != want {
			t.Errorf("role %s: expected %d, got %d", role, want, w.Code)
		}
	}
}

func TestRoleAuth_NoCaller(t *testing.T) {
	r := gin.New()
	r.GET("/x", RoleAuth("admin"), echoCaller)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ── RateLimit ──

type fakeLimiter struct {
	hits  map[string]int
	limit int
	err   error
}

func (f *fakeLimiter) CheckRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.hits[key]++
	return f.hits[key] <= limit, nil
}

func TestRateLimit(t *testing.T) {
	limiter := &fakeLimiter{hits: map[string]int{}}
	r := gin.New()
	r.PUT("/rollover", RateLimit(limiter, 2, time.Minute), echoCaller)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("PUT", "/rollover", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected status sequence %v", codes)
	}
}

func TestRateLimit_Degraded(t *testing.T) {
	for name, limiter := range map[string]RateLimiter{
		"nil":     nil,
		"failing": &fakeLimiter{err: errors.New("redis down")},
	} {
		r := gin.New()
		r.PUT("/rollover", RateLimit(limiter, 1, time.Minute), echoCaller)
		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("PUT", "/rollover", nil))
			if w.Code != http.StatusOK {
				t.Errorf("%s limiter: request %d got %d", name, i, w.Code)
			}
		}
	}
}

// ── RequestID / CORS / BodyLimit ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequestID(), func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "abc-123" || w.Body.String() != "abc-123" {
		t.Errorf("client id not reused: header=%q body=%q", w.Header().Get("X-Request-ID"), w.Body.String())
	}

	for _, bad := range []string{strings.Repeat("a", requestIDMaxLen+1), "abc\ninjected", "a b"} {
		req = httptest.NewRequest("GET", "/x", nil)
		req.Header.Set("X-Request-ID", bad)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get("X-Request-ID"); len(got) != 36 || got == bad {
			t.Errorf("id %q should be replaced by a uuid, got %q", bad, got)
		}
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000/"}))
	r.GET("/x", echoCaller)

	req := httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("origin not allowed: %q", w.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be allowed")
	}

	req = httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("preflight from unknown origin: expected 403, got %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.GET("/x", SecurityHeaders(), echoCaller)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))
	if w.Header().Get("Cache-Control") != "no-store" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("unexpected headers %v", w.Header())
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must only be sent over TLS")
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.POST("/x", BodyLimit(16), echoCaller)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/x", strings.NewReader(strings.Repeat("x", 64)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/x", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
