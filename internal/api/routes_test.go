package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"liqwatch/internal/watcher"
)

type stubStatus struct{}

func (stubStatus) Stats() watcher.Stats {
	return watcher.Stats{Running: true, TicksTotal: 1}
}

func TestRoutes_Health(t *testing.T) {
	router := SetupRoutes(&Dependencies{Status: stubStatus{}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rec.Code)
	}
}

func TestRoutes_Status(t *testing.T) {
	router := SetupRoutes(&Dependencies{Status: stubStatus{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"running":true`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestRoutes_Metrics(t *testing.T) {
	router := SetupRoutes(&Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d, want 200", rec.Code)
	}
}

func TestRoutes_DebugRequiresAuth(t *testing.T) {
	router := SetupRoutes(&Dependencies{
		DebugUsername: "ops",
		DebugPassword: "secret",
	})

	// Без credentials - 401
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without auth = %d, want 401", rec.Code)
	}

	// С неверным паролем - 401
	req = httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.SetBasicAuth("ops", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password = %d, want 401", rec.Code)
	}

	// С верными credentials - 200
	req = httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.SetBasicAuth("ops", "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with auth = %d, want 200", rec.Code)
	}
}

func TestRoutes_DebugDisabledWithoutCredentials(t *testing.T) {
	router := SetupRoutes(&Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("debug without configured credentials = %d, want 403", rec.Code)
	}
}
