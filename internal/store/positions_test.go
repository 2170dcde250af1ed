package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"liqwatch/internal/config"
	"liqwatch/internal/models"
	"liqwatch/pkg/utils"
)

func testGateway(serverURL string) *Gateway {
	log := utils.InitLogger(utils.LogConfig{Level: "error"})
	return NewGateway(config.StoreConfig{
		URL:            serverURL,
		ServiceRoleKey: "service-key",
	}, log)
}

func TestListActive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/rest/v1/trading_positions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != "in.(open,opening)" {
			t.Errorf("status filter = %q", got)
		}
		if sel := r.URL.Query().Get("select"); !strings.Contains(sel, "liquidation_price") {
			t.Errorf("select missing columns: %q", sel)
		}
		if r.Header.Get("apikey") != "service-key" {
			t.Error("missing apikey header")
		}
		if r.Header.Get("Authorization") != "Bearer service-key" {
			t.Error("missing bearer header")
		}

		w.Write([]byte(`[
			{"id":"p1","token_address":"addr1","token_symbol":"BONK","direction":"Long",
			 "entry_price":1.0,"liquidation_price":0.8,"amount":"100","leverage":5,
			 "collateral_sol":2.5,"status":"open"},
			{"id":"p2","token_address":"addr2","token_symbol":"WIF","direction":"short",
			 "entry_price":2.0,"liquidation_price":2.4,"amount":50,"leverage":null,
			 "collateral_sol":1.0,"status":"opening"}
		]`))
	}))
	defer server.Close()

	gw := testGateway(server.URL)

	positions, err := gw.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}

	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if positions[0].ID != "p1" || positions[0].Amount.Float64() != 100 {
		t.Errorf("unexpected first position: %+v", positions[0])
	}
	if positions[1].NormalizedDirection() != models.DirectionShort {
		t.Errorf("expected Short, got %v", positions[1].NormalizedDirection())
	}
	if positions[1].ClampedLeverage() != 1.0 {
		t.Errorf("null leverage should clamp to 1, got %v", positions[1].ClampedLeverage())
	}
}

func TestListActive_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	gw := testGateway(server.URL)

	positions, err := gw.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(positions) != 0 {
		t.Errorf("expected empty slice, got %d", len(positions))
	}
}

func TestListActive_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer server.Close()

	gw := testGateway(server.URL)

	if _, err := gw.ListActive(context.Background()); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestMarkLiquidated(t *testing.T) {
	var (
		mu       sync.Mutex
		gotQuery string
		gotBody  string
		gotPref  string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("unexpected method: %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)

		mu.Lock()
		gotQuery = r.URL.RawQuery
		gotBody = string(body)
		gotPref = r.Header.Get("Prefer")
		mu.Unlock()

		w.Write([]byte(`[{"id":"p1","status":"liquidated"}]`))
	}))
	defer server.Close()

	gw := testGateway(server.URL)

	closedAt := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	err := gw.MarkLiquidated(context.Background(), "p1", ClosureUpdate{
		ClosePrice:  0.75,
		PnL:         -12.5,
		MarginRatio: 1.0,
		ClosedAt:    closedAt,
	})
	if err != nil {
		t.Fatalf("MarkLiquidated failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if !strings.Contains(gotQuery, "id=eq.p1") {
		t.Errorf("query missing id filter: %q", gotQuery)
	}
	if gotPref != "return=representation" {
		t.Errorf("Prefer header = %q", gotPref)
	}

	for _, want := range []string{
		`"status":"liquidated"`,
		`"close_price":0.75`,
		`"close_reason":"liquidation"`,
		`"current_pnl":-12.5`,
		`"margin_call_triggered":true`,
		`"updated_at":"2026-01-15T12:00:00Z"`,
		`"closed_at":"2026-01-15T12:00:00Z"`,
	} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("body missing %s: %s", want, gotBody)
		}
	}

	// margin ratio в стор не пишется
	if strings.Contains(gotBody, "margin_ratio") {
		t.Errorf("body should not contain margin_ratio: %s", gotBody)
	}
}

func TestMarkLiquidated_NoContentIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	gw := testGateway(server.URL)

	err := gw.MarkLiquidated(context.Background(), "p1", ClosureUpdate{ClosedAt: time.Now()})
	if err != nil {
		t.Fatalf("204 should be success, got %v", err)
	}
}

func TestMarkLiquidated_Idempotent(t *testing.T) {
	var bodies []string
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(body))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	gw := testGateway(server.URL)

	u := ClosureUpdate{
		ClosePrice: 0.75,
		PnL:        -12.5,
		ClosedAt:   time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}

	// Повторная запись с теми же значениями - тот же результат
	for i := 0; i < 2; i++ {
		if err := gw.MarkLiquidated(context.Background(), "p1", u); err != nil {
			t.Fatalf("call %d failed: %v", i+1, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(bodies))
	}
	if bodies[0] != bodies[1] {
		t.Errorf("repeated writes should be identical:\n%s\n%s", bodies[0], bodies[1])
	}
}

func TestMarkLiquidated_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"conflict"}`))
	}))
	defer server.Close()

	gw := testGateway(server.URL)

	err := gw.MarkLiquidated(context.Background(), "p1", ClosureUpdate{ClosedAt: time.Now()})
	if err == nil {
		t.Fatal("expected error for 409")
	}
	if !strings.Contains(err.Error(), "409") {
		t.Errorf("error should carry status code: %v", err)
	}
}
