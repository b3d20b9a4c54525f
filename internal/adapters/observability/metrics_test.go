package observability_test

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hbnb_api/internal/adapters/observability"
	"hbnb_api/internal/domain"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()
	if observability.InitRegistry() != reg {
		t.Fatalf("expected a single process registry")
	}

	// record one sample per family so every collector is exported
	observability.ObserveHTTP("/api/v1/states", "GET", 200, 12*time.Millisecond)
	observability.ObserveStorage("file", "get", domain.ErrNotFound, time.Millisecond)
	observability.ObserveCache("redis", "miss")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"hbnb_http_requests_total",
		`hbnb_storage_operations_total{backend="file",op="get",status="not_found"}`,
		`hbnb_cache_events_total{cache="redis",event="miss"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output", want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	cases := map[string]error{
		"ok":        nil,
		"not_found": fmt.Errorf("state 1: %w", domain.ErrNotFound),
		"error":     errors.New("boom"),
	}
	for want, err := range cases {
		if got := observability.StatusLabel(err); got != want {
			t.Fatalf("StatusLabel(%v) = %s, want %s", err, got, want)
		}
	}
}
