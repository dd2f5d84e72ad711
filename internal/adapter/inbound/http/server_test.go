package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubFogChecker struct {
	connected bool
	errMsg    string
}

func (s stubFogChecker) CheckFogConnection(ctx context.Context) (bool, string) {
	return s.connected, s.errMsg
}

func TestCheckFogConnection_Connected(t *testing.T) {
	s := New("127.0.0.1:0", stubFogChecker{connected: true}, prometheus.NewRegistry(), testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/show/check-fog-connection", nil)
	s.mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body checkFogConnectionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshaling response: %v", err)
	}
	if !body.ConnectedToFog {
		t.Errorf("ConnectedToFog = false, want true")
	}
}

func TestCheckFogConnection_Disconnected(t *testing.T) {
	s := New("127.0.0.1:0", stubFogChecker{connected: false, errMsg: "dial tcp: timeout"}, prometheus.NewRegistry(), testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/show/check-fog-connection", nil)
	s.mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body checkFogConnectionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshaling response: %v", err)
	}
	if body.ConnectedToFog {
		t.Errorf("ConnectedToFog = true, want false")
	}
	if body.Error != "dial tcp: timeout" {
		t.Errorf("Error = %q, want %q", body.Error, "dial tcp: timeout")
	}
}

func TestHealthLive(t *testing.T) {
	s := New("127.0.0.1:0", stubFogChecker{connected: true}, prometheus.NewRegistry(), testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/access-manager/health/live", nil)
	s.mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "live" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "live")
	}
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_counter_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	s := New("127.0.0.1:0", stubFogChecker{connected: true}, reg, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	s.mux().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !contains(rec.Body.String(), "test_counter_total 1") {
		t.Errorf("metrics output missing registered counter: %s", rec.Body.String())
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}

func TestStart_ShutsDownOnContextCancel(t *testing.T) {
	s := New("127.0.0.1:0", stubFogChecker{connected: true}, prometheus.NewRegistry(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned error after shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}
