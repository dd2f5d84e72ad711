package messaging

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/openappsec-go/agentcore/internal/domain/messaging"
)

// memBuffer is a trivial in-memory messaging.BufferStore test double,
// standing in for bufferfile/sqlite so these tests don't touch disk.
type memBuffer struct {
	mu  sync.Mutex
	out []messaging.BufferedMessage
}

func (b *memBuffer) Append(_ context.Context, msg messaging.BufferedMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out = append(b.out, msg)
	return nil
}

func (b *memBuffer) LoadAll(_ context.Context) ([]messaging.BufferedMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]messaging.BufferedMessage(nil), b.out...), nil
}

func (b *memBuffer) Remove(_ context.Context, _ messaging.BufferedMessage) error { return nil }

func (b *memBuffer) Len(_ context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.out), nil
}

func (b *memBuffer) Close() error { return nil }

func (b *memBuffer) snapshot() []messaging.BufferedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]messaging.BufferedMessage(nil), b.out...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestSendSync_ScenarioThree_RateLimitReply is spec.md §8 scenario 3: a 429
// with Retry-After:2 must (a) report HTTPStatusTooManyRequests, (b) buffer
// the request, (c) open a >=2s rate-limit window on the connection, and
// (d) short-circuit a second send within that window without touching the
// transport.
func TestSendSync_ScenarioThree_RateLimitReply(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	buf := &memBuffer{}
	c := New(Config{BuildHash: "test"}, buf, discardLogger())

	host, portStr, err := splitHostPort(t, srv.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}

	meta := messaging.Metadata{HostName: host, Port: portStr, ShouldBuffer: true}

	before := time.Now()
	resp, err := c.SendSync(context.Background(), http.MethodPost, srv.URL, "body", messaging.CategoryGeneric, meta)
	if err == nil {
		t.Fatal("expected an error on a 429 response")
	}
	if resp.Status != messaging.HTTPStatusTooManyRequests {
		t.Fatalf("status = %v, want HTTPStatusTooManyRequests", resp.Status)
	}
	if got := len(buf.snapshot()); got != 1 {
		t.Fatalf("buffered messages = %d, want 1", got)
	}

	conn, _ := c.pool.Get(messaging.CategoryGeneric, host, portStr, false)
	if !conn.RateLimitedUntil.After(before.Add(2 * time.Second).Add(-time.Second)) {
		t.Fatalf("RateLimitedUntil = %v, want at least ~2s after %v", conn.RateLimitedUntil, before)
	}
	if hits != 1 {
		t.Fatalf("server hits = %d, want 1", hits)
	}

	// Second send within the window must short-circuit before doRequest.
	resp2, err2 := c.SendSync(context.Background(), http.MethodPost, srv.URL, "body", messaging.CategoryGeneric, meta)
	if err2 == nil {
		t.Fatal("expected an error while rate limited")
	}
	if resp2.Status != messaging.HTTPStatusTooManyRequests {
		t.Fatalf("status = %v, want HTTPStatusTooManyRequests", resp2.Status)
	}
	if hits != 1 {
		t.Fatalf("server hits after second send = %d, want still 1 (transport must not be touched)", hits)
	}
	if got := len(buf.snapshot()); got != 2 {
		t.Fatalf("buffered messages after second send = %d, want 2", got)
	}
}

// TestProbeSuspendedConnections_RecoversOnHealthyReply confirms the
// suspension-recovery probe added to close review comment 3: a connection
// tripped into Suspended by repeated failures is un-suspended once the
// probe observes a 2xx from the health-liveness endpoint.
func TestProbeSuspendedConnections_RecoversOnHealthyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthLivePath {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{BuildHash: "test"}, &memBuffer{}, discardLogger())

	host, portStr, err := splitHostPort(t, srv.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}

	conn, _ := c.pool.Get(messaging.CategoryGeneric, host, portStr, false)
	for i := 0; i < SuspendThreshold; i++ {
		c.pool.MarkFailure(conn, SuspendThreshold)
	}
	if !conn.Suspended {
		t.Fatal("connection should be suspended after SuspendThreshold failures")
	}

	c.ProbeSuspendedConnections(context.Background())

	if conn.Suspended {
		t.Fatal("connection should have recovered after a healthy probe")
	}
	if conn.ConsecutiveErrors != 0 {
		t.Fatalf("ConsecutiveErrors = %d, want 0 after recovery", conn.ConsecutiveErrors)
	}
}

func splitHostPort(t *testing.T, rawURL string) (string, uint16, error) {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, err
	}
	host := u.Hostname()
	p, err := strconv.Atoi(u.Port())
	if err != nil {
		return "", 0, err
	}
	return host, uint16(p), nil
}
