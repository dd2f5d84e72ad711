package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/openappsec-go/agentcore/internal/domain/messaging"
)

// poolKey identifies one persistent-connection slot: at most one idle
// connection is kept per (category, host, port, tls) tuple.
type poolKey struct {
	category messaging.Category
	host     string
	port     uint16
	tls      bool
}

func keyFor(category messaging.Category, host string, port uint16, tls bool) poolKey {
	return poolKey{category: category, host: host, port: port, tls: tls}
}

// Pool implements messaging.ConnectionPool. Unlike the teacher's read-mostly
// reverse-proxy target table (held behind atomic.Pointer since it only
// changes on admin reconfiguration), pool entries mutate on nearly every
// request (suspension counters, rate-limit windows), so a mutex-guarded map
// is used instead of swap-the-whole-slice.
type Pool struct {
	mu      sync.Mutex
	entries map[poolKey]*messaging.Connection
}

// NewPool returns an empty connection pool.
func NewPool() *Pool {
	return &Pool{entries: make(map[poolKey]*messaging.Connection)}
}

// Get returns the pool entry for the tuple, creating it (not-suspended, not
// rate-limited) on first use.
func (p *Pool) Get(category messaging.Category, host string, port uint16, tls bool) (*messaging.Connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := keyFor(category, host, port, tls)
	conn, ok := p.entries[k]
	if !ok {
		conn = &messaging.Connection{Category: category, Host: host, Port: port, TLS: tls}
		p.entries[k] = conn
		return conn, false
	}
	return conn, true
}

// Put is a no-op placeholder for symmetry with pool implementations that
// return borrowed connections to a free list; this pool's entries are
// permanent per tuple and never checked out exclusively.
func (p *Pool) Put(conn *messaging.Connection) {}

// MarkFailure increments the connection's consecutive-failure counter and
// suspends it once the threshold is reached.
func (p *Pool) MarkFailure(conn *messaging.Connection, suspendThreshold int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn.ConsecutiveErrors++
	if conn.ConsecutiveErrors >= suspendThreshold {
		conn.Suspended = true
	}
}

// MarkSuccess resets the failure counter and lifts suspension. This is the
// only path that clears Suspended; per spec it is driven by a successful
// probe against the fog health-check endpoint.
func (p *Pool) MarkSuccess(conn *messaging.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn.ConsecutiveErrors = 0
	conn.Suspended = false
}

// MarkRateLimited opens a rate-limit window on conn; every send to it is
// short-circuited into the buffered queue until the window elapses.
func (p *Pool) MarkRateLimited(conn *messaging.Connection, retryAfterSeconds int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	until := time.Now().Add(time.Duration(retryAfterSeconds) * time.Second)
	if until.After(conn.RateLimitedUntil) {
		conn.RateLimitedUntil = until
	}
}

// Size returns the number of distinct (category, host, port, tls) tuples
// currently tracked.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Suspended returns every currently-suspended connection, for the health
// probe that is the only way a suspended connection can recover (SendSync
// rejects sends to a suspended connection without attempting them).
func (p *Pool) Suspended() []*messaging.Connection {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []*messaging.Connection
	for _, conn := range p.entries {
		if conn.Suspended {
			out = append(out, conn)
		}
	}
	return out
}

func (k poolKey) String() string {
	scheme := "http"
	if k.tls {
		scheme = "https"
	}
	return fmt.Sprintf("%s/%s://%s:%d", k.category, scheme, k.host, k.port)
}
