package messaging

import "context"

// Client is the outbound port the rest of the agent uses to talk to the fog
// or a peer agent. Implementations own the connection pool, the GET cache,
// suspension/rate-limit bookkeeping, and the buffered-message queue.
type Client interface {
	// SendSync blocks until a response arrives, suspension fires, or an
	// error is reported. The error channel reuses Response so callers can
	// inspect the synthetic status alongside real ones.
	SendSync(ctx context.Context, method, uri, body string, category Category, meta Metadata) (Response, error)

	// SendAsync enqueues into the persistent buffer and never blocks the
	// caller. If forceBuffer is set, the message is persisted even when
	// connectivity is currently healthy.
	SendAsync(ctx context.Context, method, uri, body string, category Category, meta Metadata, forceBuffer bool) error

	// DownloadFile performs a sync GET and writes the body to destPath,
	// creating parent directories as needed.
	DownloadFile(ctx context.Context, method, uri, destPath string, category Category, meta Metadata) error

	// UploadFile reads srcPath and sends it as the body of a PUT.
	UploadFile(ctx context.Context, uri, srcPath string, category Category, meta Metadata) (Response, error)

	// SetFogConnection establishes or re-establishes the persistent
	// connection for category against host:port.
	SetFogConnection(ctx context.Context, category Category, host string, port uint16, secure bool) error

	// CheckFogConnection reports the current reachability of the fog
	// connection, backing the "show check-fog-connection" REST action.
	CheckFogConnection(ctx context.Context) (connected bool, errMsg string)
}

// BufferStore persists the outbound message queue. Two implementations
// exist: a JSONL file store (LoadAll returns file order) and a
// sqlite-backed store (LoadAll returns enqueued_at order). The messaging
// client only appends; no caller loads entries back to re-send them.
type BufferStore interface {
	Append(ctx context.Context, msg BufferedMessage) error
	LoadAll(ctx context.Context) ([]BufferedMessage, error)
	Remove(ctx context.Context, msg BufferedMessage) error
	Len(ctx context.Context) (int, error)
	Close() error
}

// ConnectionPool owns the at-most-one-idle-persistent-connection-per-tuple
// bookkeeping described in spec §4.1: lookup, suspension, and rate-limit
// state live here, not on the HTTP transport.
type ConnectionPool interface {
	Get(category Category, host string, port uint16, tls bool) (*Connection, bool)
	Put(conn *Connection)
	MarkFailure(conn *Connection, suspendThreshold int)
	MarkSuccess(conn *Connection)
	MarkRateLimited(conn *Connection, retryAfterSeconds int)
	Size() int
}
