// Package messaging implements the outbound messaging.Client port: a
// resilient, buffered, priority-aware HTTPS client to the fog or a peer
// agent. It is grounded on the teacher's internal/adapter/inbound/httpgw
// reverse proxy (CONNECT tunneling, hop-by-hop header handling) and its
// internal/adapter/outbound/memory rate limiter (failure-counter/suspend
// state-machine shape), generalized from an inbound proxy to an outbound
// client per this repository's domain.
package messaging

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/openappsec-go/agentcore/internal/domain/messaging"
)

// SuspendThreshold is the number of consecutive failures after which a
// connection enters the suspended state (spec §4.1 "Suspension").
const SuspendThreshold = 5

// SuspendProbeInterval is how often ProbeSuspendedConnections is expected
// to be called by a scheduled routine (spec §4.1 "Suspension" recovery).
const SuspendProbeInterval = 15 * time.Second

// healthLivePath is the liveness endpoint every fog/peer exposes, the same
// one internal/adapter/inbound/http answers for inbound probes.
const healthLivePath = "/access-manager/health/live"

// UserAgent is sent on every request, per spec §6 "Wire protocol".
const UserAgent = "Infinity Next (agentcore)"

// Config holds the client's static configuration.
type Config struct {
	// BuildHash is embedded in the User-Agent header.
	BuildHash string
	// CacheTTL overrides the default GET response cache TTL.
	CacheTTL time.Duration
	// RequestTimeout bounds a single HTTP round trip.
	RequestTimeout time.Duration
	// DefaultProxy is used when a request's Metadata carries no proxy
	// settings of its own.
	DefaultProxy *messaging.ProxySettings
}

// Client implements messaging.Client.
type Client struct {
	cfg    Config
	logger *slog.Logger
	pool   *Pool
	cache  *ResponseCache
	buffer messaging.BufferStore

	httpClient *http.Client
}

var _ messaging.Client = (*Client)(nil)

// New builds a Client. buffer may be nil, in which case buffering is
// disabled and ShouldBuffer/forceBuffer sends fail immediately instead of
// being queued.
func New(cfg Config, buffer messaging.BufferStore, logger *slog.Logger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		pool:   NewPool(),
		cache:  NewResponseCache(cfg.CacheTTL),
		buffer: buffer,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// SendSync implements messaging.Client.
func (c *Client) SendSync(ctx context.Context, method, uri, body string, category messaging.Category, meta messaging.Metadata) (messaging.Response, error) {
	tls := meta.ConnFlags.Has(messaging.ConnFlagSecure)
	conn, _ := c.pool.Get(category, meta.HostName, meta.Port, tls)

	if meta.IsToFog && method == http.MethodGet {
		if resp, ok := c.cache.Get(uri); ok {
			return resp, nil
		}
	}

	now := time.Now()
	if conn.IsRateLimited(now) {
		c.enqueueBuffered(ctx, method, uri, body, category, meta)
		resp := messaging.Response{Status: messaging.HTTPStatusTooManyRequests}
		return resp, fmt.Errorf("messaging: %s is rate limited until %s", conn.Host, conn.RateLimitedUntil)
	}

	if conn.Suspended {
		if meta.ShouldBuffer {
			c.enqueueBuffered(ctx, method, uri, body, category, meta)
		}
		resp := messaging.Response{Status: messaging.HTTPStatusSuspend}
		return resp, fmt.Errorf("messaging: connection to %s is suspended", conn.Host)
	}

	resp, err := c.doRequest(ctx, method, uri, body, meta)

	switch {
	case err != nil:
		c.pool.MarkFailure(conn, SuspendThreshold)
		if meta.ShouldBuffer {
			c.enqueueBuffered(ctx, method, uri, body, category, meta)
		}
		return resp, err

	case resp.Code == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Headers["Retry-After"])
		c.pool.MarkRateLimited(conn, retryAfter)
		c.enqueueBuffered(ctx, method, uri, body, category, meta)
		resp.Status = messaging.HTTPStatusTooManyRequests
		return resp, fmt.Errorf("messaging: 429 from %s, retry after %ds", conn.Host, retryAfter)

	case resp.Code >= 500:
		c.pool.MarkFailure(conn, SuspendThreshold)
		return resp, fmt.Errorf("messaging: server error %d from %s", resp.Code, conn.Host)

	case resp.Code >= 400:
		return resp, fmt.Errorf("messaging: client error %d from %s", resp.Code, conn.Host)

	default:
		c.pool.MarkSuccess(conn)
		if meta.IsToFog && method == http.MethodGet {
			c.cache.Put(uri, resp)
		}
		return resp, nil
	}
}

// SendAsync implements messaging.Client.
func (c *Client) SendAsync(ctx context.Context, method, uri, body string, category messaging.Category, meta messaging.Metadata, forceBuffer bool) error {
	if forceBuffer {
		return c.enqueueBuffered(ctx, method, uri, body, category, meta)
	}
	go func() {
		if _, err := c.SendSync(ctx, method, uri, body, category, meta); err != nil {
			c.logger.Debug("async send failed, relying on buffered retry if enabled", "uri", uri, "error", err)
		}
	}()
	return nil
}

// DownloadFile implements messaging.Client.
func (c *Client) DownloadFile(ctx context.Context, method, uri, destPath string, category messaging.Category, meta messaging.Metadata) error {
	resp, err := c.SendSync(ctx, method, uri, "", category, meta)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("messaging: create destination dir: %w", err)
	}
	return os.WriteFile(destPath, []byte(resp.Body), 0644)
}

// UploadFile implements messaging.Client.
func (c *Client) UploadFile(ctx context.Context, uri, srcPath string, category messaging.Category, meta messaging.Metadata) (messaging.Response, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return messaging.Response{Status: messaging.HTTPStatusUnknown}, fmt.Errorf("messaging: read source file: %w", err)
	}
	return c.SendSync(ctx, http.MethodPut, uri, string(data), category, meta)
}

// SetFogConnection implements messaging.Client.
func (c *Client) SetFogConnection(ctx context.Context, category messaging.Category, host string, port uint16, secure bool) error {
	_, _ = c.pool.Get(category, host, port, secure)
	return nil
}

// CheckFogConnection implements messaging.Client, backing the
// "show check-fog-connection" REST action.
func (c *Client) CheckFogConnection(ctx context.Context) (bool, string) {
	conn, found := c.pool.Get(messaging.CategoryGeneric, "", 0, false)
	if !found {
		return false, "no fog connection established"
	}
	if conn.Suspended {
		return false, "connection suspended after repeated failures"
	}
	if conn.IsRateLimited(time.Now()) {
		return false, "connection is rate limited"
	}
	return true, ""
}

// ProbeSuspendedConnections is the only way a connection recovers from
// suspension once MarkFailure has tripped it (spec §4.1 "Suspension"):
// SendSync short-circuits before doRequest ever runs again, so nothing
// else calls pool.MarkSuccess on a suspended connection. Intended to be
// run on a ticker by a caller-owned scheduled routine
// (internal/runtime.Scheduler), one tick every SuspendProbeInterval.
func (c *Client) ProbeSuspendedConnections(ctx context.Context) {
	for _, conn := range c.pool.Suspended() {
		scheme := "http"
		if conn.TLS {
			scheme = "https"
		}
		url := fmt.Sprintf("%s://%s:%d%s", scheme, conn.Host, conn.Port, healthLivePath)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", fmt.Sprintf("%s (%s)", UserAgent, c.cfg.BuildHash))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Debug("suspended connection probe failed", "host", conn.Host, "port", conn.Port, "error", err)
			continue
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.pool.MarkSuccess(conn)
			c.logger.Info("suspended connection recovered", "host", conn.Host, "port", conn.Port)
		}
	}
}

func (c *Client) enqueueBuffered(ctx context.Context, method, uri, body string, category messaging.Category, meta messaging.Metadata) error {
	if c.buffer == nil {
		return fmt.Errorf("messaging: buffering requested but no buffer store is configured")
	}
	msg := messaging.BufferedMessage{
		Method:     method,
		URI:        uri,
		Body:       body,
		Category:   category,
		Metadata:   meta,
		EnqueuedAt: time.Now().UTC(),
	}
	return c.buffer.Append(ctx, msg)
}

// doRequest performs one HTTP round trip, building the transport's proxy
// dial (CONNECT tunneling for TLS) and external-CA trust set per request,
// mirroring the teacher's reverse proxy's per-forward header hygiene.
func (c *Client) doRequest(ctx context.Context, method, uri, body string, meta messaging.Metadata) (messaging.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, uri, bytes.NewBufferString(body))
	if err != nil {
		return messaging.Response{Status: messaging.HTTPStatusSerializationError}, fmt.Errorf("messaging: build request: %w", err)
	}

	req.Header.Set("User-Agent", fmt.Sprintf("%s (%s)", UserAgent, c.cfg.BuildHash))
	if meta.TenantID != "" {
		req.Header.Set("X-Tenant-Id", meta.TenantID)
	}
	for k, v := range meta.Headers {
		req.Header.Set(k, v)
	}

	client := c.httpClient
	proxy := meta.ProxySettings
	if proxy == nil {
		proxy = c.cfg.DefaultProxy
	}
	if proxy != nil || meta.ExternalCertificate != "" || meta.ConnFlags.Has(messaging.ConnFlagSkipValidation) {
		client = c.transportFor(proxy, meta)
	}

	resp, err := client.Do(req)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return messaging.Response{Status: messaging.HTTPStatusNoResponse}, fmt.Errorf("messaging: request timed out: %w", err)
		}
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return messaging.Response{Status: messaging.HTTPStatusDNSError}, fmt.Errorf("messaging: dns lookup failed: %w", err)
		}
		var certErr *tls.CertificateVerificationError
		var recErr tls.RecordHeaderError
		if errors.As(err, &certErr) || errors.As(err, &recErr) {
			return messaging.Response{Status: messaging.HTTPStatusTLSError}, fmt.Errorf("messaging: tls handshake failed: %w", err)
		}
		return messaging.Response{Status: messaging.HTTPStatusNoResponse}, fmt.Errorf("messaging: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return messaging.Response{Status: messaging.HTTPStatusSerializationError}, fmt.Errorf("messaging: read response body: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return messaging.Response{
		Code:    resp.StatusCode,
		Body:    string(data),
		Headers: headers,
	}, nil
}

// transportFor builds a one-off *http.Client honoring a per-request proxy
// and/or external CA certificate, rather than mutating the shared client.
func (c *Client) transportFor(proxy *messaging.ProxySettings, meta messaging.Metadata) *http.Client {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: meta.ConnFlags.Has(messaging.ConnFlagSkipValidation), //nolint:gosec
	}
	if meta.ExternalCertificate != "" {
		roots, err := x509.SystemCertPool()
		if err != nil || roots == nil {
			roots = x509.NewCertPool()
		}
		roots.AppendCertsFromPEM([]byte(meta.ExternalCertificate))
		tlsCfg.RootCAs = roots
	}

	transport := &http.Transport{
		TLSClientConfig: tlsCfg,
	}

	if proxy != nil {
		proxyURL := fmt.Sprintf("http://%s:%d", proxy.Host, proxy.Port)
		if proxy.Auth != "" {
			proxyURL = fmt.Sprintf("http://%s@%s:%d", proxy.Auth, proxy.Host, proxy.Port)
		}
		transport.Proxy = http.ProxyURL(mustParseURL(proxyURL))
	}

	return &http.Client{Timeout: c.cfg.RequestTimeout, Transport: transport}
}

// mustParseURL parses a proxy URL built from validated host/port fields;
// a parse failure here indicates malformed proxy configuration, so the
// proxy dial is left nil and requests fall through without proxying rather
// than panicking the caller.
func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return u
}

func parseRetryAfter(header string) int {
	if header == "" {
		return 1
	}
	if n, err := strconv.Atoi(header); err == nil && n > 0 {
		return n
	}
	return 1
}
