package swapicache

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/iagooteles/swapicache/internal/singleflight"
)

const tracerName = "github.com/iagooteles/swapicache"

// Client fetches read-only API resources by key and caches every successful
// document for the life of the process. Concurrent misses for the same key
// share a single remote request. It is safe for concurrent use.
type Client struct {
	httpClient         *http.Client
	baseURL            string
	timeout            time.Duration
	insecureSkipVerify bool
	tracerProvider     trace.TracerProvider
	transport          Transport
	store              Store
	stats              *Stats
	inflight           *singleflight.Group[Document]
	metrics            *MetricsCollector
	debug              *DebugConfig
	logger             Logger
	validationError    error
}

// New constructs a Client using the provided functional options. A best effort
// validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		httpClient:     nil,
		baseURL:        DefaultBaseURL,
		timeout:        DefaultTimeout,
		tracerProvider: otel.GetTracerProvider(),
		transport:      nil,
		store:          NewMemoryStore(),
		stats:          NewStats(),
		inflight:       singleflight.New[Document](),
		metrics:        nil,
		debug:          DefaultDebugConfig(),
		logger:         nil,
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	if client.transport == nil && client.validationError == nil {
		httpClient := client.httpClient
		if httpClient == nil {
			httpClient = newHTTPClient(client.insecureSkipVerify)
		}
		transport, err := NewHTTPTransport(httpClient, client.baseURL, client.timeout, client.tracerProvider.Tracer(tracerName))
		if err != nil {
			client.validationError = err
		} else {
			client.transport = transport
		}
	}

	if client.validationError != nil {
		client.transport = nil
		return client
	}

	client.stats.setCacheSize(client.store.Len())
	client.metrics.RecordCacheSize(client.store.Len())

	return client
}

// Fetch returns the document for key, from the cache when present, otherwise
// from the remote API. Failures are *FetchError values and are never cached.
// Keys that are empty or would leave the base URL are rejected up front with
// ErrEmptyKey or ErrInvalidKey.
func (c *Client) Fetch(ctx context.Context, key string) (Document, error) {
	if _, err := parseKey(key); err != nil {
		return Document{}, err
	}
	if c.transport == nil {
		return Document{}, c.validationError
	}

	resource := resourceOf(key)

	if doc, found := c.store.Get(key); found {
		if c.debugEnabled() && c.debug.LogCache {
			c.logger.Debug("Using cached data", "key", key)
		}
		c.metrics.RecordCacheHit(resource)
		return doc, nil
	}
	c.metrics.RecordCacheMiss(resource)

	doc, err, shared := c.inflight.Do(ctx, key, func() (Document, error) {
		return c.fetchRemote(ctx, key, resource)
	})
	if shared {
		c.metrics.RecordCoalesced(resource)
		if c.debugEnabled() && c.debug.LogRequests {
			c.logger.Debug("Joined in-flight fetch", "key", key)
		}
	}
	return doc, err
}

// fetchRemote runs once per in-flight key. The remote call is detached from
// the caller's cancellation because other callers may be waiting on it.
func (c *Client) fetchRemote(ctx context.Context, key, resource string) (Document, error) {
	if doc, found := c.store.Get(key); found {
		return doc, nil
	}

	var requestID string
	if c.debugEnabled() && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}
	if c.debugEnabled() && c.debug.LogRequests {
		c.logger.Debug("Fetching resource", "requestID", requestID, "key", key)
	}

	start := time.Now()
	c.metrics.RecordFetchStart()
	doc, err := c.transport.Get(context.WithoutCancel(ctx), key)
	c.metrics.RecordFetchEnd()
	duration := time.Since(start)

	if err != nil {
		fetchErr := asFetchError(key, err)
		fetchErr.RequestID = requestID

		c.stats.RecordError()
		c.metrics.RecordError(fetchErr.Kind, fetchErr.StatusCode)
		c.metrics.RecordFetch(resource, string(fetchErr.Kind), duration)
		if c.logger != nil {
			c.logger.Warn("Fetch failed", "requestID", requestID, "key", key, "kind", string(fetchErr.Kind), "statusCode", fetchErr.StatusCode, "error", fetchErr.Error())
		}
		return Document{}, fetchErr
	}

	c.store.Set(key, doc)
	cacheSize := c.store.Len()
	c.stats.RecordSuccess(doc.Size(), cacheSize)

	c.metrics.RecordFetch(resource, "ok", duration)
	c.metrics.RecordPayload(doc.Size())
	c.metrics.RecordCacheSize(cacheSize)

	if c.debugEnabled() && c.debug.LogRequests {
		c.logger.Debug("Successfully fetched data", "requestID", requestID, "key", key, "bytes", doc.Size(), "duration", duration)
	}
	if c.debugEnabled() && c.debug.LogCache {
		c.logger.Debug("Cache size", "cacheSize", cacheSize)
	}

	return doc, nil
}

func asFetchError(key string, err error) *FetchError {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}
	return &FetchError{
		Kind:      ErrorKindTransport,
		Key:       key,
		Message:   "transport failed",
		Cause:     err,
		Timestamp: time.Now(),
	}
}

func (c *Client) debugEnabled() bool {
	return c.debug != nil && c.debug.Enabled && c.logger != nil
}

// Stats returns a consistent snapshot of the usage counters.
func (c *Client) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

// Cached returns the stored document for key without any remote call.
func (c *Client) Cached(key string) (Document, bool) {
	return c.store.Get(key)
}

// CachedKeys lists the keys currently cached.
func (c *Client) CachedKeys() []string {
	return c.store.Keys()
}

// InFlight reports whether a remote fetch for key is currently running.
func (c *Client) InFlight(key string) bool {
	return c.inflight.InFlight(key)
}

// Timeout returns the per-request deadline.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DebugEnabled reports whether debug logging is switched on.
func (c *Client) DebugEnabled() bool {
	return c.debug != nil && c.debug.Enabled
}

// Metrics returns the metrics collector, or nil when metrics are off.
func (c *Client) Metrics() *MetricsCollector {
	return c.metrics
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// resourceOf returns the first path segment of key, used as a low
// cardinality metrics label.
func resourceOf(key string) string {
	key = strings.TrimLeft(key, "/")
	if idx := strings.IndexAny(key, "/?"); idx >= 0 {
		key = key[:idx]
	}
	if key == "" {
		return "root"
	}
	return key
}
