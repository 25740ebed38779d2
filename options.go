package swapicache

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithBaseURL sets the API root that keys are resolved against.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client for the default transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithInsecureSkipVerifyForTesting disables TLS certificate verification.
// Only for test harnesses talking to self-signed servers.
func WithInsecureSkipVerifyForTesting() Option {
	return func(c *Client) {
		c.insecureSkipVerify = true
	}
}

// WithTransport replaces the HTTP transport entirely.
func WithTransport(transport Transport) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithStore sets the document store.
func WithStore(store Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithStats sets the counters the client records into.
func WithStats(stats *Stats) Option {
	return func(c *Client) {
		c.stats = stats
	}
}

// WithMetrics enables Prometheus metrics on a fresh registry.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithTracerProvider sets the OpenTelemetry provider used for transport spans.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracerProvider = provider
	}
}

// WithDebug switches debug logging on or off.
func WithDebug(enabled bool) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = enabled
	}
}

// WithDebugConfig sets custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid.
func (c *Client) ValidateConfiguration() error {
	var errors []string

	errors = append(errors, c.validateTimeoutConfig()...)
	errors = append(errors, c.validateEndpointConfig()...)
	errors = append(errors, c.validateCollaborators()...)

	if len(errors) > 0 {
		return fmt.Errorf("swapicache: configuration validation failed: %v", errors)
	}

	return nil
}

func (c *Client) validateTimeoutConfig() []string {
	var errors []string

	if c.timeout <= 0 {
		errors = append(errors, "timeout must be positive")
	}
	if c.timeout > 10*time.Minute {
		errors = append(errors, "timeout > 10m may cause requests to hang for too long")
	}

	return errors
}

func (c *Client) validateEndpointConfig() []string {
	var errors []string

	if c.transport != nil {
		return errors
	}
	if _, err := parseBaseURL(c.baseURL); err != nil {
		errors = append(errors, err.Error())
	}
	if c.insecureSkipVerify && c.httpClient != nil {
		errors = append(errors, "insecure skip verify has no effect with a custom HTTP client")
	}

	return errors
}

func (c *Client) validateCollaborators() []string {
	var errors []string

	if c.store == nil {
		errors = append(errors, "store must not be nil")
	}
	if c.stats == nil {
		errors = append(errors, "stats must not be nil")
	}
	if c.tracerProvider == nil {
		errors = append(errors, "tracer provider must not be nil")
	}

	return errors
}
