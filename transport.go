package swapicache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the public Star Wars API endpoint.
const DefaultBaseURL = "https://swapi.dev/api/"

// DefaultTimeout bounds a single remote request.
const DefaultTimeout = 5000 * time.Millisecond

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 * 1024 * 1024

// Transport performs one remote GET for a resource key and classifies the
// outcome. Failures are returned as *FetchError.
type Transport interface {
	Get(ctx context.Context, key string) (Document, error)
}

// HTTPTransport is the Transport backed by net/http.
type HTTPTransport struct {
	httpClient *http.Client
	baseURL    *url.URL
	timeout    time.Duration
	tracer     trace.Tracer
}

// NewHTTPTransport builds a transport against baseURL. A nil httpClient uses
// a client with a verifying TLS configuration.
func NewHTTPTransport(httpClient *http.Client, baseURL string, timeout time.Duration, tracer trace.Tracer) (*HTTPTransport, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = newHTTPClient(false)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPTransport{
		httpClient: httpClient,
		baseURL:    base,
		timeout:    timeout,
		tracer:     tracer,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("parse base url: %q is not absolute", raw)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base, nil
}

func newHTTPClient(insecureSkipVerify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // test harness opt-in only
	}
	return &http.Client{Transport: transport}
}

// ResourceURL joins the base URL and key. The key may carry a query string.
// Keys that would resolve outside the base URL fail with ErrInvalidKey.
func (t *HTTPTransport) ResourceURL(key string) (string, error) {
	ref, err := parseKey(key)
	if err != nil {
		return "", err
	}
	resolved := t.baseURL.ResolveReference(ref)
	if resolved.Scheme != t.baseURL.Scheme || resolved.Host != t.baseURL.Host ||
		!strings.HasPrefix(resolved.Path, t.baseURL.Path) {
		return "", fmt.Errorf("%w: %q resolves outside %s", ErrInvalidKey, key, t.baseURL)
	}
	return resolved.String(), nil
}

// parseKey parses key as a reference relative to the base path.
func parseKey(key string) (*url.URL, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	ref, err := url.Parse(strings.TrimLeft(key, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if ref.Scheme != "" || ref.Host != "" || ref.User != nil || ref.Opaque != "" {
		return nil, fmt.Errorf("%w: %q is not a relative path", ErrInvalidKey, key)
	}
	for _, segment := range strings.Split(ref.Path, "/") {
		if segment == ".." {
			return nil, fmt.Errorf("%w: %q climbs above the base path", ErrInvalidKey, key)
		}
	}
	return ref, nil
}

// Timeout returns the per-request deadline.
func (t *HTTPTransport) Timeout() time.Duration {
	return t.timeout
}

// Get fetches key. The request is cancelled when the timeout elapses, so a
// late response is never observed.
func (t *HTTPTransport) Get(ctx context.Context, key string) (Document, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if t.tracer != nil {
		var span trace.Span
		ctx, span = t.tracer.Start(ctx, "swapicache.Get", trace.WithSpanKind(trace.SpanKindClient))
		span.SetAttributes(attribute.String("swapi.key", key))
		defer span.End()
	}

	target, err := t.ResourceURL(key)
	if err != nil {
		return Document{}, t.fail(ctx, &FetchError{Kind: ErrorKindTransport, Key: key, Message: "invalid resource key", Cause: err}, start)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Document{}, t.fail(ctx, &FetchError{Kind: ErrorKindTransport, Key: key, URL: target, Message: "build request", Cause: err}, start)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return Document{}, t.fail(ctx, classifyRequestError(ctx, key, target, "request failed", err), start)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return Document{}, t.fail(ctx, &FetchError{
			Kind:       ErrorKindHTTPStatus,
			Key:        key,
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("request failed with status code %d", resp.StatusCode),
		}, start)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Document{}, t.fail(ctx, classifyRequestError(ctx, key, target, "read response body", err), start)
	}

	doc, ok := ParseDocument(body)
	if !ok {
		return Document{}, t.fail(ctx, &FetchError{
			Kind:       ErrorKindParse,
			Key:        key,
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    "response body is not a JSON document",
		}, start)
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("http.response.status_code", resp.StatusCode),
		attribute.Int("swapi.document_bytes", doc.Size()),
	)
	return doc, nil
}

func (t *HTTPTransport) fail(ctx context.Context, err *FetchError, start time.Time) error {
	err.Timestamp = time.Now()
	err.Duration = err.Timestamp.Sub(start)

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Kind))
	if err.StatusCode > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", err.StatusCode))
	}
	return err
}

// classifyRequestError separates deadline expiry from other network failures.
func classifyRequestError(ctx context.Context, key, target, message string, err error) *FetchError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: ErrorKindTimeout, Key: key, URL: target, Message: "request timeout", Cause: err}
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: ErrorKindTimeout, Key: key, URL: target, Message: "request timeout", Cause: err}
	}
	return &FetchError{Kind: ErrorKindTransport, Key: key, URL: target, Message: message, Cause: err}
}

var _ Transport = (*HTTPTransport)(nil)
