package swapicache

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies why a fetch failed.
type ErrorKind string

const (
	ErrorKindTransport  ErrorKind = "Transport"
	ErrorKindTimeout    ErrorKind = "Timeout"
	ErrorKindHTTPStatus ErrorKind = "HTTPStatus"
	ErrorKindParse      ErrorKind = "Parse"
)

// Sentinel errors matching each failure kind through errors.Is.
var (
	// ErrTransport is matched by failures to establish or keep the connection.
	ErrTransport = errors.New("swapicache: transport error")

	// ErrTimeout is matched when no complete response arrived within the timeout.
	ErrTimeout = errors.New("swapicache: timeout")

	// ErrHTTPStatus is matched when the remote answered with a status >= 400.
	ErrHTTPStatus = errors.New("swapicache: bad http status")

	// ErrParse is matched when the response body is not a JSON document.
	ErrParse = errors.New("swapicache: malformed payload")

	// ErrEmptyKey is returned by Fetch for an empty resource key.
	ErrEmptyKey = errors.New("swapicache: empty resource key")

	// ErrInvalidKey is returned for keys that would leave the base URL: an
	// absolute URL, a host, or a ".." segment.
	ErrInvalidKey = errors.New("swapicache: invalid resource key")
)

// FetchError is the classified failure of a single fetch. Every caller that
// joined the same in-flight fetch receives the same *FetchError.
type FetchError struct {
	Kind       ErrorKind
	Key        string
	URL        string
	StatusCode int
	Message    string
	Cause      error
	RequestID  string
	Timestamp  time.Time
	Duration   time.Duration
}

// Error implements error interface.
func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Key != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Key)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another *FetchError of the same kind or the kind's sentinel.
func (e *FetchError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*FetchError); ok {
		return e.Kind == targetErr.Kind
	}
	return target == e.Kind.sentinel()
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *FetchError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Kind: %s\n", e.Kind)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Key != "" {
		info += fmt.Sprintf("Key: %s\n", e.Key)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

func (k ErrorKind) sentinel() error {
	switch k {
	case ErrorKindTransport:
		return ErrTransport
	case ErrorKindTimeout:
		return ErrTimeout
	case ErrorKindHTTPStatus:
		return ErrHTTPStatus
	case ErrorKindParse:
		return ErrParse
	default:
		return nil
	}
}

// KindOf returns the kind of a classified fetch failure, or "" when err is
// not a *FetchError.
func KindOf(err error) ErrorKind {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Kind
	}
	return ""
}

// StatusCode returns the remote status carried by an HTTP status failure, or 0.
func StatusCode(err error) int {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) && fetchErr.Kind == ErrorKindHTTPStatus {
		return fetchErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether the remote answered 404 for the resource.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
