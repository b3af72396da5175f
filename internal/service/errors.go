package service

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/eventcorner/assistant/internal/llm"
)

// Kind classifies a service failure.
type Kind int

const (
	// KindInvalidInput is a request the caller must fix.
	KindInvalidInput Kind = iota + 1
	// KindBackendUnavailable means the completion engine could not be reached.
	KindBackendUnavailable
	// KindBackendError is any other completion engine failure.
	KindBackendError
	// KindAnalyzerFailure means the banner analyzer failed on an image.
	KindAnalyzerFailure
	// KindAnalyzerUnavailable means no analyzer is configured.
	KindAnalyzerUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindBackendUnavailable:
		return "backend_unavailable"
	case KindBackendError:
		return "backend_error"
	case KindAnalyzerFailure:
		return "analyzer_failure"
	case KindAnalyzerUnavailable:
		return "analyzer_unavailable"
	default:
		return "unknown"
	}
}

// Status maps the kind to an HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindBackendUnavailable, KindAnalyzerUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the failure returned by every service operation. Detail is safe to
// show to clients.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a service Error of kind k.
func IsKind(err error, k Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}

func invalidInput(detail string) *Error {
	return &Error{Kind: KindInvalidInput, Detail: detail}
}

// classifyEngineError turns a completion engine failure into a service
// error. prefix names the flow, e.g. "Chat failed".
func classifyEngineError(engine llm.Client, prefix string, err error) *Error {
	if isUnavailable(err) {
		return &Error{
			Kind:   KindBackendUnavailable,
			Detail: fmt.Sprintf("%s is not running at %s", displayName(engine.Name()), engine.Endpoint()),
			Err:    err,
		}
	}
	return &Error{
		Kind:   KindBackendError,
		Detail: fmt.Sprintf("%s: %v", prefix, err),
		Err:    err,
	}
}

// isUnavailable reports whether err means the engine could not be reached.
func isUnavailable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection")
}

func displayName(name string) string {
	if name == "" {
		return "Completion engine"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
