package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"

	"github.com/sells-group/iwash/pkg/places"
)

// IsTransient reports whether a places call that failed with err may
// succeed if repeated: throttling and server-side HTTP statuses, network
// timeouts and dropped connections. Cancellation and a missing API key are
// never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, places.ErrNoAPIKey) || errors.Is(err, ErrCircuitOpen) {
		return false
	}

	var httpErr *places.HTTPError
	if errors.As(err, &httpErr) {
		return IsTransientHTTPStatus(httpErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}

// IsTransientHTTPStatus reports whether an HTTP status is worth retrying.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
