package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/iwash/internal/config"
	"github.com/sells-group/iwash/pkg/places"
)

// ErrCancelled matches every CancelledError with errors.Is.
var ErrCancelled = eris.New("search: cancelled")

// RemoteError reports a non-success status from the places service.
type RemoteError struct {
	Status  string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("search: remote status %s", e.Status)
	}
	return fmt.Sprintf("search: remote status %s: %s", e.Status, e.Message)
}

// NetworkError reports a transport failure talking to the places service.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "search: network: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// CancelledError reports a search stopped by its context. Cause is the
// context cancellation cause.
type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	if e.Cause == nil {
		return "search: cancelled"
	}
	return "search: cancelled: " + e.Cause.Error()
}

// Is makes errors.Is(err, ErrCancelled) hold for every CancelledError.
func (e *CancelledError) Is(target error) bool { return target == ErrCancelled }

func (e *CancelledError) Unwrap() error { return e.Cause }

// Outcome labels an error for metrics and API responses.
func Outcome(err error) string {
	var (
		remote  *RemoteError
		network *NetworkError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case config.IsConfigError(err):
		return "config_error"
	case errors.As(err, &remote):
		return "remote_error"
	case errors.As(err, &network):
		return "network_error"
	default:
		return "error"
	}
}

func cancelled(ctx context.Context) error {
	return &CancelledError{Cause: context.Cause(ctx)}
}

// classifyFetchErr maps a places client error onto the search error taxonomy.
func classifyFetchErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return cancelled(ctx)
	}
	if errors.Is(err, places.ErrNoAPIKey) {
		return config.Missing("places.key")
	}
	var httpErr *places.HTTPError
	if errors.As(err, &httpErr) {
		return &RemoteError{Status: fmt.Sprintf("HTTP_%d", httpErr.StatusCode), Message: httpErr.Body}
	}
	return &NetworkError{Err: err}
}
