package resilience

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/iwash/pkg/places"
)

// Client decorates a places.Client with retries inside a circuit breaker.
// A call that exhausts its retries counts as one breaker failure.
type Client struct {
	next    places.Client
	policy  Policy
	breaker *Breaker
}

// NewClient wraps next. A nil breaker disables circuit breaking.
func NewClient(next places.Client, policy Policy, breaker *Breaker) *Client {
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, err error) {
			zap.L().Warn("retrying places request", zap.Int("attempt", attempt), zap.Error(err))
		}
	}
	return &Client{next: next, policy: policy, breaker: breaker}
}

// NearbySearch implements places.Client.
func (c *Client) NearbySearch(ctx context.Context, req places.NearbyRequest) (*places.NearbyResponse, error) {
	call := func(ctx context.Context) (*places.NearbyResponse, error) {
		return Do(ctx, c.policy, func(ctx context.Context) (*places.NearbyResponse, error) {
			return c.next.NearbySearch(ctx, req)
		})
	}
	if c.breaker == nil {
		return call(ctx)
	}
	return Execute(ctx, c.breaker, call)
}

// LogStateChange is an OnStateChange hook that logs breaker transitions.
func LogStateChange(from, to CircuitState) {
	zap.L().Warn("places circuit breaker state change",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
}
