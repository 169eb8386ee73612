package provider

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledProvider wraps a Provider with an outbound-call throttle so
// a burst of concurrent sessions cannot exhaust the upstream quota.
type ThrottledProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewThrottledProvider wraps p with a token-bucket throttle of
// callsPerSecond and burst. A non-positive rate disables throttling and
// returns p unchanged.
func NewThrottledProvider(p Provider, callsPerSecond float64, burst int) Provider {
	if callsPerSecond <= 0 {
		return p
	}
	if burst <= 0 {
		burst = 1
	}
	return &ThrottledProvider{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(callsPerSecond), burst),
	}
}

// Name returns the wrapped provider's name
func (t *ThrottledProvider) Name() string {
	return t.inner.Name()
}

// CreateCompletion waits for throttle capacity, then delegates.
func (t *ThrottledProvider) CreateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, NewProviderError(t.inner.Name(), ErrorCodeTimeout, err.Error(), err)
	}
	return t.inner.CreateCompletion(ctx, req)
}
