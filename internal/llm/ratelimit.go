package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

const (
	defaultBurst           = 1
	rateLimiterErrorFormat = "rate limiter error: %w"
)

// RateLimited spaces out calls to the wrapped Completer.
type RateLimited struct {
	Completer Completer
	Limiter   *rate.Limiter
}

// NewRateLimited returns completer unchanged when requestsPerSecond is not positive.
func NewRateLimited(completer Completer, requestsPerSecond float64) Completer {
	if requestsPerSecond <= 0 {
		return completer
	}
	return RateLimited{Completer: completer, Limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), defaultBurst)}
}

func (r RateLimited) Complete(ctx context.Context, request CompletionRequest) (string, error) {
	if err := r.Limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(rateLimiterErrorFormat, err)
	}
	return r.Completer.Complete(ctx, request)
}
