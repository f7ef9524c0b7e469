package llm

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
)

// RateLimitedClient wraps any LLMClient with a token-bucket limiter.
// Generate blocks until the limiter admits the call or the context is
// cancelled, so hosted backends never see request bursts.
type RateLimitedClient struct {
	inner   LLMClient
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps inner with a limiter of requestsPerSecond
// sustained rate and the given burst size. burst values below 1 are
// raised to 1 so the limiter can admit at least one call.
func NewRateLimitedClient(inner LLMClient, requestsPerSecond float64, burst int) *RateLimitedClient {
	if burst < 1 {
		burst = 1
	}
	slog.Info("Rate limiting LLM client", "requests_per_second", requestsPerSecond, "burst", burst)
	return &RateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Generate implements the LLMClient interface
func (c *RateLimitedClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter rejected request: %w", err)
	}
	return c.inner.Generate(ctx, prompt, params)
}
