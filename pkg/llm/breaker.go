package llm

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerGenerator wraps a Generator with a circuit breaker so a flapping
// LLM endpoint degrades fast instead of stalling every request. Open-circuit
// errors surface as ordinary generation errors; callers already treat those
// as a degradable external failure.
type BreakerGenerator struct {
	inner   Generator
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerGenerator wraps inner with default breaker settings: trip after
// 5 consecutive failures, retry after 30 seconds.
func NewBreakerGenerator(inner Generator) *BreakerGenerator {
	return &BreakerGenerator{
		inner: inner,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "llm-generator",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Generate implements Generator.
func (b *BreakerGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Generate(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Stream implements Generator. Only stream establishment trips the breaker;
// mid-stream errors are delivered on the channel as usual.
func (b *BreakerGenerator) Stream(ctx context.Context, req GenerateRequest) (<-chan StreamChunk, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Stream(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(<-chan StreamChunk), nil
}

// Close implements Generator.
func (b *BreakerGenerator) Close() error { return b.inner.Close() }
