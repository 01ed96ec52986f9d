// Package ratelimit provides the quota-aware token-bucket limiter and
// retry-with-backoff helper used by the Gmail client.
package ratelimit

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Class identifies a rate-limited operation category.
type Class string

const (
	ClassRead  Class = "gmail_api_read"
	ClassWrite Class = "gmail_api_write"
)

// Limiter wraps one token bucket per operation class. Reads cost one token;
// writes, batches and modify operations cost proportionally to their size.
type Limiter struct {
	buckets map[Class]*rate.Limiter
}

// Config configures the token buckets per class.
type Config struct {
	ReadTokensPerSecond  float64
	WriteTokensPerSecond float64
	Burst                int
}

// New builds a Limiter with one bucket per class.
func New(cfg Config) *Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Limiter{
		buckets: map[Class]*rate.Limiter{
			ClassRead:  rate.NewLimiter(rate.Limit(cfg.ReadTokensPerSecond), cfg.Burst),
			ClassWrite: rate.NewLimiter(rate.Limit(cfg.WriteTokensPerSecond), cfg.Burst),
		},
	}
}

// Wait blocks until n tokens of the given class are available or ctx is done.
func (l *Limiter) Wait(ctx context.Context, class Class, n int) error {
	b, ok := l.buckets[class]
	if !ok || n <= 0 {
		return nil
	}
	// WaitN rejects a cost above the burst size, so larger costs are taken
	// in burst-sized pieces.
	for n > 0 {
		k := n
		if burst := b.Burst(); k > burst {
			k = burst
		}
		if err := b.WaitN(ctx, k); err != nil {
			return err
		}
		n -= k
	}
	return nil
}

// RetryPolicy configures the exponential-backoff-with-jitter schedule:
// delays min(2^k * baseDelay + U[0, jitterMax], capDelay) for up to MaxRetries.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	JitterMax  time.Duration
	CapDelay   time.Duration
}

// DefaultRetryPolicy matches the design's defaults: max_retries=3,
// 250ms base, up to 250ms jitter, capped at 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  250 * time.Millisecond,
		JitterMax:  250 * time.Millisecond,
		CapDelay:   8 * time.Second,
	}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	backoff := p.BaseDelay << uint(attempt)
	jitter := time.Duration(rand.Int63n(int64(p.JitterMax) + 1))
	d := backoff + jitter
	if d > p.CapDelay {
		d = p.CapDelay
	}
	return d
}

// Retry runs fn up to policy.MaxRetries+1 times. shouldRetry decides whether
// a given error is worth retrying (the caller supplies this so the policy
// stays agnostic of the surface error taxonomy, see gmailerr.Retryable).
// Retry never retries after fn has already returned a nil error, and it
// never retries once ctx is done.
func Retry(ctx context.Context, policy RetryPolicy, shouldRetry func(error) bool, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !shouldRetry(err) || attempt >= policy.MaxRetries {
			return err
		}
		select {
		case <-time.After(policy.delay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
