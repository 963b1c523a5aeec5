package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// Limiter enforces a minimum delay between requests to the same backend.
type Limiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: backend name
	minDelay time.Duration
}

// NewLimiter creates a limiter that enforces minDelay between consecutive
// requests to the same backend.
func NewLimiter(minDelay time.Duration) *Limiter {
	return &Limiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// PerMinute returns the minimum delay that keeps a backend under rpm requests
// per minute. Zero or negative rpm disables the delay.
func PerMinute(rpm int) time.Duration {
	if rpm <= 0 {
		return 0
	}
	return time.Minute / time.Duration(rpm)
}

// Wait blocks until enough time has passed since the last request to backend.
// Returns an error if the context is cancelled while waiting.
func (r *Limiter) Wait(ctx context.Context, backend string) error {
	r.mu.Lock()
	last, ok := r.lastCall[backend]
	now := time.Now()

	if !ok {
		r.lastCall[backend] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= r.minDelay {
		r.lastCall[backend] = now
		r.mu.Unlock()
		return nil
	}

	// Reserve the next slot before releasing the lock so concurrent callers
	// queue behind each other instead of firing together.
	next := last.Add(r.minDelay)
	r.lastCall[backend] = next
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", backend, ctx.Err())
	case <-time.After(time.Until(next)):
	}

	return nil
}

// RateLimitedExtractor is a decorator that keeps keyword extraction calls
// under the backend's request quota.
type RateLimitedExtractor struct {
	inner   model.KeywordExtractor
	limiter *Limiter
	backend string
}

// NewRateLimitedExtractor wraps a KeywordExtractor with rate limiting.
// All extractors targeting the same backend should share the same limiter.
func NewRateLimitedExtractor(inner model.KeywordExtractor, limiter *Limiter, backend string) *RateLimitedExtractor {
	return &RateLimitedExtractor{
		inner:   inner,
		limiter: limiter,
		backend: backend,
	}
}

// ExtractKeywords waits for the limiter, then delegates. A wait cancelled by
// ctx is reported as an extraction failure of the whole batch.
func (e *RateLimitedExtractor) ExtractKeywords(ctx context.Context, texts []string) ([][]string, error) {
	if len(texts) == 0 {
		return [][]string{}, nil
	}
	if err := e.limiter.Wait(ctx, e.backend); err != nil {
		return nil, &model.ExtractionError{Count: len(texts), Err: err}
	}
	return e.inner.ExtractKeywords(ctx, texts)
}

// ExtractKeywordsPartial waits for the limiter, then delegates, passing the
// inner extractor's per-text failure flags through when it reports them.
func (e *RateLimitedExtractor) ExtractKeywordsPartial(ctx context.Context, texts []string) ([][]string, []bool, error) {
	if len(texts) == 0 {
		return [][]string{}, []bool{}, nil
	}
	if err := e.limiter.Wait(ctx, e.backend); err != nil {
		return nil, nil, &model.ExtractionError{Count: len(texts), Err: err}
	}
	if p, ok := e.inner.(model.PartialExtractor); ok {
		return p.ExtractKeywordsPartial(ctx, texts)
	}
	out, err := e.inner.ExtractKeywords(ctx, texts)
	if err != nil {
		return nil, nil, err
	}
	return out, make([]bool, len(out)), nil
}
