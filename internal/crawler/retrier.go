package crawler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/metrics"
)

// Attempt performs one fetch-and-validate pass. attempt is 1-based.
type Attempt func(ctx context.Context, attempt int) error

// Retrier runs attempts under a RetryPolicy.
type Retrier struct {
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetrier builds a Retrier that sleeps on the wall clock.
func NewRetrier(logger *zap.Logger) *Retrier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{logger: logger, sleep: sleepContext}
}

// Do runs op until it succeeds, the policy gives up, or ctx is canceled.
// Exhaustion yields a *FetchExhausted wrapping the last failure.
func (r *Retrier) Do(ctx context.Context, rawURL string, profile PageProfile, op Attempt) error {
	policy := profile.Retry
	var lastErr error
	attempt := 0
	for {
		attempt++
		metrics.ObserveFetchAttempt(profile.Name)
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("fetch %s canceled: %w", rawURL, ctx.Err())
		}
		r.logger.Warn("attempt failed",
			zap.String("profile", profile.Name),
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", policy.attempts()),
			zap.Error(lastErr),
		)
		if !policy.ShouldRetry(lastErr, attempt) {
			break
		}
		delay := policy.Backoff(attempt)
		metrics.ObserveRetry(profile.Name, delay)
		r.logger.Info("waiting before retry",
			zap.String("url", rawURL),
			zap.Duration("delay", delay),
		)
		if err := r.sleep(ctx, delay); err != nil {
			return fmt.Errorf("fetch %s canceled during backoff: %w", rawURL, err)
		}
	}
	return &FetchExhausted{URL: rawURL, Attempts: attempt, Last: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
