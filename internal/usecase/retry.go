package usecase

import (
	"context"
	"fmt"
	"time"
)

// Retry executes fn until it succeeds or the attempt budget is exhausted,
// sleeping the fixed delay between attempts. No backoff, no jitter. Success
// on the final allowed attempt is success. Returns the number of attempts
// performed.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) (int, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return attempt, ctx.Err()
		}
	}

	return attempts, fmt.Errorf("exhausted %d attempts: %w", attempts, lastErr)
}
