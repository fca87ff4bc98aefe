package helper

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Retry runs fn up to attempts times, doubling the backoff between tries.
// Returns the last error once attempts are exhausted.
func Retry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		log.Debug().
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("retrying after error")
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry canceled: %w", ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
