package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talent-sourcer/internal/utils"
)

// withRetry runs op up to attempts times with exponential backoff between
// tries. Each attempt gets its own timeout when one is configured. Context
// cancellation aborts immediately.
func withRetry(ctx context.Context, logger *zap.Logger, name string, attempts int, backoff, timeout time.Duration, op func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	wait := backoff
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		}

		err := op(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		logger.Warn("operation failed, retrying",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		if err := utils.WaitFor(ctx, wait); err != nil {
			return err
		}
		wait *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
