// Package retry provides exponential backoff with jitter for transient
// failures encountered while talking to the remote AI service. It covers
// single-shot operations (Do) and streamed responses (Stream), where only
// the setup phase of a stream may be retried.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/groundedcv/groundedcv/internal/utils"
)

// Config controls retry behavior for a single logical operation.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int `mapstructure:"max-attempts"`
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration `mapstructure:"base-delay"`
	// MaxDelay caps the computed delay, after jitter.
	MaxDelay time.Duration `mapstructure:"max-delay"`
	// ExponentialBase is the growth factor between retries.
	ExponentialBase float64 `mapstructure:"exponential-base"`
	// Jitter randomizes each delay within [0.5x, 1.5x) before capping.
	Jitter bool `mapstructure:"jitter"`
}

// DefaultConfig returns the retry defaults: 3 attempts, 1s base delay,
// 30s cap, doubling between attempts, jitter enabled.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     3,
		BaseDelay:       time.Second,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2,
		Jitter:          true,
	}
}

// New builds a Config and validates it immediately, so that invalid
// settings fail at construction rather than at the first failed call.
func New(maxAttempts int, baseDelay, maxDelay time.Duration, exponentialBase float64, jitter bool) (Config, error) {
	cfg := Config{
		MaxAttempts:     maxAttempts,
		BaseDelay:       baseDelay,
		MaxDelay:        maxDelay,
		ExponentialBase: exponentialBase,
		Jitter:          jitter,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be >= 1, got %d", c.MaxAttempts)
	}
	if c.BaseDelay < 0 {
		return fmt.Errorf("base delay must be >= 0, got %s", c.BaseDelay)
	}
	if c.MaxDelay < 0 {
		return fmt.Errorf("max delay must be >= 0, got %s", c.MaxDelay)
	}
	if c.ExponentialBase < 1 {
		return fmt.Errorf("exponential base must be >= 1, got %g", c.ExponentialBase)
	}
	return nil
}

// randFloat is swapped out in tests to make jitter deterministic.
var randFloat = rand.Float64

// Delay computes the backoff before the next attempt. The attempt index is
// 0-based: Delay(0) is the wait after the first failure. Jitter is applied
// before the MaxDelay cap so jittered values are still truncated by it.
func (c Config) Delay(attempt int) time.Duration {
	delay := float64(c.BaseDelay) * math.Pow(c.ExponentialBase, float64(attempt))
	if c.Jitter {
		delay *= 0.5 + randFloat()
	}
	if cap := float64(c.MaxDelay); delay > cap {
		delay = cap
	}
	return time.Duration(delay)
}

// Do executes op up to cfg.MaxAttempts times, retrying only errors accepted
// by the retryable predicate. Errors the predicate rejects propagate
// immediately without consuming remaining attempts. After exhaustion the
// last error is returned unchanged. Backoff waits are canceled by the
// context, in which case ctx.Err() is returned and no further attempt is
// started.
func Do[T any](ctx context.Context, cfg Config, logger *zap.Logger, retryable func(error) bool, op func(context.Context) (T, error)) (T, error) {
	var zero T

	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if retryable == nil || !retryable(err) {
			return zero, err
		}

		lastErr = err
		if attempt < cfg.MaxAttempts-1 {
			delay := cfg.Delay(attempt)
			logger.Warn("transient failure, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", cfg.MaxAttempts),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			if waitErr := utils.WaitFor(ctx, delay); waitErr != nil {
				return zero, waitErr
			}
		}
	}

	return zero, lastErr
}
