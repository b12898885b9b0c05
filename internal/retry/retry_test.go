package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("connection refused")

func isTransient(err error) bool {
	return errors.Is(err, errTransient)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg:  Config{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second, ExponentialBase: 2},
		},
		{
			name: "zero delays allowed",
			cfg:  Config{MaxAttempts: 1, ExponentialBase: 1},
		},
		{
			name:    "max attempts below one",
			cfg:     Config{MaxAttempts: 0, ExponentialBase: 2},
			wantErr: true,
		},
		{
			name:    "negative base delay",
			cfg:     Config{MaxAttempts: 3, BaseDelay: -time.Second, ExponentialBase: 2},
			wantErr: true,
		},
		{
			name:    "negative max delay",
			cfg:     Config{MaxAttempts: 3, MaxDelay: -time.Second, ExponentialBase: 2},
			wantErr: true,
		},
		{
			name:    "exponential base below one",
			cfg:     Config{MaxAttempts: 3, ExponentialBase: 0.5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	if _, err := New(0, time.Second, time.Minute, 2, true); err == nil {
		t.Fatal("expected error for zero max attempts")
	}

	cfg, err := New(5, time.Second, time.Minute, 2, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxAttempts != 5 {
		t.Fatalf("expected max attempts 5, got %d", cfg.MaxAttempts)
	}
}

func TestDelayWithoutJitter(t *testing.T) {
	t.Parallel()

	cfg := Config{
		MaxAttempts:     5,
		BaseDelay:       time.Second,
		MaxDelay:        5 * time.Second,
		ExponentialBase: 2,
	}

	tests := []struct {
		attempt int
		expect  time.Duration
	}{
		{attempt: 0, expect: time.Second},
		{attempt: 1, expect: 2 * time.Second},
		{attempt: 2, expect: 4 * time.Second},
		{attempt: 3, expect: 5 * time.Second}, // capped
		{attempt: 10, expect: 5 * time.Second},
	}

	for _, tt := range tests {
		if got := cfg.Delay(tt.attempt); got != tt.expect {
			t.Fatalf("attempt %d: expected %s, got %s", tt.attempt, tt.expect, got)
		}
	}
}

func TestDelayJitterSpread(t *testing.T) {
	cfg := Config{
		MaxAttempts:     3,
		BaseDelay:       time.Second,
		MaxDelay:        time.Hour,
		ExponentialBase: 2,
		Jitter:          true,
	}

	seen := make(map[time.Duration]struct{})
	for i := 0; i < 100; i++ {
		delay := cfg.Delay(1)
		if delay < time.Second || delay >= 3*time.Second {
			t.Fatalf("jittered delay %s outside [1s, 3s)", delay)
		}
		seen[delay] = struct{}{}
	}

	if len(seen) < 2 {
		t.Fatalf("expected spread of jittered delays, got %d distinct value(s)", len(seen))
	}
}

func TestDelayJitterAppliedBeforeCap(t *testing.T) {
	original := randFloat
	randFloat = func() float64 { return 0.999 }
	defer func() { randFloat = original }()

	cfg := Config{
		MaxAttempts:     3,
		BaseDelay:       time.Second,
		MaxDelay:        time.Second,
		ExponentialBase: 2,
		Jitter:          true,
	}

	// Jitter pushes the raw delay above the cap; the cap must win.
	if got := cfg.Delay(0); got != time.Second {
		t.Fatalf("expected capped delay 1s, got %s", got)
	}
}

func TestDoFirstTrySuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	result, err := Do(context.Background(), DefaultConfig(), nil, isTransient, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Fatalf("unexpected result: %q", result)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	cfg := Config{MaxAttempts: 3, BaseDelay: time.Millisecond, ExponentialBase: 2}

	calls := 0
	result, err := Do(context.Background(), cfg, nil, isTransient, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "recovered" {
		t.Fatalf("unexpected result: %q", result)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustionReturnsLastError(t *testing.T) {
	t.Parallel()

	cfg := Config{MaxAttempts: 3, BaseDelay: time.Millisecond, ExponentialBase: 2}

	calls := 0
	_, err := Do(context.Background(), cfg, nil, isTransient, func(context.Context) (string, error) {
		calls++
		return "", errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected the original transient error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoNonRetryablePropagatesImmediately(t *testing.T) {
	t.Parallel()

	fatal := errors.New("invalid request")

	calls := 0
	_, err := Do(context.Background(), DefaultConfig(), nil, isTransient, func(context.Context) (string, error) {
		calls++
		return "", fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoCanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	cfg := Config{MaxAttempts: 3, BaseDelay: time.Minute, ExponentialBase: 2}

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Do(ctx, cfg, nil, isTransient, func(context.Context) (string, error) {
		calls++
		cancel()
		return "", errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no attempt after cancellation, got %d calls", calls)
	}
}
