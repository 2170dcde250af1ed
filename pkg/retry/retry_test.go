package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return nil
	}, OracleConfig())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		Multiplier:   2.0,
	}

	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, cfg)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		Multiplier:   2.0,
	}

	wantErr := errors.New("always fails")
	err := Do(context.Background(), func() error {
		calls++
		return wantErr
	}, cfg)

	if !errors.Is(err, wantErr) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: time.Millisecond,
		RetryIf:      IsRetryable,
	}

	err := Do(context.Background(), func() error {
		calls++
		return Permanent(errors.New("bad request"))
	}, cfg)

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("permanent error should not be retried, got %d calls", calls)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	cfg := Config{
		MaxRetries:   10,
		InitialDelay: 50 * time.Millisecond,
		Multiplier:   2.0,
	}

	err := Do(ctx, func() error {
		calls++
		if calls == 1 {
			cancel() // отменяем во время первой задержки
		}
		return errors.New("transient")
	}, cfg)

	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation took effect, got %d", calls)
	}
}

func TestDo_ContextCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, func() error {
		calls++
		return nil
	}, DefaultConfig())

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("operation should not run with cancelled context, got %d calls", calls)
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	cfg := Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
	}

	result, err := DoWithResult(context.Background(), func() (float64, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient")
		}
		return 42.5, nil
	}, cfg)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42.5 {
		t.Errorf("expected 42.5, got %v", result)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDoWithResult_ExhaustionReturnsZero(t *testing.T) {
	cfg := Config{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
	}

	result, err := DoWithResult(context.Background(), func() (float64, error) {
		return 99.0, errors.New("fail")
	}, cfg)

	if err == nil {
		t.Fatal("expected error")
	}
	if result != 0 {
		t.Errorf("expected zero value on exhaustion, got %v", result)
	}
}

func TestCalculateDelay_ExponentialGrowth(t *testing.T) {
	cfg := Config{
		InitialDelay: time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		JitterFactor: 0, // без jitter для детерминизма
	}
	cfg.validate()

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}

	for _, tt := range tests {
		delay := cfg.calculateDelay(tt.attempt)
		if delay != tt.expected {
			t.Errorf("calculateDelay(%d) = %v, want %v", tt.attempt, delay, tt.expected)
		}
	}
}

func TestCalculateDelay_CappedAtMax(t *testing.T) {
	cfg := Config{
		InitialDelay: time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0,
	}
	cfg.validate()

	delay := cfg.calculateDelay(10)
	if delay != 5*time.Second {
		t.Errorf("delay should be capped at MaxDelay, got %v", delay)
	}
}

func TestCalculateDelay_JitterBounds(t *testing.T) {
	cfg := Config{
		InitialDelay: time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
	cfg.validate()

	// При ±10% jitter задержка первой попытки лежит в [0.9s, 1.1s]
	for i := 0; i < 100; i++ {
		delay := cfg.calculateDelay(0)
		if delay < 900*time.Millisecond || delay > 1100*time.Millisecond {
			t.Fatalf("delay %v outside jitter bounds [0.9s, 1.1s]", delay)
		}
	}
}

func TestOracleConfig(t *testing.T) {
	cfg := OracleConfig()

	if cfg.MaxRetries != 3 {
		t.Errorf("expected 3 attempts, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay != time.Second {
		t.Errorf("expected 1s initial delay, got %v", cfg.InitialDelay)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("expected multiplier 2.0, got %v", cfg.Multiplier)
	}
}

func TestOnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
		},
	}

	Do(context.Background(), func() error {
		return errors.New("fail")
	}, cfg)

	// Callback вызывается перед каждым retry, но не после последней попытки
	if len(attempts) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(attempts))
	}
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("unexpected attempt numbers: %v", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), true},
		{"permanent", Permanent(errors.New("boom")), false},
		{"temporary", Temporary(errors.New("boom")), true},
		{"wrapped permanent", errors.Join(errors.New("ctx"), Permanent(errors.New("boom"))), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryIfNotContext(t *testing.T) {
	if RetryIfNotContext(context.Canceled) {
		t.Error("context.Canceled should not be retryable")
	}
	if RetryIfNotContext(context.DeadlineExceeded) {
		t.Error("context.DeadlineExceeded should not be retryable")
	}
	if !RetryIfNotContext(errors.New("network")) {
		t.Error("ordinary errors should be retryable")
	}
}

func TestPermanentTemporary_NilPassthrough(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
	if Temporary(nil) != nil {
		t.Error("Temporary(nil) should be nil")
	}
}

func TestWrapperUnwrap(t *testing.T) {
	base := errors.New("base")

	if !errors.Is(Permanent(base), base) {
		t.Error("Permanent should unwrap to base error")
	}
	if !errors.Is(Temporary(base), base) {
		t.Error("Temporary should unwrap to base error")
	}
}
