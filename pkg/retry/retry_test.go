package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("expected InitialDelay=100ms, got %v", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 5*time.Second {
		t.Errorf("expected MaxDelay=5s, got %v", cfg.MaxDelay)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("expected Multiplier=2.0, got %f", cfg.Multiplier)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"Connection Refused (uppercase)", errors.New("Connection Refused"), true},
		{"connection reset", errors.New("connection reset by peer"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"no such host", errors.New("no such host"), true},
		{"timeout", errors.New("context deadline exceeded: timeout"), true},
		{"i/o timeout", errors.New("i/o timeout"), true},
		{"connection timed out", errors.New("connection timed out"), true},
		{"network unreachable", errors.New("network is unreachable"), true},
		{"temporary failure", errors.New("temporary failure in name resolution"), true},
		{"too many connections", errors.New("too many connections"), true},
		{"deadlock", errors.New("deadlock detected"), true},
		{"mysql bad connection", errors.New("driver: bad connection"), true},
		{"postgres starting up", errors.New("FATAL: the database system is starting up (SQLSTATE 57P03)"), true},
		{"sqlite locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"mssql login failed", errors.New("mssql: login error: Login failed for user 'sa'."), false},
		{"auth error", errors.New("authentication failed"), false},
		{"permission denied", errors.New("permission denied"), false},
		{"syntax error", errors.New("syntax error at position 10"), false},
		{"invalid credentials", errors.New("invalid credentials"), false},
		{"not found", errors.New("table not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsRetryable(tt.err)
			if result != tt.expected {
				t.Errorf("IsRetryable(%v) = %v, expected %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestDoIfRetryable_RetryableError(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
	}

	callCount := 0
	err := DoIfRetryable(ctx, cfg, func() error {
		callCount++
		if callCount < 3 {
			return errors.New("connection timeout")
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error after retries, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestDoIfRetryable_NonRetryableError(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
	}

	expectedErr := errors.New("authentication failed")
	callCount := 0
	err := DoIfRetryable(ctx, cfg, func() error {
		callCount++
		return expectedErr
	})

	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	// Should NOT retry non-retryable errors
	if callCount != 1 {
		t.Errorf("expected 1 call (no retries), got %d", callCount)
	}
}

func TestDoIfRetryable_MaxRetriesExhausted(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{
		MaxRetries:   2,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
	}

	expectedErr := errors.New("connection refused")
	callCount := 0
	err := DoIfRetryable(ctx, cfg, func() error {
		callCount++
		return expectedErr
	})

	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	// Should retry retryable errors until max retries
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestDoIfRetryable_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{
		MaxRetries:   5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
	}

	callCount := 0

	// Cancel context after first failure
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := DoIfRetryable(ctx, cfg, func() error {
		callCount++
		return errors.New("connection timeout")
	})

	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestDoIfRetryable_NilConfig(t *testing.T) {
	ctx := context.Background()

	callCount := 0
	err := DoIfRetryable(ctx, nil, func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error with nil config, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestDoIfRetryable_Success(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
	}

	callCount := 0
	err := DoIfRetryable(ctx, cfg, func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestDoIfRetryable_EscalatesRepeatedErrorType(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{
		MaxRetries:       10,
		InitialDelay:     time.Millisecond,
		MaxDelay:         time.Millisecond,
		Multiplier:       1.0,
		MaxSameErrorType: 3,
	}

	callCount := 0
	err := DoIfRetryable(ctx, cfg, func() error {
		callCount++
		return errors.New("dial tcp: connection refused")
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls before escalation, got %d", callCount)
	}
}

func TestForConnect(t *testing.T) {
	cfg := ForConnect(5, 250*time.Millisecond)
	if cfg.MaxRetries != 5 {
		t.Errorf("expected MaxRetries=5, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay != 250*time.Millisecond {
		t.Errorf("expected InitialDelay=250ms, got %v", cfg.InitialDelay)
	}
	if cfg.MaxDelay != DefaultConfig().MaxDelay {
		t.Errorf("expected default MaxDelay, got %v", cfg.MaxDelay)
	}

	cfg = ForConnect(0, 0)
	if cfg.MaxRetries != 0 {
		t.Errorf("expected MaxRetries=0, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay != DefaultConfig().InitialDelay {
		t.Errorf("expected default InitialDelay, got %v", cfg.InitialDelay)
	}
}
