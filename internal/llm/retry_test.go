package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2,
	}
}

// newTestRetry wraps p without real sleeps and records requested waits.
func newTestRetry(p Provider, cfg RetryConfig) (*RetryProvider, *[]time.Duration) {
	r := WithRetry(p, cfg).(*RetryProvider)
	var waits []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return r, &waits
}

func down() error { return &UnavailableError{Err: errors.New("down")} }

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"ok":true}`)})
	p, waits := newTestRetry(mock, retryConfig())

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.CallCount() != 1 || len(*waits) != 0 {
		t.Fatalf("calls = %d, waits = %v", mock.CallCount(), *waits)
	}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: down()},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p, waits := newTestRetry(mock, retryConfig())

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Errorf("content = %s", resp.Content)
	}
	if mock.CallCount() != 2 || len(*waits) != 1 {
		t.Fatalf("calls = %d, waits = %v", mock.CallCount(), *waits)
	}
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: down()},
		MockResponse{Err: down()},
		MockResponse{Err: down()},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	p, _ := newTestRetry(mock, retryConfig())

	_, err := p.Generate(context.Background(), Request{})
	var un *UnavailableError
	if !errors.As(err, &un) {
		t.Fatalf("expected UnavailableError, got %T (%v)", err, err)
	}
	if mock.CallCount() != 3 {
		t.Errorf("calls = %d, want 3", mock.CallCount())
	}
}

func TestRetry_InvalidResponseRetriedOnce(t *testing.T) {
	bad := func() error { return &InvalidResponseError{Err: errors.New("bad")} }
	mock := NewMockProvider(
		MockResponse{Err: bad()},
		MockResponse{Err: bad()},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	p, _ := newTestRetry(mock, retryConfig())

	_, err := p.Generate(context.Background(), Request{})
	var inv *InvalidResponseError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidResponseError, got %T (%v)", err, err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("calls = %d, want 2", mock.CallCount())
	}
}

func TestRetry_NonRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"truncated", &TruncatedError{}},
		{"canceled", context.Canceled},
		{"deadline", &UnavailableError{Err: context.DeadlineExceeded}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(MockResponse{Err: tt.err}, MockResponse{Content: json.RawMessage(`{}`)})
			p, _ := newTestRetry(mock, retryConfig())

			if _, err := p.Generate(context.Background(), Request{}); err == nil {
				t.Fatal("expected error")
			}
			if mock.CallCount() != 1 {
				t.Errorf("calls = %d, want 1", mock.CallCount())
			}
		})
	}
}

func TestRetry_HonorsRetryAfter(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &RateLimitError{RetryAfter: 7 * time.Second, Err: errors.New("slow down")}},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	p, waits := newTestRetry(mock, retryConfig())

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*waits) != 1 || (*waits)[0] != 7*time.Second {
		t.Errorf("waits = %v, want [7s]", *waits)
	}
}

func TestRetry_ContextCancelledDuringWait(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: down()}, MockResponse{Content: json.RawMessage(`{}`)})
	p, _ := newTestRetry(mock, retryConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d, want 1", mock.CallCount())
	}
}

func TestRetry_BackoffCapped(t *testing.T) {
	r := WithRetry(NewMockProvider(), RetryConfig{
		MaxAttempts: 5,
		InitialWait: 100 * time.Millisecond,
		MaxWait:     250 * time.Millisecond,
	}).(*RetryProvider)

	for attempt, want := range []time.Duration{100, 200, 250, 250} {
		want *= time.Millisecond
		got := r.wait(attempt, down())
		lo, hi := time.Duration(float64(want)*0.8), time.Duration(float64(want)*1.2)
		if got < lo || got > hi {
			t.Errorf("attempt %d: wait = %v, want within [%v, %v]", attempt, got, lo, hi)
		}
	}
}

func TestWithRetry_NormalizesConfig(t *testing.T) {
	r := WithRetry(NewMockProvider(), RetryConfig{}).(*RetryProvider)
	if r.cfg.MaxAttempts != 1 || r.cfg.Multiplier != 2 {
		t.Errorf("cfg = %+v", r.cfg)
	}
}
