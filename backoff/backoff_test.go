package backoff

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConstant(t *testing.T) {
	c := NewConstant(5 * time.Second)
	for _, attempt := range []int{1, 2, 10} {
		if d := c.Delay(attempt); d != 5*time.Second {
			t.Errorf("Delay(%d) = %v, want 5s", attempt, d)
		}
	}
}

func TestExponential(t *testing.T) {
	e := NewExponential(1*time.Second, 10*time.Second)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // capped
	}

	for _, tt := range tests {
		if d := e.Delay(tt.attempt); d != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, d, tt.want)
		}
	}
}

func TestExponentialWithJitterBounds(t *testing.T) {
	e := NewExponentialWithJitter(1*time.Second, 4*time.Second)
	for attempt := 1; attempt <= 5; attempt++ {
		for range 20 {
			d := e.Delay(attempt)
			if d < 0 || d > 4*time.Second {
				t.Fatalf("Delay(%d) = %v out of [0, 4s]", attempt, d)
			}
		}
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, NewConstant(time.Millisecond), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	want := errors.New("persistent")
	calls := 0
	err := Retry(context.Background(), 3, NewConstant(time.Millisecond), func(context.Context) error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected wrapped persistent error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 5, NewConstant(time.Hour), func(context.Context) error {
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetryMinimumOneAttempt(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), 0, nil, func(context.Context) error {
		calls++
		return nil
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
