package transport

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{-1, 1 * time.Second},
	}

	for _, tt := range tests {
		tt := tt
		if got := backoffDelay(time.Second, tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(1s, %d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffDelay_ShiftCapped(t *testing.T) {
	t.Parallel()

	capped := backoffDelay(time.Second, maxBackoffShift)
	if got := backoffDelay(time.Second, 1000); got != capped {
		t.Errorf("backoffDelay(1s, 1000) = %v, want capped %v", got, capped)
	}
	if capped <= 0 {
		t.Errorf("capped delay should stay positive, got %v", capped)
	}
}

func TestSleepContext_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepContext(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSleepContext_Elapses(t *testing.T) {
	t.Parallel()

	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"500", &ServerError{StatusCode: 500}, true},
		{"503", &ServerError{StatusCode: 503}, true},
		{"401", &ServerError{StatusCode: 401}, false},
		{"422", &ServerError{StatusCode: 422}, false},
		{"network", &NetworkError{Err: errors.New("refused")}, true},
		{"invalid response", ErrInvalidResponse, false},
		{"plain", errors.New("other"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
