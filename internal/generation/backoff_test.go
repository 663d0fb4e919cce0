package generation

import (
	"testing"
	"time"
)

func TestRetryDelaySchedule(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1000 * time.Millisecond},
		{2, 2000 * time.Millisecond},
		{3, 4000 * time.Millisecond},
		{4, 8000 * time.Millisecond},
		{5, 10000 * time.Millisecond},
		{10, 10000 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := RetryDelay(tc.attempt); got != tc.want {
			t.Errorf("RetryDelay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestRetryDelayClampsInvalidAttempt(t *testing.T) {
	if got := RetryDelay(0); got != time.Second {
		t.Fatalf("RetryDelay(0) = %v, want 1s", got)
	}
	if got := RetryDelay(-3); got != time.Second {
		t.Fatalf("RetryDelay(-3) = %v, want 1s", got)
	}
}
