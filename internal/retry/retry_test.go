package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func recordingPolicy(attempts int, base time.Duration, delays *[]time.Duration) Policy {
	return Policy{
		Attempts: attempts,
		Base:     base,
		Sleep: func(_ context.Context, d time.Duration) error {
			*delays = append(*delays, d)
			return nil
		},
	}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		failures int
		want     []time.Duration
	}{
		{name: "first try", failures: 0, want: nil},
		{name: "one failure", failures: 1, want: []time.Duration{time.Second}},
		{name: "two failures", failures: 2, want: []time.Duration{time.Second, 2 * time.Second}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var delays []time.Duration
			calls := 0
			got, err := Do(context.Background(), recordingPolicy(3, time.Second, &delays), func(context.Context) (string, error) {
				calls++
				if calls <= tt.failures {
					return "", errors.New("transient")
				}
				return "ok", nil
			})
			if err != nil {
				t.Fatalf("Do error: %v", err)
			}
			if got != "ok" {
				t.Fatalf("Do = %q, want %q", got, "ok")
			}
			if calls != tt.failures+1 {
				t.Fatalf("calls = %d, want %d", calls, tt.failures+1)
			}
			if len(delays) != len(tt.want) {
				t.Fatalf("delays = %v, want %v", delays, tt.want)
			}
			for i := range tt.want {
				if delays[i] != tt.want[i] {
					t.Fatalf("delay[%d] = %v, want %v", i, delays[i], tt.want[i])
				}
			}
		})
	}
}

func TestDoPropagatesFinalError(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	sentinel := errors.New("quota exceeded")
	calls := 0
	_, err := Do(context.Background(), recordingPolicy(3, 100*time.Millisecond, &delays), func(context.Context) (int, error) {
		calls++
		return 0, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want %v", err, sentinel)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, Policy{Attempts: 3, Base: time.Millisecond}, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
