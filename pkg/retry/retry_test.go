package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var errFlaky = errors.New("flaky")

// instant returns a policy that records waits instead of sleeping.
func instant(maxAttempts int, waits *[]time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		ExpBase:     3,
		Unit:        time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		},
	}
}

func failing(k int, calls *int) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		*calls++
		if *calls <= k {
			return "", errFlaky
		}
		return "ok", nil
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	tests := []struct {
		name        string
		maxAttempts int
		failures    int
		wantWaits   []time.Duration
	}{
		{"first try", 3, 0, nil},
		{"one failure", 3, 1, []time.Duration{3 * time.Second}},
		{"k equals max attempts", 3, 3, []time.Duration{3 * time.Second, 9 * time.Second, 27 * time.Second}},
		{"zero retries no failure", 0, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var waits []time.Duration
			calls := 0
			got, err := Do(context.Background(), instant(tt.maxAttempts, &waits), failing(tt.failures, &calls))
			if err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			if got != "ok" {
				t.Errorf("Do() = %q, want %q", got, "ok")
			}
			if calls != tt.failures+1 {
				t.Errorf("calls = %d, want %d", calls, tt.failures+1)
			}
			if diff := cmp.Diff(tt.wantWaits, waits); diff != "" {
				t.Errorf("waits mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDo_AlwaysFailing(t *testing.T) {
	for _, maxAttempts := range []int{0, 1, 3, 5} {
		var waits []time.Duration
		calls := 0
		_, err := Do(context.Background(), instant(maxAttempts, &waits), failing(1000, &calls))
		if !errors.Is(err, ErrExhausted) {
			t.Fatalf("max=%d: Do() error = %v, want ErrExhausted", maxAttempts, err)
		}
		if !errors.Is(err, errFlaky) {
			t.Errorf("max=%d: Do() error does not wrap the last failure: %v", maxAttempts, err)
		}
		if calls != maxAttempts+1 {
			t.Errorf("max=%d: calls = %d, want %d", maxAttempts, calls, maxAttempts+1)
		}
		if len(waits) != maxAttempts {
			t.Errorf("max=%d: waits = %d, want %d", maxAttempts, len(waits), maxAttempts)
		}
	}
}

func TestDo_NotRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	var waits []time.Duration
	p := instant(3, &waits)
	p.Retryable = func(err error) bool { return !errors.Is(err, fatal) }

	calls := 0
	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 0, fatal
	})
	if !errors.Is(err, fatal) || errors.Is(err, ErrExhausted) {
		t.Fatalf("Do() error = %v, want fatal without ErrExhausted", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		MaxAttempts: 3,
		ExpBase:     3,
		Unit:        time.Hour,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	calls := 0
	_, err := Do(ctx, p, failing(1000, &calls))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoff(t *testing.T) {
	p := Policy{ExpBase: 2, Unit: time.Millisecond}
	want := []time.Duration{2 * time.Millisecond, 4 * time.Millisecond, 8 * time.Millisecond}
	for i, w := range want {
		if got := p.Backoff(i + 1); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}
