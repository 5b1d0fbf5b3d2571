package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soppliger/auteur/internal/generate"
	"github.com/soppliger/auteur/internal/volc"
)

// manualTimer fires immediately and records every requested wait.
type manualTimer struct {
	c     chan time.Time
	waits []time.Duration
}

func newManualTimer() *manualTimer {
	return &manualTimer{c: make(chan time.Time, 1)}
}

func (t *manualTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.c <- time.Now()
}

func (t *manualTimer) Stop() {}

func (t *manualTimer) C() <-chan time.Time { return t.c }

func testRetrier(maxRetries int, timer *manualTimer) *Retrier {
	return &Retrier{
		Policy: Policy{MaxRetries: maxRetries, BaseDelay: time.Second},
		Timer:  timer,
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	for k := 0; k < 3; k++ {
		timer := newManualTimer()
		r := testRetrier(3, timer)
		var notified []int
		r.Notify = func(attempt int, err error, delay time.Duration) {
			notified = append(notified, attempt)
		}

		calls := 0
		got, err := Do(context.Background(), r, "bible", func(context.Context) (string, error) {
			calls++
			if calls <= k {
				return "", errors.New("503 service unavailable")
			}
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("k=%d: Do error = %v", k, err)
		}
		if got != "ok" {
			t.Fatalf("k=%d: Do = %q", k, got)
		}
		if calls != k+1 {
			t.Fatalf("k=%d: calls = %d, want %d", k, calls, k+1)
		}
		if len(timer.waits) != k || len(notified) != k {
			t.Fatalf("k=%d: waits = %v notified = %v", k, timer.waits, notified)
		}
		for i := 1; i < len(timer.waits); i++ {
			if timer.waits[i] <= timer.waits[i-1] {
				t.Fatalf("k=%d: waits not increasing: %v", k, timer.waits)
			}
		}
	}
}

func TestDoDoublesDelay(t *testing.T) {
	timer := newManualTimer()
	r := testRetrier(3, timer)
	_, err := Do(context.Background(), r, "bible", func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("Do error = %v, want boom", err)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(timer.waits) != len(want) {
		t.Fatalf("waits = %v, want %v", timer.waits, want)
	}
	for i := range want {
		if timer.waits[i] != want[i] {
			t.Fatalf("waits = %v, want %v", timer.waits, want)
		}
	}
}

func TestDoExhaustsBudget(t *testing.T) {
	timer := newManualTimer()
	r := testRetrier(2, timer)
	calls := 0
	_, err := Do(context.Background(), r, "workflow", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("still broken")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoReturnsLastError(t *testing.T) {
	r := testRetrier(1, newManualTimer())
	calls := 0
	first := errors.New("first")
	last := errors.New("last")
	_, err := Do(context.Background(), r, "workflow", func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, first
		}
		return 0, last
	})
	if !errors.Is(err, last) {
		t.Fatalf("Do error = %v, want %v", err, last)
	}
}

func TestDoFailsFastOnAuth(t *testing.T) {
	timer := newManualTimer()
	r := testRetrier(3, timer)
	calls := 0
	authErr := &volc.APIError{StatusCode: 401, Body: "bad key"}
	_, err := Do(context.Background(), r, "bible", func(context.Context) (string, error) {
		calls++
		return "", authErr
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if len(timer.waits) != 0 {
		t.Fatalf("waits = %v, want none", timer.waits)
	}
	var apiErr *volc.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 401 {
		t.Fatalf("Do error = %v, want the auth error", err)
	}
	if !generate.IsAuth(err) {
		t.Fatal("error should still classify as auth")
	}
}

func TestDoRetriesMalformed(t *testing.T) {
	r := testRetrier(3, newManualTimer())
	calls := 0
	_, err := Do(context.Background(), r, "persona", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &generate.MalformedError{Reason: "schema mismatch"}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := testRetrier(5, newManualTimer())
	calls := 0
	_, err := Do(ctx, r, "persona", func(context.Context) (string, error) {
		calls++
		cancel()
		return "", errors.New("interrupted")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoAppliesPerAttemptTimeout(t *testing.T) {
	r := testRetrier(0, newManualTimer())
	r.Policy.Timeout = time.Minute
	_, err := Do(context.Background(), r, "artifacts", func(ctx context.Context) (int, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatal("expected a deadline on the attempt context")
		}
		return 1, nil
	})
	if err != nil {
		t.Fatalf("Do error = %v", err)
	}
}

func TestScopesAreIndependent(t *testing.T) {
	timer := newManualTimer()
	r := testRetrier(3, timer)
	for i := 0; i < 2; i++ {
		calls := 0
		_, err := Do(context.Background(), r, "persona", func(context.Context) (int, error) {
			calls++
			if calls == 1 {
				return 0, errors.New("flaky")
			}
			return 1, nil
		})
		if err != nil {
			t.Fatalf("Do error = %v", err)
		}
	}
	want := []time.Duration{time.Second, time.Second}
	if len(timer.waits) != 2 || timer.waits[0] != want[0] || timer.waits[1] != want[1] {
		t.Fatalf("waits = %v, want %v", timer.waits, want)
	}
}

func TestDoKeepsRetryCountWithDefaultDelays(t *testing.T) {
	tests := []struct {
		maxRetries int
		wantCalls  int
		wantWaits  []time.Duration
	}{
		{maxRetries: 0, wantCalls: 1},
		{maxRetries: 1, wantCalls: 2, wantWaits: []time.Duration{time.Second}},
	}
	for _, tt := range tests {
		timer := newManualTimer()
		r := &Retrier{Policy: Policy{MaxRetries: tt.maxRetries}, Timer: timer}
		calls := 0
		_, err := Do(context.Background(), r, "bible", func(context.Context) (string, error) {
			calls++
			return "", errors.New("503 service unavailable")
		})
		if err == nil {
			t.Fatalf("MaxRetries=%d: expected error", tt.maxRetries)
		}
		if calls != tt.wantCalls {
			t.Fatalf("MaxRetries=%d: calls = %d, want %d", tt.maxRetries, calls, tt.wantCalls)
		}
		if len(timer.waits) != len(tt.wantWaits) {
			t.Fatalf("MaxRetries=%d: waits = %v, want %v", tt.maxRetries, timer.waits, tt.wantWaits)
		}
		for i, w := range tt.wantWaits {
			if timer.waits[i] != w {
				t.Fatalf("MaxRetries=%d: wait %d = %v, want %v", tt.maxRetries, i, timer.waits[i], w)
			}
		}
	}
}
