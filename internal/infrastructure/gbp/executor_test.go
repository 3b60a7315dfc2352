package gbp

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/memcache"
)

type countingThrottler struct{ calls int }

func (t *countingThrottler) Throttle(ctx context.Context) error {
	t.calls++
	return nil
}

func testPolicy() RetryPolicy {
	p := DefaultRetryPolicy()
	p.BaseDelay = time.Millisecond
	p.MaxDelay = 8 * time.Millisecond
	return p
}

func newTestExecutor(cache *memcache.Store) (*Executor, *countingThrottler, *[]time.Duration) {
	throttler := &countingThrottler{}
	var ex *Executor
	if cache != nil {
		ex = NewExecutor(cache, throttler, testPolicy(), nil)
	} else {
		ex = NewExecutor(nil, throttler, testPolicy(), nil)
	}
	delays := &[]time.Duration{}
	ex.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	ex.jitter = func() float64 { return 0.5 }
	return ex, throttler, delays
}

func TestRetryableFailureExhaustsAllAttempts(t *testing.T) {
	ex, throttler, _ := newTestExecutor(nil)

	calls := 0
	_, err := Do(context.Background(), ex, "listReviews", "", 0, func(ctx context.Context) (int, error) {
		calls++
		return 0, &gbp.UpstreamError{Kind: gbp.ErrRateLimited, HTTPStatus: 429, Message: "quota"}
	})
	if err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	want := testPolicy().MaxRetries + 1
	if calls != want {
		t.Fatalf("expected %d calls, got %d", want, calls)
	}
	if throttler.calls != want {
		t.Fatalf("every attempt must consume a throttle slot: got %d, want %d", throttler.calls, want)
	}
	if !gbp.IsKind(err, gbp.ErrRateLimited) {
		t.Fatalf("last error must be surfaced, got %v", err)
	}
}

func TestNonRetryableFailureCalledOnce(t *testing.T) {
	ex, _, delays := newTestExecutor(nil)

	calls := 0
	_, err := Do(context.Background(), ex, "getLocation", "", 0, func(ctx context.Context) (int, error) {
		calls++
		return 0, &gbp.UpstreamError{Kind: gbp.ErrNotFound, HTTPStatus: 404, Message: "gone"}
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("404 must not be retried: got %d calls", calls)
	}
	if len(*delays) != 0 {
		t.Fatalf("no backoff sleeps expected, got %v", *delays)
	}
}

func TestNetworkResetIsRetried(t *testing.T) {
	ex, _, _ := newTestExecutor(nil)

	calls := 0
	result, err := Do(context.Background(), ex, "listLocations", "", 0, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", syscall.ECONNRESET
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if result != "ok" || calls != 3 {
		t.Fatalf("expected success on third call, got %q after %d calls", result, calls)
	}
}

func TestBackoffGrowsAndIsCapped(t *testing.T) {
	ex, _, delays := newTestExecutor(nil)
	ex.policy = RetryPolicy{
		MaxRetries:        5,
		BaseDelay:         time.Millisecond,
		MaxDelay:          8 * time.Millisecond,
		RetryableStatuses: map[int]struct{}{503: {}},
	}

	_, _ = Do(context.Background(), ex, "op", "", 0, func(ctx context.Context) (int, error) {
		return 0, &gbp.UpstreamError{Kind: gbp.ErrUnknown, HTTPStatus: 503, Message: "flaky"}
	})

	if len(*delays) != 5 {
		t.Fatalf("expected 5 backoff sleeps, got %d", len(*delays))
	}
	for i, d := range *delays {
		if d > ex.policy.MaxDelay {
			t.Fatalf("delay %d exceeds cap: %v", i, d)
		}
		if i > 0 && d < (*delays)[i-1] {
			t.Fatalf("delays must be non-decreasing: %v", *delays)
		}
	}
}

func TestSuccessfulResultIsCached(t *testing.T) {
	cache := memcache.New(0)
	ex, _, _ := newTestExecutor(cache)

	calls := 0
	op := func(ctx context.Context) (string, error) {
		calls++
		return "payload", nil
	}

	for i := 0; i < 3; i++ {
		got, err := Do(context.Background(), ex, "listReviews", "reviews:loc:10:", time.Minute, op)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "payload" {
			t.Fatalf("unexpected result %q", got)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one upstream call, got %d", calls)
	}
}

func TestFailedCallNeverPopulatesCache(t *testing.T) {
	cache := memcache.New(0)
	ex, _, _ := newTestExecutor(cache)

	_, err := Do(context.Background(), ex, "listReviews", "reviews:loc:10:", time.Minute, func(ctx context.Context) (string, error) {
		return "", &gbp.UpstreamError{Kind: gbp.ErrNotFound, HTTPStatus: 404, Message: "gone"}
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if cache.Stats().Size != 0 {
		t.Fatalf("failed attempt must not populate the cache")
	}
}

func TestContextCancelledStopsRetrying(t *testing.T) {
	ex, _, _ := newTestExecutor(nil)
	ex.sleep = sleepContext // real sleep so cancellation is observed

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, ex, "op", "", 0, func(ctx context.Context) (int, error) {
			calls++
			if calls == 1 {
				cancel()
			}
			return 0, &gbp.UpstreamError{Kind: gbp.ErrUnknown, HTTPStatus: 503, Message: "flaky"}
		})
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("executor did not observe cancellation")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt before cancellation, got %d", calls)
	}
}
