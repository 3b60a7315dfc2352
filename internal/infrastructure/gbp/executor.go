package gbp

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
	"github.com/reviewdeck/reviewdeck/internal/core/ports"
)

// RetryPolicy governs the executor's attempt loop. Immutable after
// construction.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt, so an
	// always-failing retryable operation runs MaxRetries+1 times.
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RetryableStatuses map[int]struct{}
}

// DefaultRetryPolicy matches the fixed production defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   8 * time.Second,
		RetryableStatuses: map[int]struct{}{
			429: {}, 500: {}, 502: {}, 503: {}, 504: {},
		},
	}
}

// retryable classifies an error as transient. A definite non-retryable HTTP
// answer (400, 404, ...) short-circuits; network resets and timeouts retry.
func (p RetryPolicy) retryable(err error) bool {
	var ue *gbp.UpstreamError
	if errors.As(err, &ue) && ue.HTTPStatus != 0 {
		_, ok := p.RetryableStatuses[ue.HTTPStatus]
		return ok
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF)
}

// backoff returns the delay before the given retry (1-based), exponential
// with 10% jitter, capped at MaxDelay.
func (p RetryPolicy) backoff(retry int, jitter float64) time.Duration {
	delay := p.BaseDelay << (retry - 1)
	delay += time.Duration(float64(delay) * 0.1 * jitter)
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Executor wraps a single upstream operation with cache lookup, rate-limit
// wait, retry with backoff, and cache population. Identical concurrent cached
// calls are coalesced so only one hits upstream.
type Executor struct {
	cache     ports.TTLCache
	throttler ports.Throttler
	policy    RetryPolicy
	logger    *logrus.Logger
	sf        singleflight.Group
	sleep     func(ctx context.Context, d time.Duration) error
	jitter    func() float64
}

// NewExecutor creates an Executor. cache may be nil to disable caching
// entirely.
func NewExecutor(cache ports.TTLCache, throttler ports.Throttler, policy RetryPolicy, logger *logrus.Logger) *Executor {
	return &Executor{
		cache:     cache,
		throttler: throttler,
		policy:    policy,
		logger:    logger,
		sleep:     sleepContext,
		jitter:    rand.Float64,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs op through the executor pipeline. With a non-empty cacheKey the
// result of a successful call is cached for ttl, and concurrent callers for
// the same key share one upstream call. A failed final attempt never
// populates the cache; the last error is always the one surfaced.
func Do[T any](ctx context.Context, ex *Executor, name, cacheKey string, ttl time.Duration, op func(context.Context) (T, error)) (T, error) {
	var zero T

	wrapped := func(ctx context.Context) (any, error) { return op(ctx) }

	if cacheKey == "" || ex.cache == nil {
		res, err := ex.run(ctx, name, wrapped)
		if err != nil {
			return zero, err
		}
		return res.(T), nil
	}

	if v, ok := ex.cache.Get(cacheKey); ok {
		upstreamCacheHits.WithLabelValues(name).Inc()
		return v.(T), nil
	}

	res, err, _ := ex.sf.Do(cacheKey, func() (any, error) {
		// a concurrent caller may have populated the cache while we waited
		if v, ok := ex.cache.Get(cacheKey); ok {
			upstreamCacheHits.WithLabelValues(name).Inc()
			return v, nil
		}
		v, err := ex.run(ctx, name, wrapped)
		if err != nil {
			return nil, err
		}
		ex.cache.Set(cacheKey, v, ttl)
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}

// run is the attempt loop: throttle, invoke, classify, back off, repeat.
func (ex *Executor) run(ctx context.Context, name string, op func(context.Context) (any, error)) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= ex.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := ex.policy.backoff(attempt, ex.jitter())
			upstreamRetries.WithLabelValues(name).Inc()
			if ex.logger != nil {
				ex.logger.WithFields(logrus.Fields{
					"operation": name,
					"attempt":   attempt + 1,
					"delay":     delay.String(),
				}).WithError(lastErr).Debug("retrying upstream call")
			}
			// also honors the caller's deadline before each retry
			if err := ex.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		// every attempt, retries included, consumes one spacing slot
		if err := ex.throttler.Throttle(ctx); err != nil {
			return nil, err
		}

		upstreamAttempts.WithLabelValues(name).Inc()
		start := time.Now()
		res, err := op(ctx)
		if err == nil {
			upstreamDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
			return res, nil
		}

		lastErr = err
		if !ex.policy.retryable(err) {
			break
		}
	}

	norm := NormalizeError(lastErr, "upstream call failed: "+name)
	upstreamFailures.WithLabelValues(name, string(norm.Kind)).Inc()
	if ex.logger != nil {
		ex.logger.WithFields(logrus.Fields{"operation": name, "kind": norm.Kind}).WithError(lastErr).Warn("upstream call failed")
	}
	return nil, norm
}
