// Package retry runs remote calls with exponential backoff. Authentication
// failures and caller cancellation stop immediately.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/soppliger/auteur/internal/generate"
)

// Policy configures one retry scope.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the wait before the first retry; each later wait doubles.
	BaseDelay time.Duration
	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration
	// Timeout bounds each attempt. Zero means no per-attempt timeout.
	Timeout time.Duration
}

// DefaultPolicy is three retries starting at one second.
var DefaultPolicy = Policy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}

// Notify is called before each wait with the failed attempt number
// (1-based), its error and the upcoming delay.
type Notify func(attempt int, err error, delay time.Duration)

// Retrier applies a Policy. A nil Retrier uses DefaultPolicy; a Policy
// without a BaseDelay takes the default delays and keeps its MaxRetries.
type Retrier struct {
	Policy Policy
	// Permanent reports errors that must not be retried. Defaults to
	// generate.IsAuth.
	Permanent func(error) bool
	Notify    Notify
	// Timer replaces the wall clock timer in tests.
	Timer backoff.Timer
}

// New returns a Retrier for p.
func New(p Policy) *Retrier {
	return &Retrier{Policy: p}
}

func (r *Retrier) backOff() backoff.BackOff {
	p := r.Policy
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy.BaseDelay
		if p.MaxDelay <= 0 {
			p.MaxDelay = DefaultPolicy.MaxDelay
		}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = time.Duration(1<<63 - 1)
	}
	b.MaxElapsedTime = 0
	b.Reset()
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(b, uint64(retries))
}

// Do runs op until it succeeds, fails permanently, or the retry budget is
// spent. The returned error is the last failure. Backoff state is local to
// this call.
func Do[T any](ctx context.Context, r *Retrier, name string, op func(ctx context.Context) (T, error)) (T, error) {
	if r == nil {
		r = New(DefaultPolicy)
	}
	permanent := r.Permanent
	if permanent == nil {
		permanent = generate.IsAuth
	}
	log := logrus.WithField("step", name)

	var (
		result  T
		attempt int
	)
	operation := func() error {
		attempt++
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if r.Policy.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, r.Policy.Timeout)
		}
		defer cancel()

		v, err := op(callCtx)
		if err == nil {
			result = v
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if permanent(err) {
			log.WithError(err).Error("permanent failure, not retrying")
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		log.WithField("attempt", attempt).WithField("delay", delay).WithError(err).Warn("call failed, retrying")
		if r.Notify != nil {
			r.Notify(attempt, err, delay)
		}
	}

	err := backoff.RetryNotifyWithTimer(operation, backoff.WithContext(r.backOff(), ctx), notify, r.Timer)
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
