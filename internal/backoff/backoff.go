// Package backoff computes exponential delays with jitter for reconnect loops.
package backoff

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// ErrAttemptsExhausted is returned by Retry when every attempt failed.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// PermanentError marks a failure that Retry must not retry.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so Retry returns it immediately. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Policy defines the parameters for exponential backoff.
type Policy struct {
	// Initial is the delay after the first failed attempt.
	Initial time.Duration
	// Max caps every delay.
	Max time.Duration
	// Factor multiplies the delay on each attempt.
	Factor float64
	// Jitter is the randomization factor in [0, 1] added on top of the base delay.
	Jitter float64
}

// GatewayPolicy is used when (re)connecting to the Discord gateway.
// Initial: 1s, Max: 60s, Factor: 2, Jitter: 10%
func GatewayPolicy() Policy {
	return Policy{
		Initial: time.Second,
		Max:     time.Minute,
		Factor:  2,
		Jitter:  0.1,
	}
}

// Delay returns the delay for attempt (1-indexed) using a random jitter.
func (p Policy) Delay(attempt int) time.Duration {
	return p.DelayWithRand(attempt, rand.Float64()) // #nosec G404 -- jitter does not require cryptographic randomness
}

// DelayWithRand is Delay with a caller-supplied random value in [0, 1).
// base = Initial * Factor^(attempt-1); result = min(Max, base + base*Jitter*r)
func (p Policy) DelayWithRand(attempt int, r float64) time.Duration {
	exp := math.Max(float64(attempt-1), 0)
	base := float64(p.Initial) * math.Pow(p.Factor, exp)
	total := base + base*p.Jitter*r
	if p.Max > 0 {
		total = math.Min(float64(p.Max), total)
	}
	return time.Duration(total).Round(time.Millisecond)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry calls fn up to maxAttempts times, sleeping between failures.
// It returns the number of attempts made and nil on success, the context error
// if ctx ends first, or ErrAttemptsExhausted joined with the last failure.
// onRetry, when non-nil, is called before each sleep. A failure wrapped with
// Permanent stops the loop and is returned unwrapped.
func Retry(ctx context.Context, p Policy, maxAttempts int, fn func(attempt int) error, onRetry func(attempt int, delay time.Duration, err error)) (int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return attempt, nil
		}
		var permanent *PermanentError
		if errors.As(lastErr, &permanent) {
			return attempt, permanent.Err
		}
		if attempt == maxAttempts {
			break
		}

		delay := p.Delay(attempt)
		if onRetry != nil {
			onRetry(attempt, delay, lastErr)
		}
		if err := Sleep(ctx, delay); err != nil {
			return attempt, err
		}
	}

	return maxAttempts, errors.Join(ErrAttemptsExhausted, lastErr)
}
