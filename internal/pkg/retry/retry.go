package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	JitterFactor   float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
		JitterFactor:   0.1,
	}
}

// PermanentError stops retrying immediately; the wrapped error is returned
// as-is.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Do runs op until it succeeds, returns a permanent error, the context is
// done, or MaxAttempts is reached. The last attempt's error is wrapped under
// ErrAttemptsExhausted via errors.Join.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.Multiplier <= 1 {
		p.Multiplier = 2.0
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		var perm *PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}
		lastErr = err

		if attempt == p.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff(attempt)):
		}
	}

	return errors.Join(ErrAttemptsExhausted, lastErr)
}

func (p Policy) backoff(attempt int) time.Duration {
	interval := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt))

	// Jitter avoids synchronized retries from concurrent workers.
	if p.JitterFactor > 0 {
		jitter := interval * p.JitterFactor
		interval += (rand.Float64()*2 - 1) * jitter
	}

	if p.MaxBackoff > 0 && interval > float64(p.MaxBackoff) {
		interval = float64(p.MaxBackoff)
	}
	if interval < 0 {
		interval = float64(p.InitialBackoff)
	}
	return time.Duration(interval)
}
