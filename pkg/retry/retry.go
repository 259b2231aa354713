// Package retry runs an operation with capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Config controls the backoff schedule
type Config struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// InitialInterval is the wait before the first retry
	InitialInterval time.Duration
	// MaxInterval caps every wait
	MaxInterval time.Duration
	// Multiplier grows the wait after each retry
	Multiplier float64
	// JitterFactor spreads each wait by ±factor (0-1)
	JitterFactor float64
}

// DefaultConfig returns 3 retries starting at 100ms
func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

func (c Config) normalized() Config {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 100 * time.Millisecond
	}
	if c.MaxInterval < c.InitialInterval {
		c.MaxInterval = c.InitialInterval
	}
	if c.Multiplier < 1 {
		c.Multiplier = 2.0
	}
	c.JitterFactor = math.Max(0, math.Min(1, c.JitterFactor))
	return c
}

// Backoff returns the wait before retry number attempt (0-based)
func (c Config) Backoff(attempt int) time.Duration {
	c = c.normalized()
	interval := float64(c.InitialInterval) * math.Pow(c.Multiplier, float64(attempt))
	if c.JitterFactor > 0 {
		jitter := interval * c.JitterFactor
		interval += (rand.Float64()*2 - 1) * jitter
	}
	if interval > float64(c.MaxInterval) {
		interval = float64(c.MaxInterval)
	}
	if interval <= 0 {
		interval = float64(c.InitialInterval)
	}
	return time.Duration(interval)
}

// Operation is the function being retried
type Operation func(ctx context.Context) error

// OnRetry is called before each wait
type OnRetry func(attempt int, err error, wait time.Duration)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op until it succeeds, returns a permanent error, runs out of
// retries or ctx is done. The returned error is the last one op returned,
// unwrapped from Permanent, or ctx.Err().
func Do(ctx context.Context, cfg Config, op Operation, onRetry OnRetry) error {
	cfg = cfg.normalized()

	var err error
	for attempt := 0; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return errors.Join(ctxErr, err)
			}
			return ctxErr
		}

		if err = op(ctx); err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt >= cfg.MaxRetries {
			return err
		}

		wait := cfg.Backoff(attempt)
		if onRetry != nil {
			onRetry(attempt+1, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ctx.Err(), err)
		case <-timer.C:
		}
	}
}
