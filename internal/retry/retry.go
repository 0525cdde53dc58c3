package retry

import (
	"context"
	"time"
)

// Policy bounds an exponential-backoff retry loop.
//
// The delay before attempt k (k >= 2) is Base * 2^(k-2): Base, 2*Base, 4*Base, ...
// No jitter is applied; callers that need spread should add it themselves.
type Policy struct {
	Attempts int           // total attempts (default 3)
	Base     time.Duration // first delay (default 1s)

	// Sleep overrides the wait between attempts. Nil means a context-aware
	// time.Timer wait. Tests inject a recorder here.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.Base <= 0 {
		p.Base = time.Second
	}
	if p.Sleep == nil {
		p.Sleep = sleep
	}
	return p
}

// Do runs op until it succeeds or the policy's attempts are exhausted.
// Intermediate failures are swallowed; the last failure is returned as-is.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	delay := p.Base
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if attempt > 1 {
			if err := p.Sleep(ctx, delay); err != nil {
				return zero, err
			}
			delay *= 2
		}
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	tmr := time.NewTimer(d)
	defer tmr.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tmr.C:
		return nil
	}
}
