// Package retry runs idempotent operations with bounded exponential backoff.
// Non-idempotent writes must not go through here; their failures are surfaced to the operator.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds the number of attempts and the delay between them.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultPolicy is used by collaborator read paths.
var DefaultPolicy = Policy{Attempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

// Permanent wraps err so Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// BackOff builds the schedule for p. Delays are not randomized, so a policy
// always waits the same way.
func (p Policy) BackOff(ctx context.Context) backoff.BackOff {
	attempts := max(p.Attempts, 1)

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.MaxInterval = max(p.MaxDelay, p.BaseDelay)
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// Do calls fn until it succeeds, returns a Permanent error, the attempts run out
// or ctx is done. A Permanent error is returned unwrapped.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	return backoff.Retry(func() error { return fn(ctx) }, p.BackOff(ctx))
}
