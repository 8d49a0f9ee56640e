// Package retry provides the single retry policy applied to outbound
// HTTP calls. Ledger polling deliberately does not use it; the poll
// interval is the retry mechanism there.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds retries with an exponential backoff curve and jitter.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
}

// Default matches the configuration surface's max-retries default.
var Default = Policy{MaxAttempts: 3, InitialInterval: 500 * time.Millisecond}

// Permanent marks an error as non-retryable.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, the attempt budget is spent, or the context
// is cancelled.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
	return backoff.Retry(op, policy)
}
