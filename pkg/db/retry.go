package db

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

// RetryPolicy bounds WithRetryTx.
type RetryPolicy struct {
	MaxAttempts   int
	BaseBackoff   time.Duration
	JitterPercent uint64
}

// DefaultRetryPolicy is used when a caller passes a zero policy.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:   5,
	BaseBackoff:   20 * time.Millisecond,
	JitterPercent: 25,
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = DefaultRetryPolicy.BaseBackoff
	}
	return p
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.BaseBackoff)
	if p.JitterPercent > 0 {
		b = retry.WithJitterPercent(p.JitterPercent, b)
	}
	return retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
}

// WithRetryTx runs fn in a fresh transaction per attempt. Attempts that fail
// with a retryable error (see IsRetryable) are rolled back and replayed with
// exponential backoff; any other error is returned immediately. Once the
// budget is spent the last retryable error is returned as is.
func (c *Client) WithRetryTx(ctx context.Context, policy RetryPolicy, fn func(tx *gorm.DB) error) error {
	policy = policy.normalized()
	return retry.Do(ctx, policy.backoff(), func(ctx context.Context) error {
		err := c.WithTx(ctx, fn)
		if err != nil && IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
