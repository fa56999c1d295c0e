package deployment

import (
	"context"
	"time"

	"github.com/iov-one/cellkit/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// RetryConfig bounds how often a failed chain call is repeated. Only
// ErrChainRPC failures are retried.
type RetryConfig struct {
	// MaxRetries is the number of attempts made after the first one.
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig returns the configuration used when none is given.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
	}
}

// delay returns how long to wait before given retry, counted from zero.
func (c RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay)
	for i := 0; i < attempt; i++ {
		d *= c.Multiplier
		if c.MaxDelay > 0 && d > float64(c.MaxDelay) {
			return c.MaxDelay
		}
	}
	return time.Duration(d)
}

// withRetry calls fn until it succeeds, fails with an error that is not
// retryable, the retries are exhausted or the context is done.
func withRetry(ctx context.Context, conf RetryConfig, logger log.Logger, op string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !ErrChainRPC.Is(err) || attempt >= conf.MaxRetries {
			break
		}
		delay := conf.delay(attempt)
		logger.Info("retrying chain call", "op", op, "attempt", attempt+1, "delay", delay, "err", err)
		select {
		case <-ctx.Done():
			return errors.Wrap(errors.ErrCanceled, ctx.Err().Error())
		case <-time.After(delay):
		}
	}
	return errors.Wrapf(err, "%s", op)
}
