package gemini

import (
	"context"
	"strings"
	"time"
)

// RetryConfig bounds the quota-retry behavior. With the defaults a request
// waits at most 2+4+8 seconds of pure backoff before the failure surfaces.
type RetryConfig struct {
	// MaxRetries is how many times a rate-limited request is retried.
	MaxRetries int

	// BackoffBase is the first retry delay.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to the delay on each retry.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the studio retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// isRateLimited reports whether an error is a provider overload signal.
// Only these are retried; everything else propagates immediately.
func isRateLimited(err error) bool {
	apiErr, ok := err.(*apiError)
	if !ok {
		return false
	}
	return apiErr.status == 429 || strings.Contains(apiErr.body, "RESOURCE_EXHAUSTED")
}

// withRetry runs op, retrying only rate-limit errors with exponentially
// doubling delays.
func (c *Client) withRetry(ctx context.Context, op func(context.Context) error) error {
	delay := c.retry.BackoffBase
	var err error
	for attempt := 0; ; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !isRateLimited(err) || attempt >= c.retry.MaxRetries {
			return err
		}
		c.logger.Warn("provider rate limited, backing off", "delay", delay, "attempt", attempt+1)
		if c.onRetry != nil {
			c.onRetry()
		}
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		delay = time.Duration(float64(delay) * c.retry.BackoffMultiplier)
	}
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
