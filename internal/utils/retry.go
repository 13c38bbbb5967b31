package utils

import "time"

// Retry settings for outbound collaborator calls. The schedule is a fixed
// list of waits between attempts; MaxRetries may exceed its length, in which
// case the last entry repeats.
type RetryConfig struct {
	MaxRetries int
	Schedule   []time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		Schedule:   []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if len(c.Schedule) == 0 {
		c.Schedule = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	}
	return c
}

func (c RetryConfig) delay(attempt int) time.Duration {
	if attempt >= len(c.Schedule) {
		return c.Schedule[len(c.Schedule)-1]
	}
	return c.Schedule[attempt]
}

// Retry runs fn up to cfg.MaxRetries times, sleeping the scheduled delay
// between attempts. The last error is returned after exhaustion.
func Retry(cfg RetryConfig, logger *Logger, reqID *string, op string, fn func() error) error {
	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}

		if attempt < cfg.MaxRetries-1 {
			wait := cfg.delay(attempt)
			logger.Info(reqID, "%s attempt %d/%d failed: %v, retrying in %s",
				op, attempt+1, cfg.MaxRetries, lastErr, wait)
			time.Sleep(wait)
		} else {
			logger.Error(reqID, "%s failed after %d attempts: %v", op, cfg.MaxRetries, lastErr)
		}
	}

	return lastErr
}
