package recovery

import (
	"math"
	"time"
)

// RetryConfig defines retry behavior for strategies that reissue remote
// calls. Base delays and multipliers are tunable, not semantic.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	BackoffMultiple float64       `yaml:"backoff_multiple"`
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    1 * time.Second,
	MaxDelay:        30 * time.Second,
	BackoffMultiple: 2.0,
}

// Delay calculates the backoff for the given attempt (0-indexed):
// InitialDelay * BackoffMultiple^attempt, capped at MaxDelay.
func (c RetryConfig) Delay(attempt int) time.Duration {
	delay := float64(c.InitialDelay) * math.Pow(c.BackoffMultiple, float64(attempt))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}
	return time.Duration(delay)
}
