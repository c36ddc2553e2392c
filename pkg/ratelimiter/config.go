package ratelimiter

import (
	"fmt"
	"time"
)

// Config is the bucket shape shared by every key.
type Config struct {
	// Capacity is the burst size.
	Capacity int `env:"CALL_RATE_CAPACITY" envDefault:"60"`
	// RefillRate tokens are added every RefillInterval.
	RefillRate     int           `env:"CALL_RATE_REFILL" envDefault:"10"`
	RefillInterval time.Duration `env:"CALL_RATE_INTERVAL" envDefault:"1s"`
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval < time.Millisecond {
		return fmt.Errorf("%w: refill interval must be at least 1ms, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// idleTTL is how long an untouched bucket takes to refill completely;
// stores may forget it after that.
func (c Config) idleTTL() time.Duration {
	intervals := (c.Capacity + c.RefillRate - 1) / c.RefillRate
	return time.Duration(intervals+1) * c.RefillInterval
}
