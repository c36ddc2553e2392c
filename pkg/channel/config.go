package channel

import "time"

// Config holds duplex transport limits.
type Config struct {
	// MaxMessageSize caps inbound frames in bytes.
	MaxMessageSize int64         `env:"CHANNEL_MAX_MESSAGE_SIZE" envDefault:"1048576"`
	WriteTimeout   time.Duration `env:"CHANNEL_WRITE_TIMEOUT" envDefault:"10s"`
	PongWait       time.Duration `env:"CHANNEL_PONG_WAIT" envDefault:"60s"`
	// PingInterval must be shorter than PongWait.
	PingInterval time.Duration `env:"CHANNEL_PING_INTERVAL" envDefault:"25s"`
	// AllowedOrigins lists Origin values accepted on upgrade. Empty means
	// same host only.
	AllowedOrigins []string `env:"CHANNEL_ALLOWED_ORIGINS" envSeparator:","`
	// MaxInflight bounds concurrently running calls per connection.
	MaxInflight int `env:"CHANNEL_MAX_INFLIGHT" envDefault:"64"`
}

// DefaultConfig returns the settings used when no Config is supplied.
func DefaultConfig() Config {
	return Config{
		MaxMessageSize: 1 << 20,
		WriteTimeout:   10 * time.Second,
		PongWait:       60 * time.Second,
		PingInterval:   25 * time.Second,
		MaxInflight:    64,
	}
}
