package session

import "time"

// Config holds session settings shared by the manager and the connection
// authenticators.
type Config struct {
	// Name is the cookie name and the session id prefix.
	Name string `env:"SESSION_NAME" envDefault:"NSS_"`

	// Secrets sign the session cookie. The first one signs, all verify.
	Secrets []string `env:"SESSION_SECRETS,required" envSeparator:","`

	// Expire is the server-side TTL, refreshed on every save.
	Expire time.Duration `env:"SESSION_EXPIRE" envDefault:"2160h"`

	// MaxAge is the client cookie lifetime.
	MaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"2160h"`

	// Domain overrides the cookie domain derived from the request host.
	Domain string `env:"SESSION_DOMAIN"`

	Secure bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`
}

const defaultExpire = 7776000 * time.Second

// DefaultConfig returns the defaults without secrets.
func DefaultConfig() Config {
	return Config{
		Name:   "NSS_",
		Expire: defaultExpire,
		MaxAge: defaultExpire,
	}
}

// NewFromConfig creates a Manager from cfg.
func NewFromConfig(cfg Config, store Store, opts ...Option) *Manager {
	return New(store, append([]Option{WithConfig(cfg)}, opts...)...)
}
