package main

import (
	"errors"

	"github.com/dmitrymomot/callgate/pkg/channel"
	"github.com/dmitrymomot/callgate/pkg/config"
	"github.com/dmitrymomot/callgate/pkg/cookie"
	"github.com/dmitrymomot/callgate/pkg/httpserver"
	"github.com/dmitrymomot/callgate/pkg/logger"
	"github.com/dmitrymomot/callgate/pkg/ratelimiter"
	"github.com/dmitrymomot/callgate/pkg/redis"
	"github.com/dmitrymomot/callgate/pkg/session"
)

// serverConfig gathers every component configuration of the serve command.
type serverConfig struct {
	HTTP      httpserver.Config
	Log       logger.Config
	Redis     redis.Config
	Session   session.Config
	Cookie    cookie.Config
	Channel   channel.Config
	RateLimit ratelimiter.Config
	Routes    routesConfig
}

type routesConfig struct {
	Channel string `env:"CHANNEL_PATH" envDefault:"/ws"`
	Metrics string `env:"METRICS_PATH" envDefault:"/metrics"`
}

func loadConfig(envFiles ...string) (serverConfig, error) {
	if err := config.LoadEnv(envFiles...); err != nil {
		return serverConfig{}, err
	}

	var cfg serverConfig
	if err := errors.Join(
		config.Load(&cfg.HTTP),
		config.Load(&cfg.Log),
		config.Load(&cfg.Redis),
		config.Load(&cfg.Session),
		config.Load(&cfg.Cookie),
		config.Load(&cfg.Channel),
		config.Load(&cfg.RateLimit),
		config.Load(&cfg.Routes),
	); err != nil {
		return serverConfig{}, err
	}

	// The session cookie follows the session secure flag.
	cfg.Cookie.Secure = cfg.Cookie.Secure || cfg.Session.Secure

	return cfg, nil
}
