// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: the
// default .env file is read once (missing file is fine), then the target
// struct is parsed from its `env` / `envDefault` tags. Each configuration
// type is parsed at most once per process and served from an in-memory
// cache afterwards.
//
// Usage:
//
//	var sessCfg session.Config
//	config.MustLoad(&sessCfg)
//
//	var redisCfg redis.Config
//	if err := config.LoadWithPrefix(&redisCfg, "CALLGATE_"); err != nil {
//		log.Fatal(err)
//	}
//
// Extra .env files can be loaded explicitly with LoadEnv before the first
// Load call. ResetCache clears the cache, which is mostly useful in tests.
//
// Errors are sentinel values comparable with errors.Is: ErrParsingConfig,
// ErrLoadingEnvFile, ErrConfigNotLoaded and ErrNilPointer.
package config
