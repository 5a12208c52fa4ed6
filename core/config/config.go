package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tunestat/tunestat/core/shared/errors"
)

// Config holds all application configuration, loaded from TUNESTAT_*
// environment variables (optionally via .env files, see cli/cmd).
type Config struct {
	// DatabaseDSN selects and configures the relational backend.
	// Scheme decides the engine: sqlite paths / file: URIs,
	// postgres://, or mysql://.
	DatabaseDSN string `validate:"required"`

	// MaxLoginAttempts bounds authentication retries per session.
	MaxLoginAttempts int `validate:"min=1,max=10"`

	// BcryptCost is the cost factor used when hashing account passwords.
	BcryptCost int `validate:"min=4,max=31"`

	// QueryCacheTTL enables in-process caching of query results when > 0.
	QueryCacheTTL time.Duration `validate:"min=0"`

	// LogLevel: 1=error 2=warn 3=info 4=debug
	LogLevel int `validate:"min=1,max=4"`
}

var validate = validator.New()

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseDSN:      getEnv("TUNESTAT_DB_DSN", "tunestat.db"),
		MaxLoginAttempts: 3,
		BcryptCost:       10,
		LogLevel:         3,
	}

	var err error
	if cfg.MaxLoginAttempts, err = getEnvInt("TUNESTAT_MAX_LOGIN_ATTEMPTS", cfg.MaxLoginAttempts); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getEnvInt("TUNESTAT_BCRYPT_COST", cfg.BcryptCost); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = getEnvInt("TUNESTAT_LOG_LEVEL", cfg.LogLevel); err != nil {
		return nil, err
	}
	if raw, exists := os.LookupEnv("TUNESTAT_QUERY_CACHE_TTL"); exists {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeValidation, "invalid duration for TUNESTAT_QUERY_CACHE_TTL: %v", err)
		}
		cfg.QueryCacheTTL = ttl
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidation, "invalid configuration", err)
	}
	return cfg, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, errors.Newf(errors.ErrCodeValidation, "invalid integer for %s: %v", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

// String returns a string representation of the config (DSN credentials are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DSN: %s, MaxLoginAttempts: %d, BcryptCost: %d, CacheTTL: %s, LogLevel: %d}",
		maskDSN(c.DatabaseDSN), c.MaxLoginAttempts, c.BcryptCost, c.QueryCacheTTL, c.LogLevel)
}

// maskDSN hides everything between the scheme and the host so
// credentials embedded in a URL-style DSN never reach the logs.
func maskDSN(dsn string) string {
	for i := 0; i+2 < len(dsn); i++ {
		if dsn[i] == ':' && dsn[i+1] == '/' && dsn[i+2] == '/' {
			for j := i + 3; j < len(dsn); j++ {
				if dsn[j] == '@' {
					return dsn[:i+3] + "***" + dsn[j:]
				}
			}
			return dsn
		}
	}
	return dsn
}
