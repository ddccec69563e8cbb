package config

import (
	"errors"
	"fmt"
	"os"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type Config struct {
	cloudSQLUnixSocketPath string
	dBPassword             string
	dBUsername             string
	redisAddr              string
	sentryDSN              string
	riotAPIKey             string
	port                   string
	env                    environment
}

func (c *Config) CloudSQLUnixSocketPath() string {
	return c.cloudSQLUnixSocketPath
}

func (c *Config) DBPassword() string {
	return c.dBPassword
}

func (c *Config) DBUsername() string {
	return c.dBUsername
}

func (c *Config) RedisAddr() string {
	return c.redisAddr
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) RiotAPIKey() string {
	return c.riotAPIKey
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf("Config{env: %s, ...}", string(c.env))
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("RIFTLIGHT_ENVIRONMENT")
	if !ok {
		return missingKey("RIFTLIGHT_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: RIFTLIGHT_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}

	cloudSQLUnixSocketPath := os.Getenv("CLOUDSQL_UNIX_SOCKET")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbUsername := os.Getenv("DB_USERNAME")
	redisAddr := os.Getenv("REDIS_ADDR")
	sentryDSN := os.Getenv("SENTRY_DSN")
	riotAPIKey := os.Getenv("RIOT_API_KEY")
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if env == production || env == staging {
		if cloudSQLUnixSocketPath == "" {
			return missingKey("CLOUDSQL_UNIX_SOCKET")
		}
		if dbUsername == "" {
			return missingKey("DB_USERNAME")
		}
		if dbPassword == "" {
			return missingKey("DB_PASSWORD")
		}
		if redisAddr == "" {
			return missingKey("REDIS_ADDR")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if riotAPIKey == "" {
			return missingKey("RIOT_API_KEY")
		}
	}

	return Config{
		cloudSQLUnixSocketPath: cloudSQLUnixSocketPath,
		dBPassword:             dbPassword,
		dBUsername:             dbUsername,
		redisAddr:              redisAddr,
		sentryDSN:              sentryDSN,
		riotAPIKey:             riotAPIKey,
		port:                   port,
		env:                    env,
	}, nil
}
