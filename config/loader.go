package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when no explicit path is given and it exists
const DefaultConfigFile = "config.yaml"

// Getenv looks up an environment variable
type Getenv func(key string) string

// Load builds the configuration from defaults, an optional YAML file and
// the environment. Flags are applied by the caller, then Validate.
func Load(path string, getenv Getenv) (*Config, error) {
	cfg := Defaults()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	if getenv == nil {
		getenv = os.Getenv
	}

	if err := cfg.loadEnv(getenv); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read config file "+path)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse config file "+path)
	}

	return nil
}

func (c *Config) loadEnv(getenv Getenv) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	// APP_ENV wins over NODE_ENV
	str("NODE_ENV", &c.Env)
	str("APP_ENV", &c.Env)
	c.Env = strings.ToLower(c.Env)

	str("HOST", &c.Server.Host)
	str("PORT", &c.Server.Port)
	str("API_PREFIX", &c.Server.Prefix)
	str("CLIENT_URL", &c.Server.ClientURL)

	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("JWT_ISSUER", &c.Auth.Issuer)
	str("COOKIE_DOMAIN", &c.Auth.CookieDomain)

	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_DSN", &c.Database.DSN)
	str("DATABASE_URL", &c.Database.DSN)

	str("RESEND_API_KEY", &c.Email.ResendAPIKey)
	str("EMAIL_FROM", &c.Email.From)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v := getenv("DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return envError("DEBUG", err)
		}
		c.Debug = debug
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":  &c.Auth.AccessTTL,
		"REFRESH_TOKEN_TTL": &c.Auth.RefreshTTL,
		"RATE_LIMIT_WINDOW": &c.Server.RateLimit.Window,
	}
	for key, dst := range durations {
		v := getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError(key, err)
		}
		*dst = d
	}

	if v := getenv("RATE_LIMIT_MAX"); v != "" {
		max, err := strconv.Atoi(v)
		if err != nil {
			return envError("RATE_LIMIT_MAX", err)
		}
		c.Server.RateLimit.Max = max
	}

	return nil
}

func envError(key string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid value for "+key)
}
