package config

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config is the runtime configuration of the blogify server
type Config struct {
	Env      string         `yaml:"env" json:"env"`
	Debug    bool           `yaml:"debug" json:"debug"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Auth     AuthConfig     `yaml:"auth" json:"auth"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Email    EmailConfig    `yaml:"email" json:"email"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

type ServerConfig struct {
	Host         string          `yaml:"host" json:"host"`
	Port         string          `yaml:"port" json:"port"`
	Prefix       string          `yaml:"prefix" json:"prefix"`
	ClientURL    string          `yaml:"client_url" json:"client_url"`
	AllowOrigins []string        `yaml:"allow_origins" json:"allow_origins"`
	ReadTimeout  time.Duration   `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration   `yaml:"write_timeout" json:"write_timeout"`
	RateLimit    RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

type RateLimitConfig struct {
	Max    int           `yaml:"max" json:"max"`
	Window time.Duration `yaml:"window" json:"window"`
}

type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret" json:"jwt_secret"`
	Issuer           string        `yaml:"issuer" json:"issuer"`
	AccessTTL        time.Duration `yaml:"access_ttl" json:"access_ttl"`
	RefreshTTL       time.Duration `yaml:"refresh_ttl" json:"refresh_ttl"`
	VerificationTTL  time.Duration `yaml:"verification_ttl" json:"verification_ttl"`
	ResendTTL        time.Duration `yaml:"resend_ttl" json:"resend_ttl"`
	ResetTTL         time.Duration `yaml:"reset_ttl" json:"reset_ttl"`
	OperationTimeout time.Duration `yaml:"operation_timeout" json:"operation_timeout"`
	BcryptCost       int           `yaml:"bcrypt_cost" json:"bcrypt_cost"`
	UseHashid        bool          `yaml:"use_hashid" json:"use_hashid"`
	CookieDomain     string        `yaml:"cookie_domain" json:"cookie_domain"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver" json:"driver"`
	DSN          string `yaml:"dsn" json:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate" json:"auto_migrate"`
	Debug        bool   `yaml:"debug" json:"debug"`
}

type EmailConfig struct {
	ResendAPIKey string `yaml:"resend_api_key" json:"resend_api_key"`
	From         string `yaml:"from" json:"from"`
	AppName      string `yaml:"app_name" json:"app_name"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Defaults returns a development configuration
func Defaults() *Config {
	return &Config{
		Env: EnvDevelopment,
		Server: ServerConfig{
			Port:         "3000",
			Prefix:       "/api",
			ClientURL:    "http://localhost:5173",
			AllowOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			RateLimit: RateLimitConfig{
				Max:    10,
				Window: time.Minute,
			},
		},
		Auth: AuthConfig{
			Issuer:           "blogify",
			AccessTTL:        time.Hour,
			RefreshTTL:       7 * 24 * time.Hour,
			VerificationTTL:  time.Hour,
			ResendTTL:        24 * time.Hour,
			ResetTTL:         time.Hour,
			OperationTimeout: 10 * time.Second,
			BcryptCost:       10,
		},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			DSN:         "file:blogify.db?cache=shared&_pragma=foreign_keys(1)",
			AutoMigrate: true,
		},
		Email: EmailConfig{
			From:    "Blogify <onboarding@resend.dev>",
			AppName: "Blogify",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// IsProduction enables secure cookies among other things
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Addr is the listen address for the http server
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Origins returns the CORS allow list, client url first
func (c *Config) Origins() []string {
	seen := map[string]bool{}
	var out []string
	for _, origin := range append([]string{c.Server.ClientURL}, c.Server.AllowOrigins...) {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" || seen[origin] {
			continue
		}
		seen[origin] = true
		out = append(out, origin)
	}
	return out
}

// Redacted returns a copy safe to print
func (c *Config) Redacted() *Config {
	cp := *c
	cp.Server.AllowOrigins = append([]string(nil), c.Server.AllowOrigins...)
	cp.Auth.JWTSecret = redact(cp.Auth.JWTSecret)
	cp.Email.ResendAPIKey = redact(cp.Email.ResendAPIKey)
	if c.Database.Driver == "postgres" {
		cp.Database.DSN = redact(cp.Database.DSN)
	}
	return &cp
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Env, validation.Required, validation.In(EnvDevelopment, EnvProduction, EnvTest)),
		validation.Field(&c.Server),
		validation.Field(&c.Auth),
		validation.Field(&c.Database),
		validation.Field(&c.Log),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid configuration")
	}
	return nil
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Required, is.Port),
		validation.Field(&s.ClientURL, is.URL),
		validation.Field(&s.RateLimit),
	)
}

func (r RateLimitConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Max, validation.Min(0)),
		validation.Field(&r.Window, validation.When(r.Max > 0, validation.Required)),
	)
}

func (a AuthConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.JWTSecret, validation.Required),
		validation.Field(&a.AccessTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&a.RefreshTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&a.VerificationTTL, validation.Required),
		validation.Field(&a.ResendTTL, validation.Required),
		validation.Field(&a.ResetTTL, validation.Required),
		validation.Field(&a.BcryptCost, validation.Min(4), validation.Max(31)),
	)
}

func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In("sqlite", "postgres")),
		validation.Field(&d.DSN, validation.Required),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}
