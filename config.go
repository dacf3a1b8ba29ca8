package voteclient

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// AppConfig is loaded from environment variables using the
// github.com/caarlos0/env library. It satisfies the Config interface so it
// can seed the client and stores directly.
type AppConfig struct {
	// BaseURL is the API origin, e.g. https://vote.example.com/api
	BaseURL string `env:"BASE_URL"`

	// TokenPath is where the file token store keeps credentials.
	TokenPath string `env:"TOKEN_PATH" envDefault:".voteclient/credentials.json"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`

	// PhoneRegion is the default region for normalizing phone claims that
	// lack a country prefix.
	PhoneRegion string `env:"PHONE_REGION" envDefault:"UZ"`

	// Debug enables request/response dumps.
	Debug bool `env:"DEBUG" envDefault:"false"`

	// Redis configures the optional redis token store.
	Redis RedisConfig `envPrefix:"REDIS_"`
}

// RedisConfig configures the redis-backed token store.
type RedisConfig struct {
	Addr     string        `env:"ADDR" envDefault:"localhost:6379"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	Prefix   string        `env:"PREFIX" envDefault:"voteclient"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// LoadConfig reads configuration from the environment with the VOTE_ prefix.
// A local .env file is applied first when present; a missing file is fine.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "VOTE_"}); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to parse environment config")
	}

	cfg.Sanitize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Sanitize applies guardrails to configuration values loaded from env.
func (c *AppConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")

	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}

	if c.Redis.Timeout <= 0 {
		c.Redis.Timeout = 5 * time.Second
	}

	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "voteclient"
	}
}

// Validate checks the values a client cannot run without.
func (c *AppConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("VOTE_BASE_URL is required", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}
	return nil
}

// GetBaseURL implements Config.
func (c *AppConfig) GetBaseURL() string {
	return c.BaseURL
}

// GetTokenPath implements Config.
func (c *AppConfig) GetTokenPath() string {
	return c.TokenPath
}

// GetDebug implements Config.
func (c *AppConfig) GetDebug() bool {
	return c.Debug
}
