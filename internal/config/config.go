package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/smhassan90/salaahManager/pkg/database"
	pkgconfig "github.com/smhassan90/salaahManager/pkg/config"
	"github.com/smhassan90/salaahManager/pkg/httpclient"
	"github.com/smhassan90/salaahManager/pkg/tracing"
)

// Session store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all configuration for the client.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// Backend API
	APIBaseURL          string        `env:"API_BASE_URL" envDefault:"https://alasrbackend.vercel.app/api/v1"`
	APITimeout          time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	MaxRateLimitRetries int           `env:"API_MAX_RATE_LIMIT_RETRIES" envDefault:"2"`
	RetryWaitMin        time.Duration `env:"API_RETRY_WAIT_MIN" envDefault:"1s"`
	RetryWaitMax        time.Duration `env:"API_RETRY_WAIT_MAX" envDefault:"10s"`
	RefreshDebounce     time.Duration `env:"API_REFRESH_DEBOUNCE" envDefault:"500ms"`
	BreakerEnabled      bool          `env:"API_CIRCUIT_BREAKER_ENABLED" envDefault:"true"`

	// Session store
	SessionBackend string `env:"SESSION_BACKEND" envDefault:"sqlite"`
	RedisNamespace string `env:"SESSION_REDIS_NAMESPACE" envDefault:"salaahmanager"`
	SQLite         database.SQLiteConfig
	Redis          database.RedisConfig

	Tracing tracing.Config
}

// Load reads configuration from the environment, after merging the given
// dotenv files.
func Load(dotenvFiles ...string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, dotenvFiles...); err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}
	cfg.SessionBackend = strings.ToLower(strings.TrimSpace(cfg.SessionBackend))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid API_BASE_URL %q", c.APIBaseURL)
	}
	if c.Environment != "development" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL must use https in %q mode", c.Environment)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	if c.MaxRateLimitRetries < 0 {
		return fmt.Errorf("API_MAX_RATE_LIMIT_RETRIES must not be negative, got %d", c.MaxRateLimitRetries)
	}
	if c.RetryWaitMin > c.RetryWaitMax {
		return fmt.Errorf("API_RETRY_WAIT_MIN (%s) exceeds API_RETRY_WAIT_MAX (%s)", c.RetryWaitMin, c.RetryWaitMax)
	}
	switch c.SessionBackend {
	case BackendSQLite:
		if strings.TrimSpace(c.SQLite.Path) == "" {
			return fmt.Errorf("SESSION_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Redis.Port < 1 || c.Redis.Port > 65535 {
			return fmt.Errorf("invalid REDIS_PORT: %d", c.Redis.Port)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q (want sqlite, redis or memory)", c.SessionBackend)
	}
	return nil
}

// HTTPClient returns the transport settings.
func (c *Config) HTTPClient() httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.BaseURL = strings.TrimRight(c.APIBaseURL, "/")
	hc.Timeout = c.APITimeout
	hc.MaxRateLimitRetries = c.MaxRateLimitRetries
	hc.RetryWaitMin = c.RetryWaitMin
	hc.RetryWaitMax = c.RetryWaitMax
	hc.RefreshDebounce = c.RefreshDebounce
	if c.BreakerEnabled {
		breaker := httpclient.DefaultCircuitBreakerConfig("api")
		hc.CircuitBreaker = &breaker
	}
	return hc
}
