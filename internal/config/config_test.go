package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs sets multiple env vars for the duration of the test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "https://alasrbackend.vercel.app/api/v1", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.APITimeout)
	assert.Equal(t, 2, cfg.MaxRateLimitRetries)
	assert.Equal(t, BackendSQLite, cfg.SessionBackend)
	assert.Equal(t, "salaahmanager.db", cfg.SQLite.Path)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_FromEnv(t *testing.T) {
	setEnvs(t, map[string]string{
		"API_BASE_URL":            "http://localhost:3000/api/v1/",
		"API_TIMEOUT":             "5s",
		"SESSION_BACKEND":         " Redis ",
		"REDIS_HOST":              "cache",
		"REDIS_PORT":              "6380",
		"SESSION_REDIS_NAMESPACE": "dev",
		"OTEL_ENABLED":            "true",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.SessionBackend)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr())
	assert.Equal(t, "dev", cfg.RedisNamespace)
	assert.True(t, cfg.Tracing.Enabled)

	hc := cfg.HTTPClient()
	assert.Equal(t, "http://localhost:3000/api/v1", hc.BaseURL)
	assert.Equal(t, 5*time.Second, hc.Timeout)
	assert.Equal(t, "/auth/refresh-token", hc.RefreshPath)
	require.NotNil(t, hc.CircuitBreaker)
	assert.Equal(t, "api", hc.CircuitBreaker.Name)
}

func TestLoad_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SESSION_BACKEND=memory\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SESSION_BACKEND") })

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.SessionBackend)
}

func TestLoad_BreakerDisabled(t *testing.T) {
	t.Setenv("API_CIRCUIT_BREAKER_ENABLED", "false")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Nil(t, cfg.HTTPClient().CircuitBreaker)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		envs map[string]string
		want string
	}{
		{
			name: "unknown backend",
			envs: map[string]string{"SESSION_BACKEND": "etcd"},
			want: "unknown SESSION_BACKEND",
		},
		{
			name: "bad url",
			envs: map[string]string{"API_BASE_URL": "localhost:3000"},
			want: "invalid API_BASE_URL",
		},
		{
			name: "plain http outside development",
			envs: map[string]string{"ENVIRONMENT": "production", "API_BASE_URL": "http://api.example.com"},
			want: "must use https",
		},
		{
			name: "zero timeout",
			envs: map[string]string{"API_TIMEOUT": "0s"},
			want: "API_TIMEOUT must be positive",
		},
		{
			name: "negative retries",
			envs: map[string]string{"API_MAX_RATE_LIMIT_RETRIES": "-1"},
			want: "must not be negative",
		},
		{
			name: "inverted backoff bounds",
			envs: map[string]string{"API_RETRY_WAIT_MIN": "20s"},
			want: "exceeds API_RETRY_WAIT_MAX",
		},
		{
			name: "blank sqlite path",
			envs: map[string]string{"SESSION_SQLITE_PATH": " "},
			want: "SESSION_SQLITE_PATH is required",
		},
		{
			name: "redis port out of range",
			envs: map[string]string{"SESSION_BACKEND": "redis", "REDIS_PORT": "70000"},
			want: "invalid REDIS_PORT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnvs(t, tt.envs)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
