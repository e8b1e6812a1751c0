package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/commitcoach/commitcoach/internal/pkg/errors"
)

func TestProxyManager_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := NewProxyManager(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ProviderOpenAI, cfg.Upstream.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Upstream.Model)
	assert.InDelta(t, 0.2, cfg.Upstream.Temperature, 1e-6)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 60, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, BackendMemory, cfg.RateLimit.Backend)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestProxyManager_ConventionalEnvNames(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("OPENAI_API_KEY", "sk-test-key-abcdefghijklmnop")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("COMMITCOACH_PROXY_RATE_LIMIT_MAX", "5")
	t.Setenv("COMMITCOACH_PROXY_RATE_LIMIT_WINDOW", "30s")

	cfg, err := NewProxyManager(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "sk-test-key-abcdefghijklmnop", cfg.Upstream.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Upstream.Model)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.NoError(t, cfg.Validate())
}

func TestProxyManager_PrefixedKeyWinsOverOpenAIName(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-openai-name")
	t.Setenv("COMMITCOACH_PROXY_UPSTREAM_API_KEY", "from-prefixed-name")

	cfg, err := NewProxyManager(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, "from-prefixed-name", cfg.Upstream.APIKey)
}

func TestProxyManager_FileAndOverride(t *testing.T) {
	t.Setenv("PORT", "")
	path := filepath.Join(t.TempDir(), "proxy.yaml")
	content := `
upstream:
  provider: ollama
  model: llama3
server:
  cors_origins:
    - https://example.com
rate_limit:
  backend: redis
redis:
  addr: localhost:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	mgr := NewProxyManager(path)
	mgr.SetOverride("server.addr", "127.0.0.1:7000")

	cfg, err := mgr.Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.Equal(t, ProviderOllama, cfg.Upstream.Provider)
	assert.Equal(t, "llama3", cfg.Upstream.Model)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, BackendRedis, cfg.RateLimit.Backend)
	assert.Equal(t, path, mgr.ConfigFileUsed())
	assert.NoError(t, cfg.Validate(), "ollama needs no API key")
}

func TestProxyManager_BrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("upstream: [unclosed"), 0600))

	_, err := NewProxyManager(path).Load()
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidConfig))
}

func validProxyConfig() *ProxyConfig {
	return &ProxyConfig{
		Upstream: UpstreamConfig{
			Provider:    ProviderOpenAI,
			APIKey:      "sk-abcdefghijklmnopqrstuvwx",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
		},
		RateLimit: RateLimitConfig{Enabled: true, Max: 60, Window: time.Minute, Backend: BackendMemory},
	}
}

func TestProxyConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *ProxyConfig)
		wantCode apperrors.ErrorCode
	}{
		{"missing key", func(c *ProxyConfig) { c.Upstream.APIKey = " " }, apperrors.ErrMissingAPIKey},
		{"unknown provider", func(c *ProxyConfig) { c.Upstream.Provider = "deepseek" }, apperrors.ErrInvalidConfig},
		{"empty model", func(c *ProxyConfig) { c.Upstream.Model = "" }, apperrors.ErrInvalidConfig},
		{"bad temperature", func(c *ProxyConfig) { c.Upstream.Temperature = 3 }, apperrors.ErrInvalidConfig},
		{"zero max", func(c *ProxyConfig) { c.RateLimit.Max = 0 }, apperrors.ErrInvalidConfig},
		{"zero window", func(c *ProxyConfig) { c.RateLimit.Window = 0 }, apperrors.ErrInvalidConfig},
		{"unknown backend", func(c *ProxyConfig) { c.RateLimit.Backend = "etcd" }, apperrors.ErrInvalidConfig},
		{"redis without addr", func(c *ProxyConfig) { c.RateLimit.Backend = BackendRedis }, apperrors.ErrInvalidConfig},
		{"bad trusted proxy", func(c *ProxyConfig) { c.Server.TrustedProxies = []string{"10.0.0.0/33"} }, apperrors.ErrInvalidConfig},
	}

	require.NoError(t, validProxyConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validProxyConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestProxyConfig_ValidateSkipsLimitsWhenDisabled(t *testing.T) {
	cfg := validProxyConfig()
	cfg.RateLimit = RateLimitConfig{Enabled: false}
	assert.NoError(t, cfg.Validate())
}

func TestProxyManager_TrustedProxies(t *testing.T) {
	cfg, err := NewProxyManager(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Server.TrustedProxies, "no proxy is trusted by default")

	t.Setenv("COMMITCOACH_PROXY_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.1")
	cfg, err = NewProxyManager(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.Server.TrustedProxies)

	valid := validProxyConfig()
	valid.Server.TrustedProxies = cfg.Server.TrustedProxies
	assert.NoError(t, valid.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("COMMITCOACH_DOTENV_A=from-file\nCOMMITCOACH_DOTENV_B=from-file\n"), 0600))

	t.Setenv("COMMITCOACH_DOTENV_B", "from-env")
	os.Unsetenv("COMMITCOACH_DOTENV_A")
	defer os.Unsetenv("COMMITCOACH_DOTENV_A")

	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "from-file", os.Getenv("COMMITCOACH_DOTENV_A"))
	assert.Equal(t, "from-env", os.Getenv("COMMITCOACH_DOTENV_B"), "real environment must win")
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
