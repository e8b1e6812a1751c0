package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/commitcoach/commitcoach/internal/pkg/errors"
)

// ProxyEnvPrefix is the environment prefix for proxy settings.
const ProxyEnvPrefix = "COMMITCOACH_PROXY"

// Upstream provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Rate limiter backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ProxyConfig represents the complete proxy service configuration.
type ProxyConfig struct {
	Server    ListenConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
}

// ListenConfig contains HTTP listener settings.
type ListenConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For is
	// believed. Empty means clients are keyed on the socket peer address.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// UpstreamConfig contains the language model provider settings.
type UpstreamConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig contains per-client request limits.
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Max     int           `mapstructure:"max"`
	Window  time.Duration `mapstructure:"window"`
	Backend string        `mapstructure:"backend"`
}

// RedisConfig contains the shared limiter store settings.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks the proxy configuration, returning a ConfigError for the first problem found.
func (c *ProxyConfig) Validate() error {
	switch c.Upstream.Provider {
	case ProviderOpenAI:
		if strings.TrimSpace(c.Upstream.APIKey) == "" {
			return apperrors.NewMissingAPIKeyError(ProviderOpenAI)
		}
	case ProviderOllama:
	default:
		return apperrors.NewInvalidConfigError(fmt.Sprintf("unknown upstream provider %q (want openai or ollama)", c.Upstream.Provider))
	}

	if strings.TrimSpace(c.Upstream.Model) == "" {
		return apperrors.NewInvalidConfigError("upstream.model cannot be empty")
	}
	if c.Upstream.Temperature < 0 || c.Upstream.Temperature > 2 {
		return apperrors.NewInvalidConfigError(fmt.Sprintf("upstream.temperature must be between 0 and 2, got %v", c.Upstream.Temperature))
	}

	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return apperrors.NewInvalidConfigError(fmt.Sprintf("server.trusted_proxies entry %q is not an IP or CIDR", p))
			}
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Max <= 0 {
			return apperrors.NewInvalidConfigError(fmt.Sprintf("rate_limit.max must be positive, got %d", c.RateLimit.Max))
		}
		if c.RateLimit.Window <= 0 {
			return apperrors.NewInvalidConfigError(fmt.Sprintf("rate_limit.window must be positive, got %v", c.RateLimit.Window))
		}
		switch c.RateLimit.Backend {
		case BackendMemory:
		case BackendRedis:
			if strings.TrimSpace(c.Redis.Addr) == "" {
				return apperrors.NewInvalidConfigError("redis.addr is required when rate_limit.backend is redis")
			}
		default:
			return apperrors.NewInvalidConfigError(fmt.Sprintf("unknown rate_limit.backend %q (want memory or redis)", c.RateLimit.Backend))
		}
	}

	return nil
}

// ProxyManager loads proxy configuration using Viper.
type ProxyManager struct {
	v          *viper.Viper
	configPath string
}

// NewProxyManager creates a proxy configuration manager.
// If configPath is empty, commitcoach-proxy.yaml is looked up in the working
// directory and /etc/commitcoach; a missing file is not an error.
func NewProxyManager(configPath string) *ProxyManager {
	v := viper.New()
	v.SetConfigType(DefaultConfigFileExt)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("commitcoach-proxy")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/commitcoach")
	}

	v.SetEnvPrefix(ProxyEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setProxyDefaults(v)
	bindProxyEnvVars(v)

	return &ProxyManager{v: v, configPath: configPath}
}

// bindProxyEnvVars binds the prefixed keys plus the conventional names
// hosting platforms and OpenAI tooling already export.
func bindProxyEnvVars(v *viper.Viper) {
	_ = v.BindEnv("server.addr", "COMMITCOACH_PROXY_SERVER_ADDR")
	_ = v.BindEnv("server.shutdown_timeout", "COMMITCOACH_PROXY_SERVER_SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("server.cors_origins", "COMMITCOACH_PROXY_CORS_ORIGINS")
	_ = v.BindEnv("server.trusted_proxies", "COMMITCOACH_PROXY_TRUSTED_PROXIES")

	_ = v.BindEnv("upstream.provider", "COMMITCOACH_PROXY_UPSTREAM_PROVIDER")
	_ = v.BindEnv("upstream.api_key", "COMMITCOACH_PROXY_UPSTREAM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("upstream.model", "COMMITCOACH_PROXY_UPSTREAM_MODEL", "OPENAI_MODEL", "OLLAMA_MODEL")
	_ = v.BindEnv("upstream.base_url", "COMMITCOACH_PROXY_UPSTREAM_BASE_URL", "OPENAI_BASE_URL", "OLLAMA_URL")
	_ = v.BindEnv("upstream.temperature", "COMMITCOACH_PROXY_UPSTREAM_TEMPERATURE")
	_ = v.BindEnv("upstream.max_tokens", "COMMITCOACH_PROXY_UPSTREAM_MAX_TOKENS")
	_ = v.BindEnv("upstream.timeout", "COMMITCOACH_PROXY_UPSTREAM_TIMEOUT")

	_ = v.BindEnv("rate_limit.enabled", "COMMITCOACH_PROXY_RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.max", "COMMITCOACH_PROXY_RATE_LIMIT_MAX")
	_ = v.BindEnv("rate_limit.window", "COMMITCOACH_PROXY_RATE_LIMIT_WINDOW")
	_ = v.BindEnv("rate_limit.backend", "COMMITCOACH_PROXY_RATE_LIMIT_BACKEND")

	_ = v.BindEnv("redis.addr", "COMMITCOACH_PROXY_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "COMMITCOACH_PROXY_REDIS_PASSWORD", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "COMMITCOACH_PROXY_REDIS_DB")
	_ = v.BindEnv("redis.key_prefix", "COMMITCOACH_PROXY_REDIS_KEY_PREFIX")

	_ = v.BindEnv("log.level", "COMMITCOACH_PROXY_LOG_LEVEL")
	_ = v.BindEnv("log.format", "COMMITCOACH_PROXY_LOG_FORMAT")
}

func setProxyDefaults(v *viper.Viper) {
	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	v.SetDefault("server.addr", addr)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("upstream.provider", ProviderOpenAI)
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.model", "gpt-4o-mini")
	v.SetDefault("upstream.base_url", "")
	v.SetDefault("upstream.temperature", 0.2)
	v.SetDefault("upstream.max_tokens", 0)
	v.SetDefault("upstream.timeout", "60s")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.max", 60)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("rate_limit.backend", BackendMemory)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "commitcoach:ratelimit:")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// SetOverride sets a value that wins over file and environment, used for flags.
func (m *ProxyManager) SetOverride(key string, value interface{}) {
	m.v.Set(key, value)
}

// ConfigFileUsed returns the file the last Load read, or "".
func (m *ProxyManager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// Load resolves the proxy configuration. It does not validate it.
// Priority: flags > env > file > defaults
func (m *ProxyManager) Load() (*ProxyConfig, error) {
	if err := m.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to read proxy config file")
		}
	}

	var cfg ProxyConfig
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to unmarshal proxy config")
	}

	// A comma separated env value arrives as a single element.
	if len(cfg.Server.CORSOrigins) == 1 && strings.Contains(cfg.Server.CORSOrigins[0], ",") {
		cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins[0])
	}
	if len(cfg.Server.TrustedProxies) == 1 && strings.Contains(cfg.Server.TrustedProxies[0], ",") {
		cfg.Server.TrustedProxies = splitList(cfg.Server.TrustedProxies[0])
	}

	return &cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
