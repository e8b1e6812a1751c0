package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigDir is the directory under $HOME holding the CLI config.
	DefaultConfigDir = ".commitcoach"
	// DefaultConfigFileName is the default config file name without extension.
	DefaultConfigFileName = "config"
	// DefaultConfigFileExt is the default config file extension.
	DefaultConfigFileExt = "yaml"
	// EnvPrefix is the environment prefix for CLI settings.
	EnvPrefix = "COMMITCOACH"
)

// ViperManager implements the Manager interface using Viper.
type ViperManager struct {
	v          *viper.Viper
	configPath string
}

// NewManager creates a new configuration manager.
// If configPath is empty, it uses the default path (~/.commitcoach/config.yaml).
func NewManager(configPath string) (*ViperManager, error) {
	v := viper.New()

	v.SetConfigType(DefaultConfigFileExt)

	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, DefaultConfigDir, DefaultConfigFileName+"."+DefaultConfigFileExt)
	}

	v.SetConfigFile(configPath)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults must exist before env binding for nested keys to resolve.
	setDefaults(v)
	bindEnvVars(v)

	return &ViperManager{
		v:          v,
		configPath: configPath,
	}, nil
}

// bindEnvVars explicitly binds environment variables for all config keys.
// Viper's AutomaticEnv doesn't resolve nested keys on Unmarshal.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("server.url", "COMMITCOACH_SERVER", "COMMITCOACH_SERVER_URL")
	_ = v.BindEnv("server.timeout", "COMMITCOACH_TIMEOUT", "COMMITCOACH_SERVER_TIMEOUT")

	_ = v.BindEnv("commit.style", "COMMITCOACH_STYLE", "COMMITCOACH_COMMIT_STYLE")
	_ = v.BindEnv("commit.subject_limit", "COMMITCOACH_COMMIT_SUBJECT_LIMIT")

	_ = v.BindEnv("ui.color_enabled", "COMMITCOACH_UI_COLOR_ENABLED")
	_ = v.BindEnv("ui.spinner_style", "COMMITCOACH_UI_SPINNER_STYLE")

	_ = v.BindEnv("security.warning_acknowledged", "COMMITCOACH_SECURITY_WARNING_ACKNOWLEDGED")
}

// setDefaults sets the default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.url", DefaultServer)
	v.SetDefault("server.timeout", "60s")

	v.SetDefault("commit.style", "conventional")
	v.SetDefault("commit.subject_limit", 72)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.spinner_style", "dots")

	v.SetDefault("security.warning_acknowledged", false)
}

// GetConfigPath returns the path to the configuration file.
func (m *ViperManager) GetConfigPath() string {
	return m.configPath
}

// Load loads the configuration from file, environment, and defaults.
// Priority: flags > env > file > defaults
func (m *ViperManager) Load() (*Config, error) {
	// Try to read config file (ignore error if file doesn't exist)
	if err := m.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Only return error if it's not a "file not found" error
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Init creates a new configuration file with default values.
// Sets file permissions to 0600 for security.
func (m *ViperManager) Init() error {
	// Check if config file already exists
	if _, err := os.Stat(m.configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", m.configPath)
	}

	// Ensure parent directory exists
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write default config to file
	if err := m.v.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Set file permissions to 0600 (user read/write only) for security
	if err := os.Chmod(m.configPath, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	return nil
}

// Set sets a configuration value by key.
// Supports nested keys using dot notation (e.g., "provider.name").
func (m *ViperManager) Set(key string, value string) error {
	// Load existing config first
	if err := m.v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Convert value to appropriate type based on existing value type
	existingValue := m.v.Get(key)
	convertedValue, err := convertValue(value, existingValue)
	if err != nil {
		return fmt.Errorf("failed to convert value for key %s: %w", key, err)
	}

	m.v.Set(key, convertedValue)

	// Write updated config
	if err := m.v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// convertValue converts a string value to the appropriate type based on the existing value type.
func convertValue(value string, existingValue interface{}) (interface{}, error) {
	if existingValue == nil {
		return value, nil
	}

	switch existingValue.(type) {
	case bool:
		return strconv.ParseBool(value)
	case int, int64:
		return strconv.ParseInt(value, 10, 64)
	case float32, float64:
		return strconv.ParseFloat(value, 64)
	case []interface{}, []string:
		// For arrays, split by comma
		return strings.Split(value, ","), nil
	default:
		return value, nil
	}
}

// Get retrieves a configuration value by key.
func (m *ViperManager) Get(key string) (string, error) {
	// Load config first
	if err := m.v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to read config file: %w", err)
		}
	}

	value := m.v.Get(key)
	if value == nil {
		return "", fmt.Errorf("key not found: %s", key)
	}

	return fmt.Sprintf("%v", value), nil
}

// List returns all configuration values as a map.
func (m *ViperManager) List() map[string]interface{} {
	// Load config first (ignore errors, use defaults)
	_ = m.v.ReadInConfig()

	return m.v.AllSettings()
}

// SetOverride sets a temporary override for a configuration key.
// This is used for command-line flag overrides that shouldn't persist.
func (m *ViperManager) SetOverride(key string, value interface{}) {
	m.v.Set(key, value)
}

// ConfigExists checks if the configuration file exists.
func (m *ViperManager) ConfigExists() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}

// AcknowledgeSecurityWarning marks the security warning as acknowledged.
func (m *ViperManager) AcknowledgeSecurityWarning() error {
	return m.Set("security.warning_acknowledged", "true")
}

// IsSecurityWarningAcknowledged checks if the security warning has been acknowledged.
func (m *ViperManager) IsSecurityWarningAcknowledged() bool {
	// Load config first (ignore errors, use defaults)
	_ = m.v.ReadInConfig()
	return m.v.GetBool("security.warning_acknowledged")
}
