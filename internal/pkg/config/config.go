// Package config provides configuration management for CommitCoach and its proxy.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// DefaultServer is the public proxy used when no server is configured.
const DefaultServer = "https://commitcoach-proxy.onrender.com"

// Config represents the complete CommitCoach CLI configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Commit   CommitConfig   `mapstructure:"commit"`
	UI       UIConfig       `mapstructure:"ui"`
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig contains settings for reaching the suggestion proxy.
type ServerConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CommitConfig contains settings for the generated message.
type CommitConfig struct {
	Style string `mapstructure:"style"`
	// SubjectLimit is the subject length above which a warning is shown.
	SubjectLimit int `mapstructure:"subject_limit"`
}

// UIConfig contains UI-related settings.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	SpinnerStyle string `mapstructure:"spinner_style"`
}

// SecurityConfig contains security-related settings.
type SecurityConfig struct {
	// WarningAcknowledged indicates if the user has acknowledged the first-use security warning.
	WarningAcknowledged bool `mapstructure:"warning_acknowledged"`
}

// Validate checks the values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server.url must be an http(s) URL, got %q", c.Server.URL)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	return nil
}

// Manager defines the interface for configuration management.
type Manager interface {
	Load() (*Config, error)
	Set(key string, value string) error
	Get(key string) (string, error)
	Init() error
	List() map[string]interface{}
	GetConfigPath() string
}

var _ Manager = (*ViperManager)(nil)
