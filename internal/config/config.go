package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/runloop/rl-cli/internal/constants"
	"github.com/runloop/rl-cli/internal/domain"
	"gopkg.in/yaml.v3"
)

// Config holds the resolved client configuration. It is constructed
// once at startup and passed to command handlers; nothing mutates it
// afterwards.
type Config struct {
	// APIKey is the bearer token for the platform API
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint (normally derived from RUNLOOP_ENV)
	BaseURL string `yaml:"base_url,omitempty"`

	// configPath is the path this config was loaded from (not serialized)
	configPath string `yaml:"-"`
}

// Load resolves configuration from the environment and the optional
// config file. Environment variables win over file values. The file
// being absent is not an error; a missing API key is.
func Load(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	if key := os.Getenv(constants.APIKeyEnvVar); key != "" {
		cfg.APIKey = key
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURLForEnv()
	}

	if cfg.APIKey == "" {
		return nil, domain.Errorf(domain.ErrNotConfigured,
			"API key not found, %s must be set (or run 'rl configure')", constants.APIKeyEnvVar)
	}

	return cfg, nil
}

// loadFile reads the config file if present
func loadFile(path string) (*Config, error) {
	if path == "" {
		path = getConfigPath()
	}

	cfg := &Config{configPath: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, domain.Errorf(domain.ErrNotConfigured, "failed to read config: %v", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, domain.Errorf(domain.ErrNotConfigured, "failed to parse config: %v", err)
	}
	cfg.configPath = path

	return cfg, nil
}

// Save writes the configuration to the specified path using atomic write
func (c *Config) Save(path string) error {
	if path == "" {
		path = getConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return domain.Errorf(domain.ErrNotConfigured, "failed to create config directory: %v", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return domain.Errorf(domain.ErrNotConfigured, "failed to marshal config: %v", err)
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return domain.Errorf(domain.ErrNotConfigured, "failed to write config: %v", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return domain.Errorf(domain.ErrNotConfigured, "failed to save config: %v", err)
	}

	c.configPath = path
	return nil
}

// Path returns the path this config was loaded from
func (c *Config) Path() string {
	return c.configPath
}

// IsDev reports whether the dev environment is selected
func IsDev() bool {
	return strings.EqualFold(os.Getenv(constants.EnvEnvVar), "dev")
}

// baseURLForEnv returns the API endpoint for the selected environment
func baseURLForEnv() string {
	if IsDev() {
		return constants.DevBaseURL
	}
	return constants.ProdBaseURL
}

// SSHProxyAddr returns the SSH proxy endpoint for the selected environment
func SSHProxyAddr() string {
	if IsDev() {
		return constants.DevSSHProxyAddr
	}
	return constants.ProdSSHProxyAddr
}

// getConfigPath returns the config path from env var or default
func getConfigPath() string {
	if path := os.Getenv(constants.ConfigEnvVar); path != "" {
		return path
	}
	return constants.DefaultConfigPath()
}

// Exists checks if a config file exists at the default or specified path
func Exists(path string) bool {
	if path == "" {
		path = getConfigPath()
	}
	_, err := os.Stat(path)
	return err == nil
}

// ConfigPath returns the path that would be used for config
func ConfigPath(override string) string {
	if override != "" {
		return override
	}
	return getConfigPath()
}

// String returns a string representation (for debugging, hides the key)
func (c *Config) String() string {
	key := ""
	if c.APIKey != "" {
		key = "[set]"
	}
	return fmt.Sprintf("Config{APIKey: %s, BaseURL: %q}", key, c.BaseURL)
}
