// Package config loads the campus CLI configuration.
//
// Configuration lives in a yaml file under the user's config directory
// and is merged over built-in defaults; every value can be left unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the configuration directory relative to the
	// user's home directory.
	DefaultConfigDir = ".config/campus"

	configFileName = "config.yaml"

	// EnvConfigPath overrides the configuration file location.
	EnvConfigPath = "CAMPUS_CONFIG"
)

// Storage backends for the credential store.
const (
	StorageKeyring = "keyring"
	StorageFile    = "file"
)

// Config is the top-level configuration for the campus CLI.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Auth      AuthConfig       `yaml:"auth"`
	Endpoints *EndpointsConfig `yaml:"endpoints,omitempty"`
}

// ServerConfig points at the course-management backend.
type ServerConfig struct {
	// BaseURL is the root of the course service REST API.
	BaseURL string `yaml:"baseURL,omitempty"`
}

// AuthConfig configures the authentication session manager.
type AuthConfig struct {
	// Issuer is the identity provider used for endpoint discovery.
	Issuer string `yaml:"issuer,omitempty"`

	// ClientID is the OAuth client ID of this CLI.
	ClientID string `yaml:"clientID,omitempty"`

	// CallbackPort is the loopback port for the login redirect.
	CallbackPort int `yaml:"callbackPort,omitempty"`

	// Storage selects the credential backend: keyring or file.
	Storage string `yaml:"storage,omitempty"`
}

// EndpointsConfig pins provider endpoints explicitly, bypassing
// discovery. All four must be set for the pin to be used.
type EndpointsConfig struct {
	Authorization string `yaml:"authorization"`
	Token         string `yaml:"token"`
	Userinfo      string `yaml:"userinfo,omitempty"`
	EndSession    string `yaml:"endSession,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL: "https://courses.example.org/api/v0",
		},
		Auth: AuthConfig{
			Issuer:       "https://auth.example.org",
			ClientID:     "campus-cli",
			CallbackPort: 3000,
			Storage:      StorageKeyring,
		},
	}
}

// Load reads the configuration file and merges it over the defaults.
// Resolution order for the file path: the explicit argument, the
// CAMPUS_CONFIG environment variable, then the default location. A
// missing file yields the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	config := DefaultConfig()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return config, nil
		}
		path = filepath.Join(homeDir, DefaultConfigDir, configFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

// Validate checks the loaded configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Auth.Storage != "" && c.Auth.Storage != StorageKeyring && c.Auth.Storage != StorageFile {
		return fmt.Errorf("auth.storage must be %q or %q, got %q", StorageKeyring, StorageFile, c.Auth.Storage)
	}
	if c.Auth.CallbackPort < 0 || c.Auth.CallbackPort > 65535 {
		return fmt.Errorf("auth.callbackPort %d is out of range", c.Auth.CallbackPort)
	}
	if c.Endpoints != nil && (c.Endpoints.Authorization == "" || c.Endpoints.Token == "") {
		return fmt.Errorf("pinned endpoints must include authorization and token")
	}
	return nil
}
