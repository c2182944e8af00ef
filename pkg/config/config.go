package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"
)

type ProviderOptions struct {
	BaseURL  string `yaml:"baseUrl"`
	ClientID string `yaml:"clientId"`
	Secret   string `yaml:"secret"`
	// PageTimeoutSeconds bounds each provider call within a sync job.
	PageTimeoutSeconds int `yaml:"pageTimeoutSeconds"`
}

// Config holds the application configuration
type Config struct {
	DatabasePath string          `yaml:"databasePath"`
	ListenAddr   string          `yaml:"listenAddr"`
	Provider     ProviderOptions `yaml:"provider"`
}

var (
	// Global configuration instance
	globalConfig *Config
	// Mutex to ensure thread-safe access to the global configuration
	configMutex sync.RWMutex
	// Flag to track if the configuration has been loaded
	configLoaded bool
)

func defaults() *Config {
	return &Config{
		DatabasePath: "ledgerlink.db",
		ListenAddr:   ":8080",
		Provider: ProviderOptions{
			BaseURL:            "https://sandbox.provider.example",
			PageTimeoutSeconds: 30,
		},
	}
}

// LoadConfig loads the configuration from the specified YAML file
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := defaults()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}

// InitGlobalConfig initializes the global configuration from the specified file
func InitGlobalConfig(configPath string) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	globalConfig = config
	configLoaded = true
	return nil
}

// GetConfig returns the global configuration instance. If the
// configuration hasn't been loaded yet, it attempts to load it from the
// default location (./config.yaml), creating a default file when none
// exists.
func GetConfig() (*Config, error) {
	configMutex.RLock()
	if configLoaded {
		defer configMutex.RUnlock()
		return globalConfig, nil
	}
	configMutex.RUnlock()

	configPath := "config.yaml"
	if err := InitGlobalConfig(configPath); err != nil {
		// The read error is wrapped, so unwrap-aware matching is required
		// here; os.IsNotExist would never see through it.
		if errors.Is(err, os.ErrNotExist) {
			dir := filepath.Dir(configPath)
			if dir != "" && dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return nil, fmt.Errorf("error creating config directory: %w", err)
				}
			}

			defaultConfig := defaults()
			data, err := yaml.Marshal(defaultConfig)
			if err != nil {
				return nil, fmt.Errorf("error creating default config: %w", err)
			}

			if err := os.WriteFile(configPath, data, 0644); err != nil {
				return nil, fmt.Errorf("error writing default config: %w", err)
			}

			configMutex.Lock()
			globalConfig = defaultConfig
			configLoaded = true
			configMutex.Unlock()

			return defaultConfig, nil
		}
		return nil, err
	}

	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig, nil
}

// GetProviderCredentials returns the provider API credentials from the
// configuration. The secret is opaque and must never be logged.
func GetProviderCredentials() (clientID, secret string, err error) {
	config, err := GetConfig()
	if err != nil {
		return "", "", err
	}

	if config.Provider.ClientID == "" || config.Provider.Secret == "" {
		return "", "", fmt.Errorf("error: provider API credentials not set in configuration")
	}

	return config.Provider.ClientID, config.Provider.Secret, nil
}
