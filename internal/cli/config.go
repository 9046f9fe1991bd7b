package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// defaultServerURL is where login looks when no server is given.
const defaultServerURL = "http://localhost:8080"

// CLIConfig holds CLI configuration persisted to disk.
type CLIConfig struct {
	ServerURL string `yaml:"server_url,omitempty"`
	Token     string `yaml:"token,omitempty"` // session token or gb_ API key
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gb", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// saveConfig writes the CLI config to disk.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// remoteURL returns the server to work against, or "" to use the local
// database. The --server flag wins over GB_SERVER_URL, which wins over a
// server saved by login.
func remoteURL() string {
	if flagServer != "" {
		return flagServer
	}
	if v := os.Getenv("GB_SERVER_URL"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil {
		return cfg.ServerURL
	}
	return ""
}

// getServerURL is remoteURL with a default, for login and status.
func getServerURL() string {
	if url := remoteURL(); url != "" {
		return url
	}
	return defaultServerURL
}

// getToken returns the bearer credential from env var or config.
func getToken() string {
	if v := os.Getenv("GB_TOKEN"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil {
		return cfg.Token
	}
	return ""
}
