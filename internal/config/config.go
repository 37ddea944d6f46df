// Package config handles chatbot configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/chatbot/config.yaml, /etc/chatbot/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "chatbot", "config.yaml"))
	}

	paths = append(paths, "/etc/chatbot/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all chatbot configuration.
type Config struct {
	Listen    ListenConfig   `yaml:"listen"`
	Database  DatabaseConfig `yaml:"database"`
	Ollama    OllamaConfig   `yaml:"ollama"`
	Memory    MemoryConfig   `yaml:"memory"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"` // "text" or "json"
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// DatabaseConfig defines the SQLite database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// OllamaConfig defines the text-generation backend settings.
type OllamaConfig struct {
	URL         string  `yaml:"url"`   // Base URL (default: http://localhost:11434)
	Model       string  `yaml:"model"` // Model name (default: llama3.2:3b)
	Temperature float64 `yaml:"temperature"`
}

// MemoryConfig defines the conversation memory window.
type MemoryConfig struct {
	// MaxExchanges is the number of user+assistant pairs injected into
	// the generative prompt. One exchange is two messages.
	MaxExchanges int `yaml:"max_exchanges"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if cfg.Memory.MaxExchanges <= 0 {
		cfg.Memory.MaxExchanges = 3
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen:   ListenConfig{Port: 8080},
		Database: DatabaseConfig{Path: "chatbot.db"},
		Ollama: OllamaConfig{
			URL:         "http://localhost:11434",
			Model:       "llama3.2:3b",
			Temperature: 0.4,
		},
		Memory:    MemoryConfig{MaxExchanges: 3},
		LogLevel:  "info",
		LogFormat: "text",
	}
}
