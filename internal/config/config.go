package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// LLMConfig holds settings for the action suggestion provider
type LLMConfig struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider"` // ollama, bedrock
	Model    string `json:"model"`
	Endpoint string `json:"endpoint"`
	Region   string `json:"region"` // For AWS Bedrock
	Timeout  string `json:"timeout"`
}

// Config holds all configuration for the triage core
type Config struct {
	Credentials string `json:"credentials"`
	Token       string `json:"token"`

	// Account the override store is scoped to
	Account string `json:"account"`

	// Path for the local sqlite database (overrides, history)
	DBPath string `json:"db_path"`

	// LLM suggestion provider
	LLM LLMConfig `json:"llm"`

	// Logging
	LogFile string `json:"log_file"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Account: "default",
		LLM:     DefaultLLMConfig(),
		LogFile: "",
	}
}

// DefaultLLMConfig returns default LLM configuration
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Enabled:  false,
		Provider: "ollama",
		Model:    "llama3.2:latest",
		Endpoint: "http://localhost:11434/api/generate",
		Timeout:  "20s",
	}
}

// LoadConfig loads configuration from file, falling back to defaults for
// anything the file does not set
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "triage", "config.json")
}

// DefaultCredentialPaths returns the default paths for credentials and token
func DefaultCredentialPaths() (string, string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}

	configDir := filepath.Join(home, ".config", "triage")
	return filepath.Join(configDir, "credentials.json"), filepath.Join(configDir, "token.json")
}

// DefaultDBPath returns the default sqlite database path
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "triage", "triage.sqlite3")
}

// GetLLMTimeout returns parsed timeout for the suggestion provider
func (c *Config) GetLLMTimeout() time.Duration {
	if c.LLM.Timeout != "" {
		if d, err := time.ParseDuration(c.LLM.Timeout); err == nil {
			return d
		}
	}
	return 20 * time.Second
}
