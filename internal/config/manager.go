// Package config persists the user's provider preferences as JSON under
// the platform config directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds persistent user preferences. Environment variables
// override whatever is stored here.
type Config struct {
	LLMProvider   string  `json:"llm_provider,omitempty"` // openai, anthropic, kimi, lmstudio
	APIKey        string  `json:"api_key,omitempty"`
	Model         string  `json:"model,omitempty"`
	BaseURL       string  `json:"base_url,omitempty"`
	MaxIterations int     `json:"max_iterations,omitempty"`
	Temperature   float32 `json:"temperature,omitempty"`
	AuditPath     string  `json:"audit_path,omitempty"` // sqlite file for the run trail
	DisablePlan   bool    `json:"disable_planning,omitempty"`
}

// Manager loads and saves the configuration file.
type Manager struct {
	configDir string
}

// NewManager creates a manager rooted at the platform config directory.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("user config dir: %w", err)
	}
	return &Manager{configDir: filepath.Join(configDir, "stride")}, nil
}

// NewManagerAt creates a manager rooted at an explicit directory.
func NewManagerAt(dir string) *Manager {
	return &Manager{configDir: dir}
}

// Path returns the absolute path of the config file.
func (m *Manager) Path() string {
	return filepath.Join(m.configDir, "config.json")
}

// Load reads the configuration. A missing file is an empty config, not
// an error.
func (m *Manager) Load() (*Config, error) {
	path := m.Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config json: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration with owner-only permissions, since it
// may contain an API key.
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(m.Path(), data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Exists reports whether a config file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.Path())
	return !os.IsNotExist(err)
}

// ApplyEnv overlays environment variables onto cfg. Env always wins.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLMProvider = v
	}
	switch cfg.LLMProvider {
	case "anthropic":
		overlay(&cfg.APIKey, "ANTHROPIC_API_KEY")
		overlay(&cfg.Model, "ANTHROPIC_MODEL")
	case "kimi":
		overlay(&cfg.APIKey, "KIMI_API_KEY")
		overlay(&cfg.Model, "KIMI_MODEL")
		overlay(&cfg.BaseURL, "KIMI_BASE_URL")
	case "lmstudio":
		overlay(&cfg.APIKey, "LMSTUDIO_API_KEY")
		overlay(&cfg.Model, "LMSTUDIO_MODEL")
		overlay(&cfg.BaseURL, "LMSTUDIO_BASE_URL")
	default:
		overlay(&cfg.APIKey, "OPENAI_API_KEY")
		overlay(&cfg.Model, "OPENAI_MODEL")
		overlay(&cfg.BaseURL, "OPENAI_BASE_URL")
	}
}

func overlay(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
