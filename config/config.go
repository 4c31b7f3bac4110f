// Package config handles reading taskagent.yaml.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for taskagent.yaml.
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	Session SessionConfig `yaml:"session"`
	LLM     LLMConfig     `yaml:"llm"`
	Log     LogConfig     `yaml:"log"`
}

// AgentConfig configures the turn controller.
type AgentConfig struct {
	Name        string  `yaml:"name"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// SessionConfig configures the session driver.
type SessionConfig struct {
	BasePath string `yaml:"base_path"`
	PageSize int    `yaml:"page_size"`
	MaxTurns int    `yaml:"max_turns"`
}

// LLMConfig configures the model client.
type LLMConfig struct {
	MaxRetries int `yaml:"max_retries"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error
	File  string `yaml:"file"`  // empty = stderr
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			Name:        "taskagent",
			Model:       "claude-opus",
			Temperature: 0.0,
		},
		Session: SessionConfig{
			PageSize: 50,
			MaxTurns: 100,
		},
		LLM: LLMConfig{
			MaxRetries: 2,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, layering it over the defaults. A
// missing path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Agent.Model == "" {
		return fmt.Errorf("agent.model must be set")
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		return fmt.Errorf("agent.temperature %v out of range [0, 2]", c.Agent.Temperature)
	}
	if c.Session.PageSize < 0 {
		return fmt.Errorf("session.page_size must not be negative")
	}
	return nil
}
