// Package config loads the sandrun application configuration from a YAML
// file, with secrets supplied through the environment (a .env file is
// honored when present).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sandrundev/sandrun/sandbox"
	"github.com/sandrundev/sandrun/tool/mcp"
)

// Config is the top-level application configuration.
type Config struct {
	Sandbox SandboxConfig `yaml:"sandbox"`
	MCP     MCPConfig     `yaml:"mcp"`
	Agent   AgentConfig   `yaml:"agent"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SandboxConfig mirrors the executor limits and allow-lists.
type SandboxConfig struct {
	// MaxToolCalls bounds tool invocations per execution. Zero means the
	// library default.
	MaxToolCalls int `yaml:"max_tool_calls"`

	// Timeout is a Go duration string such as "30s".
	Timeout string `yaml:"timeout"`

	// AllowedModules overrides the importable module allow-list.
	AllowedModules []string `yaml:"allowed_modules"`

	// AllowedBuiltins restricts the builtin set.
	AllowedBuiltins []string `yaml:"allowed_builtins"`
}

// MCPConfig lists the MCP servers to connect to.
type MCPConfig struct {
	Servers []mcp.ServerConfig `yaml:"servers"`
}

// AgentConfig configures the agent loop and its planner.
type AgentConfig struct {
	// Model is the Gemini model name.
	Model string `yaml:"model"`

	// MaxSteps bounds the perception-decision-action loop.
	MaxSteps int `yaml:"max_steps"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the metrics listen address, e.g. ":9090". Empty disables
	// the endpoint.
	Listen string `yaml:"listen"`
}

// Load reads the configuration file and applies defaults. A .env file in
// the working directory is loaded first, best effort, so key material can
// stay out of the YAML.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	cfg.applyDefaults()
	if _, err := cfg.SandboxTimeout(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Agent.Model == "" {
		c.Agent.Model = "gemini-2.0-flash"
	}
	if c.Agent.MaxSteps == 0 {
		c.Agent.MaxSteps = 10
	}
	if c.Agent.APIKeyEnv == "" {
		c.Agent.APIKeyEnv = "GEMINI_API_KEY"
	}
}

// SandboxTimeout parses the configured timeout; zero means the library
// default applies.
func (c *Config) SandboxTimeout() (time.Duration, error) {
	if c.Sandbox.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Sandbox.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: bad sandbox timeout %q", sandbox.ErrConfiguration, c.Sandbox.Timeout)
	}
	return d, nil
}

// APIKey resolves the planner API key from the environment.
func (c *Config) APIKey() string {
	return os.Getenv(c.Agent.APIKeyEnv)
}
