package sandbox

import (
	"fmt"
	"time"

	"github.com/sandrundev/sandrun/tool"
)

// Default configuration values.
const (
	// DefaultMaxToolCalls bounds tool invocations per execution.
	DefaultMaxToolCalls = 5

	// DefaultTimeout bounds wall-clock time per execution.
	DefaultTimeout = 30 * time.Second
)

// DefaultAllowedModules is the module allow-list applied when Config leaves
// AllowedModules nil.
var DefaultAllowedModules = []string{"math", "strings", "json", "time"}

// Config holds the configuration for an Executor.
type Config struct {
	// Engine is the pluggable snippet engine.
	// Required.
	Engine Engine

	// Registry is the source of callable tools. Optional; nil means the
	// snippet can only use builtins and allowed modules.
	Registry tool.Registry

	// MaxToolCalls limits tool invocations per execution.
	// Defaults to DefaultMaxToolCalls; negative means unlimited.
	MaxToolCalls int

	// Timeout is the default execution timeout when RunParams does not
	// set one. Defaults to DefaultTimeout; negative means no timeout.
	Timeout time.Duration

	// AllowedModules is the importable module allow-list.
	// Nil means DefaultAllowedModules; empty means no imports at all.
	AllowedModules []string

	// AllowedBuiltins restricts the builtin functions visible to snippets.
	// Nil means the engine's default builtin set.
	AllowedBuiltins []string

	// Logger is an optional logger for observability.
	Logger Logger

	// Metrics is an optional execution metrics sink.
	Metrics Metrics
}

// Validate checks that all required fields are set.
// Returns ErrConfiguration if any required field is missing.
func (c *Config) Validate() error {
	if c.Engine == nil {
		return fmt.Errorf("%w: missing required field: Engine", ErrConfiguration)
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func (c *Config) applyDefaults() {
	if c.MaxToolCalls == 0 {
		c.MaxToolCalls = DefaultMaxToolCalls
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.AllowedModules == nil {
		c.AllowedModules = append([]string(nil), DefaultAllowedModules...)
	}
}
