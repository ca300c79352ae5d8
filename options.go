package sandrun

import (
	"time"

	"github.com/sandrundev/sandrun/sandbox"
)

// Option configures a Runner.
type Option func(*sandbox.Config)

// WithEngine replaces the default snippet engine.
func WithEngine(e sandbox.Engine) Option {
	return func(c *sandbox.Config) {
		c.Engine = e
	}
}

// WithTimeout sets the default execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *sandbox.Config) {
		c.Timeout = d
	}
}

// WithMaxToolCalls sets the tool call budget per execution.
// Negative means unlimited.
func WithMaxToolCalls(n int) Option {
	return func(c *sandbox.Config) {
		c.MaxToolCalls = n
	}
}

// WithAllowedModules sets the importable module allow-list.
// An empty non-nil slice forbids all imports.
func WithAllowedModules(modules []string) Option {
	return func(c *sandbox.Config) {
		c.AllowedModules = modules
	}
}

// WithAllowedBuiltins restricts the builtin functions visible to snippets.
func WithAllowedBuiltins(builtins []string) Option {
	return func(c *sandbox.Config) {
		c.AllowedBuiltins = builtins
	}
}

// WithLogger sets an observability logger.
func WithLogger(l sandbox.Logger) Option {
	return func(c *sandbox.Config) {
		c.Logger = l
	}
}

// WithMetrics sets an execution metrics sink.
func WithMetrics(m sandbox.Metrics) Option {
	return func(c *sandbox.Config) {
		c.Metrics = m
	}
}
