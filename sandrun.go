// Package sandrun executes LLM-generated code snippets inside an
// in-process sandbox with budgeted access to a tool registry.
//
// The one-call form covers most uses:
//
//	reg := tool.NewLocal()
//	reg.Register(tool.Def{Name: "add", ...})
//	result := sandrun.Run(ctx, `result = add(2, 3)`, reg)
//
// Run never fails with a Go error: parse failures, sandbox violations,
// exhausted budgets, timeouts, and runtime errors all land in the result's
// error branch. Construct a Runner instead when the same configuration is
// reused across executions or when configuration errors must surface.
package sandrun

import (
	"context"

	"github.com/sandrundev/sandrun/interp"
	"github.com/sandrundev/sandrun/sandbox"
	"github.com/sandrundev/sandrun/tool"
)

// ExecutionResult is the report produced for every execution.
type ExecutionResult = sandbox.ExecutionResult

// Registry is the tool source snippets draw their callables from.
type Registry = tool.Registry

// Runner executes snippets against a fixed configuration.
type Runner struct {
	exec *sandbox.Executor
}

// New creates a Runner for the given registry. A nil registry is valid;
// snippets then have only builtins and allowed modules.
func New(registry tool.Registry, opts ...Option) (*Runner, error) {
	cfg := sandbox.Config{
		Engine:   interp.New(),
		Registry: registry,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	exec, err := sandbox.NewExecutor(cfg)
	if err != nil {
		return nil, err
	}
	return &Runner{exec: exec}, nil
}

// Run executes one snippet and reports the outcome.
func (r *Runner) Run(ctx context.Context, code string) ExecutionResult {
	return r.exec.Run(ctx, sandbox.RunParams{Code: code})
}

// RunParams executes one snippet with per-call parameter overrides.
func (r *Runner) RunParams(ctx context.Context, params sandbox.RunParams) ExecutionResult {
	return r.exec.Run(ctx, params)
}

// Run executes a snippet against a registry in one call. Configuration
// problems are reported through the result's error branch like every other
// failure, so callers handle exactly one shape.
func Run(ctx context.Context, code string, registry tool.Registry, opts ...Option) ExecutionResult {
	runner, err := New(registry, opts...)
	if err != nil {
		return ExecutionResult{
			Status: sandbox.StatusError,
			Error:  err.Error(),
		}
	}
	return runner.Run(ctx, code)
}
