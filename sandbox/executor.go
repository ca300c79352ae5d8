package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Executor is the main entry point for executing code snippets.
// It orchestrates configuration, limits, and result reporting.
//
// Contract:
// - Concurrency: safe for concurrent use; each Run gets its own Gateway.
// - Context: honors cancellation/deadlines; deadline exceeded is classified as a timeout.
// - Errors: every failure kind lands in the ExecutionResult error branch; Run returns no error.
// - Ownership: params are read-only; the returned ExecutionResult is caller-owned.
type Executor struct {
	cfg Config
}

// NewExecutor creates an Executor with the given configuration.
// Returns ErrConfiguration if any required field is missing.
func NewExecutor(cfg Config) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Executor{cfg: cfg}, nil
}

// Run executes a code snippet and reports the outcome. The result has
// exactly two terminal states: success with a value, or error with a
// classified message. Parse failures, sandbox violations, exhausted
// budgets, timeouts, and runtime errors all land in the error branch;
// none of them is returned as a Go error.
func (e *Executor) Run(ctx context.Context, params RunParams) ExecutionResult {
	timeout := params.Timeout
	if timeout <= 0 || (e.cfg.Timeout > 0 && timeout > e.cfg.Timeout) {
		timeout = e.cfg.Timeout
	}

	maxCalls := params.MaxToolCalls
	switch {
	case e.cfg.MaxToolCalls > 0:
		if maxCalls <= 0 || maxCalls > e.cfg.MaxToolCalls {
			maxCalls = e.cfg.MaxToolCalls
		}
	case maxCalls <= 0:
		maxCalls = 0 // unlimited
	}

	gw := newGateway(&e.cfg, maxCalls)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	engineResult, err := e.cfg.Engine.Execute(ctx, params, gw)
	elapsed := time.Since(start)

	result := ExecutionResult{
		TotalTime: elapsed.Seconds(),
		Output:    gw.Output(),
		ToolCalls: gw.ToolCalls(),
	}

	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: timeout after %v", ErrLimitExceeded, timeout)
	}

	if err != nil {
		result.Status = StatusError
		result.Error = classify(err)
	} else {
		result.Status = StatusSuccess
		result.Result = engineResult.Value
	}

	if e.cfg.Logger != nil {
		e.cfg.Logger.Logf("executed snippet: status=%s toolCalls=%d elapsed=%v",
			result.Status, len(result.ToolCalls), elapsed)
	}
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.ObserveExecution(result.Status, result.TotalTime)
	}
	return result
}

// Config returns a copy of the executor's effective configuration.
func (e *Executor) Config() Config {
	return e.cfg
}

// classify maps a failure to its reported message, prefixed by kind.
func classify(err error) string {
	label := "runtime error"
	switch {
	case errors.Is(err, ErrSyntax):
		label = "syntax error"
	case errors.Is(err, ErrSandboxViolation):
		label = "sandbox violation"
	case errors.Is(err, ErrLimitExceeded):
		label = "limit exceeded"
	}
	msg := err.Error()
	if strings.HasPrefix(msg, label) {
		return msg
	}
	return label + ": " + msg
}
