package interp

import (
	"context"
	"errors"

	"github.com/sandrundev/sandrun/sandbox"
)

// Engine is the in-process snippet engine. It transforms raw snippet text,
// gates its capabilities, and evaluates it against the tool gateway.
//
// Contract:
// - Concurrency: safe for concurrent use; all per-execution state lives in the evaluator.
// - Context: honors cancellation/deadlines; tight loops are interrupted per iteration.
// - Errors: failures return CodeError wrapping ErrSyntax, ErrSandboxViolation,
//   ErrLimitExceeded, or ErrRuntime.
type Engine struct{}

// New creates the snippet engine.
func New() *Engine {
	return &Engine{}
}

// Execute runs a snippet end to end: transform, gate, evaluate. The result
// value is an explicit top-level return when present, otherwise the final
// value of a variable named result, otherwise nil.
func (e *Engine) Execute(ctx context.Context, params sandbox.RunParams, gw *sandbox.Gateway) (sandbox.EngineResult, error) {
	names, err := gw.Names(ctx)
	if err != nil {
		return sandbox.EngineResult{}, err
	}

	prog, err := Transform(params.Code, names)
	if err != nil {
		return sandbox.EngineResult{}, err
	}

	globals, err := buildGlobals(prog, gw)
	if err != nil {
		return sandbox.EngineResult{}, err
	}

	ev := &evaluator{ctx: ctx, fset: prog.Fset, gw: gw}
	root := newEnvironment(globals)
	root.boundary = true

	err = ev.execBlock(prog.Body, root)
	if err != nil {
		var ctrl *control
		if errors.As(err, &ctrl) {
			if ctrl.kind == ctrlReturn {
				return sandbox.EngineResult{Value: ctrl.value, Returned: true}, nil
			}
			return sandbox.EngineResult{}, &sandbox.CodeError{
				Message: "break or continue outside a loop",
				Err:     sandbox.ErrRuntime,
			}
		}
		return sandbox.EngineResult{}, err
	}

	// Only the snippet's own scope counts; a global binding named result
	// (e.g. a tool) is not a snippet value.
	value := root.vars["result"]
	return sandbox.EngineResult{Value: value}, nil
}
