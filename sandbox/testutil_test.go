package sandbox

import (
	"context"
	"sync"
)

// valueEngine returns a fixed value without touching the gateway.
type valueEngine struct {
	value    any
	returned bool

	mu    sync.Mutex
	calls int
}

func (e *valueEngine) Execute(ctx context.Context, params RunParams, gw *Gateway) (EngineResult, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return EngineResult{Value: e.value, Returned: e.returned}, nil
}

// errorEngine fails with a fixed error.
type errorEngine struct {
	err error
}

func (e *errorEngine) Execute(ctx context.Context, params RunParams, gw *Gateway) (EngineResult, error) {
	return EngineResult{}, e.err
}

// blockingEngine waits for the context to expire and reports its error,
// the way a cooperative engine surfaces a timeout.
type blockingEngine struct{}

func (e *blockingEngine) Execute(ctx context.Context, params RunParams, gw *Gateway) (EngineResult, error) {
	<-ctx.Done()
	return EngineResult{}, ctx.Err()
}

// callingEngine invokes a tool through the gateway n times, then reports
// the first error it saw.
type callingEngine struct {
	tool string
	args []any
	n    int
}

func (e *callingEngine) Execute(ctx context.Context, params RunParams, gw *Gateway) (EngineResult, error) {
	var firstErr error
	for i := 0; i < e.n; i++ {
		if _, err := gw.Call(ctx, e.tool, e.args); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return EngineResult{}, firstErr
	}
	return EngineResult{Value: "done"}, nil
}

// capturingEngine records the params and context it was handed.
type capturingEngine struct {
	mu       sync.Mutex
	params   RunParams
	deadline bool
}

func (e *capturingEngine) Execute(ctx context.Context, params RunParams, gw *Gateway) (EngineResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = params
	_, e.deadline = ctx.Deadline()
	return EngineResult{}, nil
}
