package sandbox

import "context"

// Engine is the pluggable engine that compiles and runs code snippets with
// access to the tool gateway. Implementations are responsible for the
// snippet dialect: parsing, capability gating, and evaluation.
//
// The Engine should:
//   - Execute the code with tool calls routed through the provided Gateway
//   - Capture the final result (explicit return, else the result variable)
//   - Write print/println output through the Gateway
//   - Wrap failures in CodeError with line/column info when available
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: failures should return CodeError wrapping one of the sentinel errors.
// - Ownership: params and Gateway are read-only; returned EngineResult is caller-owned.
type Engine interface {
	// Execute runs a code snippet with access to the tool gateway.
	Execute(ctx context.Context, params RunParams, gw *Gateway) (EngineResult, error)
}
