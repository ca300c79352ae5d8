package sandbox

import "time"

// Status is the terminal state of an execution. There are exactly two.
type Status string

const (
	// StatusSuccess means the snippet ran to completion.
	StatusSuccess Status = "success"

	// StatusError means the snippet failed to parse, violated the sandbox,
	// exhausted a limit, or raised a runtime error.
	StatusError Status = "error"
)

// ToolCallRecord captures information about a single tool invocation during
// code execution. It records the tool name, arguments, result, and timing
// information for observability and debugging.
type ToolCallRecord struct {
	// Tool is the name of the tool that was called.
	Tool string `json:"tool"`

	// Args contains the positional arguments passed to the tool.
	Args []any `json:"args,omitempty"`

	// Result contains the value from a successful tool invocation.
	Result any `json:"result,omitempty"`

	// Error contains the error message if the tool call failed.
	Error string `json:"error,omitempty"`

	// DurationMs is the invocation time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}

// RunParams specifies the parameters for executing a code snippet.
type RunParams struct {
	// Code is the snippet source to execute.
	Code string `json:"code"`

	// Timeout specifies the maximum duration for execution.
	// If zero, the executor's default timeout is used.
	Timeout time.Duration `json:"timeout,omitempty"`

	// MaxToolCalls limits the number of tool invocations allowed.
	// If zero, the executor's configured limit applies.
	MaxToolCalls int `json:"maxToolCalls,omitempty"`
}

// ExecutionResult is the report produced for every execution.
//
// Status is always one of StatusSuccess or StatusError. Result is only
// meaningful on success; Error is only set on failure. TotalTime is
// populated on both branches.
type ExecutionResult struct {
	// Status is the terminal state of the execution.
	Status Status `json:"status"`

	// Result is the snippet's value: an explicit return wins, otherwise
	// the final value of a variable named "result", otherwise nil.
	Result any `json:"result,omitempty"`

	// Error is the classified failure message when Status is StatusError.
	Error string `json:"error,omitempty"`

	// TotalTime is the wall-clock execution time in seconds.
	TotalTime float64 `json:"total_time"`

	// Output contains text written via print/println inside the snippet.
	Output string `json:"output,omitempty"`

	// ToolCalls records all tool invocations made during execution.
	ToolCalls []ToolCallRecord `json:"toolCalls,omitempty"`
}

// OK reports whether the execution succeeded.
func (r ExecutionResult) OK() bool {
	return r.Status == StatusSuccess
}

// EngineResult is the raw outcome an Engine hands back to the executor,
// before classification into an ExecutionResult.
type EngineResult struct {
	// Value is the snippet's result value.
	Value any

	// Returned reports whether Value came from an explicit return
	// statement rather than the result variable convention.
	Returned bool
}
