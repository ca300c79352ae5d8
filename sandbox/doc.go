// Package sandbox provides the orchestration layer for executing
// LLM-generated code snippets inside an in-process sandbox.
//
// sandbox sits between the snippet engine and the tool registry. It applies
// limits, routes tool calls through a budgeted gateway, and converts every
// failure into a uniform report.
//
// # Architecture
//
// The package defines three main pieces:
//
//   - [Engine]: the pluggable snippet engine that parses, gates, and
//     evaluates code with access to the tool gateway.
//
//   - [Gateway]: the tool environment exposed to one execution, enforcing
//     the shared call budget and recording a trace of every invocation.
//
//   - [Executor]: the main entry point that orchestrates execution,
//     applying defaults, enforcing limits, and reporting results.
//
// # Execution Limits
//
// The executor enforces two limits:
//
//   - Timeout: applied via context deadline, reported as "limit exceeded"
//   - MaxToolCalls: a shared per-execution counter, default 5, reported as
//     "limit exceeded" when exhausted
//
// # Result Reporting
//
// Every execution produces an [ExecutionResult] with exactly two terminal
// states, StatusSuccess or StatusError. Syntax errors, sandbox violations,
// exhausted limits, timeouts, and runtime errors are all converted into the
// error branch; [Executor.Run] never returns a Go error for them. TotalTime
// is the wall-clock duration in seconds and is set on both branches.
//
// # Result Convention
//
// A snippet's value is an explicit top-level return when present, otherwise
// the final value of a variable named result, otherwise nil.
package sandbox
