package tool

import (
	"context"
	"errors"
)

// Common errors for registry operations.
var (
	ErrToolNotFound = errors.New("tool not found in registry")
	ErrBadArgs      = errors.New("invalid tool arguments")
)

// Param describes one positional parameter of a tool. Order matters: it is
// the order snippet call sites supply arguments in.
type Param struct {
	// Name is the parameter name.
	Name string

	// Type is the JSON-schema type of the parameter ("string", "number",
	// "integer", "boolean", "array", "object").
	Type string

	// Required reports whether the parameter must be supplied.
	Required bool
}

// Spec describes a tool exposed by a registry.
type Spec struct {
	// Name is the identifier snippets call the tool by.
	Name string

	// Description is a human-readable summary of what the tool does.
	Description string

	// Params lists the tool's parameters in positional order.
	Params []Param

	// InputSchema is the tool's JSON schema, when the backing source
	// provides one (MCP servers do; local tools derive it from Params).
	InputSchema map[string]any
}

// Registry is a source of callable tools. Snippets address tools by name
// with positional arguments; Invoke blocks until the tool's result is
// available.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods must honor cancellation/deadlines.
// - Errors: unknown names return ErrToolNotFound; arity/shape problems return ErrBadArgs.
// - Ownership: args are read-only; returned specs/values are caller-owned.
type Registry interface {
	// List returns all tools available from this registry.
	// An empty registry is valid and returns an empty slice.
	List(ctx context.Context) ([]Spec, error)

	// Invoke calls a tool with positional arguments and returns its value.
	Invoke(ctx context.Context, name string, args []any) (any, error)
}
