package interp

import (
	"context"
	"fmt"
	"go/ast"
)

// environment is a lexical scope chain for snippet variables.
//
// global marks the capability-gate scope holding builtins, modules, and
// tool bindings; snippet code never writes into it. boundary marks a
// function frame (the snippet root or a closure call), which is where
// plain = auto-declares unbound names.
type environment struct {
	parent   *environment
	vars     map[string]any
	global   bool
	boundary bool
}

func newEnvironment(parent *environment) *environment {
	return &environment{parent: parent, vars: make(map[string]any)}
}

// get resolves a name through the scope chain.
func (e *environment) get(name string) (any, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// define binds a name in the current scope, shadowing outer bindings.
func (e *environment) define(name string, v any) {
	e.vars[name] = v
}

// goFunc is a host-provided callable: builtins and module functions.
type goFunc struct {
	name string
	fn   func(ctx context.Context, args []any) (any, error)
}

// toolFunc is a registry tool binding; calls block until the tool's
// result is available and are routed through the gateway.
type toolFunc struct {
	name string
}

// funcValue is a snippet-defined closure. Parameters and results are
// type-erased.
type funcValue struct {
	params []string
	body   *ast.BlockStmt
	env    *environment
}

// module is a read-only table of functions and constants exposed to
// snippets under a single imported name.
type module struct {
	name    string
	members map[string]any
}

func (m *module) member(name string) (any, error) {
	v, ok := m.members[name]
	if !ok {
		return nil, fmt.Errorf("module %s has no member %s", m.name, name)
	}
	return v, nil
}
