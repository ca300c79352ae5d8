package interp

import (
	"fmt"

	"github.com/sandrundev/sandrun/sandbox"
)

// buildGlobals constructs the global environment for one execution. It is
// the capability gate: only allow-listed builtins, imported allow-listed
// modules, and the registry tools the snippet references (Program.ToolRefs)
// are visible. Tool bindings are installed last, so a tool name shadows any
// builtin or module binding of the same name.
func buildGlobals(prog *Program, gw *sandbox.Gateway) (*environment, error) {
	env := newEnvironment(nil)
	env.global = true
	env.define("true", true)
	env.define("false", false)
	env.define("nil", nil)

	for name, fn := range filterBuiltins(defaultBuiltins(gw), gw.AllowedBuiltins()) {
		env.define(name, fn)
	}

	allowed := make(map[string]bool)
	for _, name := range gw.AllowedModules() {
		allowed[name] = true
	}
	tables := moduleTables()
	for _, name := range prog.Imports {
		if !allowed[name] {
			return nil, &sandbox.CodeError{
				Message: fmt.Sprintf("import of %q is not allowed", name),
				Err:     sandbox.ErrSandboxViolation,
			}
		}
		mod, ok := tables[name]
		if !ok {
			return nil, &sandbox.CodeError{
				Message: fmt.Sprintf("module %q is not available", name),
				Err:     sandbox.ErrSandboxViolation,
			}
		}
		env.define(name, mod)
	}

	for _, name := range prog.ToolRefs {
		env.define(name, &toolFunc{name: name})
	}
	return env, nil
}
