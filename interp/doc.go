// Package interp implements the in-process engine for sandboxed snippets.
//
// Snippets are written in a restricted Go-flavored dialect: top-level
// statements, dynamic values, import lines for allow-listed modules, and
// Python-style keyword arguments at call sites (rewritten to positional
// form before parsing). The pipeline is:
//
//	source → Transform (imports out, keywords stripped, body wrapped)
//	       → capability gate (builtins, modules, tool bindings)
//	       → go/parser compile → tree-walking evaluation
//
// Tool calls are ordinary call expressions; the evaluator dispatches them
// through the sandbox Gateway and blocks until the result is available, so
// snippets never deal with awaitables themselves. A tool name shadows any
// builtin or module of the same name.
//
// The evaluator checks its context at every statement and loop iteration,
// so executor deadlines interrupt even non-terminating loops.
package interp
