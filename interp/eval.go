package interp

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"reflect"
	"sort"
	"strconv"

	"github.com/sandrundev/sandrun/sandbox"
)

// control is the non-local flow signal for return, break, and continue.
// It travels as an error value and is intercepted by loops and call frames.
type control struct {
	kind  controlKind
	value any
}

type controlKind int

const (
	ctrlReturn controlKind = iota
	ctrlBreak
	ctrlContinue
)

func (c *control) Error() string { return "control flow" }

// evaluator walks the parsed snippet AST. The context is checked at every
// statement and every loop iteration, so a deadline always interrupts
// execution, tight loops included.
type evaluator struct {
	ctx  context.Context
	fset *token.FileSet
	gw   *sandbox.Gateway
}

// location maps a wrapped-source position back to the original snippet.
func (ev *evaluator) location(p token.Pos) (int, int) {
	pos := ev.fset.Position(p)
	line := pos.Line - wrapLines
	if line < 1 {
		line = 1
	}
	return line, pos.Column
}

func (ev *evaluator) errAt(p token.Pos, sentinel error, format string, args ...any) error {
	line, col := ev.location(p)
	return &sandbox.CodeError{
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  col,
		Err:     sentinel,
	}
}

// execBlock runs statements in the given scope. Callers that need a fresh
// scope create one first.
func (ev *evaluator) execBlock(block *ast.BlockStmt, env *environment) error {
	for _, stmt := range block.List {
		if err := ev.execStmt(stmt, env); err != nil {
			return err
		}
	}
	return nil
}

func (ev *evaluator) execStmt(stmt ast.Stmt, env *environment) error {
	if err := ev.ctx.Err(); err != nil {
		return err
	}
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := ev.eval(s.X, env)
		return err
	case *ast.AssignStmt:
		return ev.execAssign(s, env)
	case *ast.IfStmt:
		return ev.execIf(s, env)
	case *ast.ForStmt:
		return ev.execFor(s, env)
	case *ast.RangeStmt:
		return ev.execRange(s, env)
	case *ast.ReturnStmt:
		return ev.execReturn(s, env)
	case *ast.BranchStmt:
		switch s.Tok {
		case token.BREAK:
			return &control{kind: ctrlBreak}
		case token.CONTINUE:
			return &control{kind: ctrlContinue}
		default:
			return ev.errAt(s.Pos(), sandbox.ErrRuntime, "%s is not supported", s.Tok)
		}
	case *ast.IncDecStmt:
		return ev.execIncDec(s, env)
	case *ast.DeclStmt:
		return ev.execDecl(s, env)
	case *ast.BlockStmt:
		return ev.execBlock(s, newEnvironment(env))
	case *ast.EmptyStmt:
		return nil
	default:
		return ev.errAt(stmt.Pos(), sandbox.ErrRuntime, "unsupported statement %T", stmt)
	}
}

func (ev *evaluator) execAssign(s *ast.AssignStmt, env *environment) error {
	switch s.Tok {
	case token.ASSIGN, token.DEFINE:
		if len(s.Lhs) != len(s.Rhs) {
			return ev.errAt(s.Pos(), sandbox.ErrRuntime,
				"assignment mismatch: %d targets, %d values", len(s.Lhs), len(s.Rhs))
		}
		values := make([]any, len(s.Rhs))
		for i, rhs := range s.Rhs {
			v, err := ev.eval(rhs, env)
			if err != nil {
				return err
			}
			values[i] = v
		}
		for i, lhs := range s.Lhs {
			if err := ev.assignTo(lhs, values[i], env, s.Tok == token.DEFINE); err != nil {
				return err
			}
		}
		return nil
	case token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN, token.QUO_ASSIGN, token.REM_ASSIGN:
		if len(s.Lhs) != 1 || len(s.Rhs) != 1 {
			return ev.errAt(s.Pos(), sandbox.ErrRuntime, "compound assignment needs one target")
		}
		cur, err := ev.eval(s.Lhs[0], env)
		if err != nil {
			return err
		}
		rhs, err := ev.eval(s.Rhs[0], env)
		if err != nil {
			return err
		}
		op := map[token.Token]token.Token{
			token.ADD_ASSIGN: token.ADD,
			token.SUB_ASSIGN: token.SUB,
			token.MUL_ASSIGN: token.MUL,
			token.QUO_ASSIGN: token.QUO,
			token.REM_ASSIGN: token.REM,
		}[s.Tok]
		v, err := ev.binaryOp(op, cur, rhs, s.Pos())
		if err != nil {
			return err
		}
		return ev.assignTo(s.Lhs[0], v, env, false)
	default:
		return ev.errAt(s.Pos(), sandbox.ErrRuntime, "unsupported assignment %s", s.Tok)
	}
}

// assignTo stores a value into an assignable target: a name, a list
// element, a map key, or a map field selector.
func (ev *evaluator) assignTo(target ast.Expr, v any, env *environment, define bool) error {
	switch t := target.(type) {
	case *ast.Ident:
		if t.Name == "_" {
			return nil
		}
		if define {
			env.define(t.Name, v)
		} else {
			assignVar(env, t.Name, v)
		}
		return nil
	case *ast.IndexExpr:
		container, err := ev.eval(t.X, env)
		if err != nil {
			return err
		}
		index, err := ev.eval(t.Index, env)
		if err != nil {
			return err
		}
		switch c := container.(type) {
		case []any:
			i, err := toInt("index", index)
			if err != nil {
				return ev.errAt(t.Pos(), sandbox.ErrRuntime, "%v", err)
			}
			if i < 0 || i >= int64(len(c)) {
				return ev.errAt(t.Pos(), sandbox.ErrRuntime,
					"index %d out of range (len %d)", i, len(c))
			}
			c[i] = v
			return nil
		case map[string]any:
			key, ok := index.(string)
			if !ok {
				return ev.errAt(t.Pos(), sandbox.ErrRuntime, "map key must be a string, got %T", index)
			}
			c[key] = v
			return nil
		default:
			return ev.errAt(t.Pos(), sandbox.ErrRuntime, "cannot index %T", container)
		}
	case *ast.SelectorExpr:
		container, err := ev.eval(t.X, env)
		if err != nil {
			return err
		}
		m, ok := container.(map[string]any)
		if !ok {
			return ev.errAt(t.Pos(), sandbox.ErrRuntime, "cannot set field on %T", container)
		}
		m[t.Sel.Name] = v
		return nil
	default:
		return ev.errAt(target.Pos(), sandbox.ErrRuntime, "cannot assign to %T", target)
	}
}

// assignVar implements plain = semantics: an existing binding anywhere up
// the chain is updated; an unbound name is auto-declared in the nearest
// enclosing function scope, so values set inside if/for bodies survive.
func assignVar(env *environment, name string, v any) {
	for e := env; e != nil && !e.global; e = e.parent {
		if _, ok := e.vars[name]; ok {
			e.vars[name] = v
			return
		}
	}
	target := env
	for !target.boundary && target.parent != nil && !target.parent.global {
		target = target.parent
	}
	target.vars[name] = v
}

func (ev *evaluator) execIf(s *ast.IfStmt, env *environment) error {
	scope := newEnvironment(env)
	if s.Init != nil {
		if err := ev.execStmt(s.Init, scope); err != nil {
			return err
		}
	}
	cond, err := ev.evalCond(s.Cond, scope)
	if err != nil {
		return err
	}
	if cond {
		return ev.execBlock(s.Body, newEnvironment(scope))
	}
	if s.Else != nil {
		return ev.execStmt(s.Else, scope)
	}
	return nil
}

func (ev *evaluator) execFor(s *ast.ForStmt, env *environment) error {
	scope := newEnvironment(env)
	if s.Init != nil {
		if err := ev.execStmt(s.Init, scope); err != nil {
			return err
		}
	}
	for {
		if err := ev.ctx.Err(); err != nil {
			return err
		}
		if s.Cond != nil {
			cond, err := ev.evalCond(s.Cond, scope)
			if err != nil {
				return err
			}
			if !cond {
				return nil
			}
		}
		err := ev.execBlock(s.Body, newEnvironment(scope))
		if stop, err := loopSignal(err); stop {
			return err
		}
		if s.Post != nil {
			if err := ev.execStmt(s.Post, scope); err != nil {
				return err
			}
		}
	}
}

func (ev *evaluator) execRange(s *ast.RangeStmt, env *environment) error {
	subject, err := ev.eval(s.X, env)
	if err != nil {
		return err
	}

	scope := newEnvironment(env)
	bind := func(key, value any) error {
		if s.Key != nil {
			if err := ev.bindRangeVar(s.Key, key, scope, s.Tok == token.DEFINE); err != nil {
				return err
			}
		}
		if s.Value != nil {
			if err := ev.bindRangeVar(s.Value, value, scope, s.Tok == token.DEFINE); err != nil {
				return err
			}
		}
		return nil
	}

	iterate := func(key, value any) (bool, error) {
		if err := ev.ctx.Err(); err != nil {
			return true, err
		}
		if err := bind(key, value); err != nil {
			return true, err
		}
		err := ev.execBlock(s.Body, newEnvironment(scope))
		return loopSignal(err)
	}

	switch c := subject.(type) {
	case []any:
		for i, v := range c {
			if stop, err := iterate(int64(i), v); stop {
				return err
			}
		}
	case map[string]any:
		// Deterministic iteration order.
		names := make([]string, 0, len(c))
		for k := range c {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			if stop, err := iterate(k, c[k]); stop {
				return err
			}
		}
	case string:
		for i, r := range c {
			if stop, err := iterate(int64(i), string(r)); stop {
				return err
			}
		}
	case int64:
		// range over an integer counts from 0 to n-1.
		for i := int64(0); i < c; i++ {
			if stop, err := iterate(i, nil); stop {
				return err
			}
		}
	default:
		return ev.errAt(s.X.Pos(), sandbox.ErrRuntime, "cannot range over %T", subject)
	}
	return nil
}

func (ev *evaluator) bindRangeVar(expr ast.Expr, v any, scope *environment, define bool) error {
	ident, ok := expr.(*ast.Ident)
	if !ok {
		return ev.errAt(expr.Pos(), sandbox.ErrRuntime, "range variable must be a name")
	}
	if ident.Name == "_" {
		return nil
	}
	if define {
		scope.define(ident.Name, v)
	} else {
		assignVar(scope, ident.Name, v)
	}
	return nil
}

// loopSignal interprets an error coming out of a loop body: break stops
// the loop silently, continue moves to the next iteration, anything else
// (including return) propagates.
func loopSignal(err error) (stop bool, out error) {
	if err == nil {
		return false, nil
	}
	var ctrl *control
	if errors.As(err, &ctrl) {
		switch ctrl.kind {
		case ctrlBreak:
			return true, nil
		case ctrlContinue:
			return false, nil
		}
	}
	return true, err
}

func (ev *evaluator) execReturn(s *ast.ReturnStmt, env *environment) error {
	if len(s.Results) == 0 {
		return &control{kind: ctrlReturn}
	}
	if len(s.Results) > 1 {
		return ev.errAt(s.Pos(), sandbox.ErrRuntime, "multiple return values are not supported")
	}
	v, err := ev.eval(s.Results[0], env)
	if err != nil {
		return err
	}
	return &control{kind: ctrlReturn, value: v}
}

func (ev *evaluator) execIncDec(s *ast.IncDecStmt, env *environment) error {
	cur, err := ev.eval(s.X, env)
	if err != nil {
		return err
	}
	op := token.ADD
	if s.Tok == token.DEC {
		op = token.SUB
	}
	v, err := ev.binaryOp(op, cur, int64(1), s.Pos())
	if err != nil {
		return err
	}
	return ev.assignTo(s.X, v, env, false)
}

func (ev *evaluator) execDecl(s *ast.DeclStmt, env *environment) error {
	decl, ok := s.Decl.(*ast.GenDecl)
	if !ok || decl.Tok != token.VAR {
		return ev.errAt(s.Pos(), sandbox.ErrRuntime, "unsupported declaration")
	}
	for _, spec := range decl.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for i, name := range vs.Names {
			var v any
			if i < len(vs.Values) {
				val, err := ev.eval(vs.Values[i], env)
				if err != nil {
					return err
				}
				v = val
			}
			env.define(name.Name, v)
		}
	}
	return nil
}

func (ev *evaluator) evalCond(expr ast.Expr, env *environment) (bool, error) {
	v, err := ev.eval(expr, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, ev.errAt(expr.Pos(), sandbox.ErrRuntime, "condition must be a bool, got %T", v)
	}
	return b, nil
}

func (ev *evaluator) eval(expr ast.Expr, env *environment) (any, error) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		return ev.evalLiteral(e)
	case *ast.Ident:
		v, ok := env.get(e.Name)
		if !ok {
			return nil, ev.errAt(e.Pos(), sandbox.ErrSandboxViolation, "undefined: %s", e.Name)
		}
		return v, nil
	case *ast.ParenExpr:
		return ev.eval(e.X, env)
	case *ast.UnaryExpr:
		return ev.evalUnary(e, env)
	case *ast.BinaryExpr:
		return ev.evalBinary(e, env)
	case *ast.CallExpr:
		return ev.evalCall(e, env)
	case *ast.IndexExpr:
		return ev.evalIndex(e, env)
	case *ast.SliceExpr:
		return ev.evalSlice(e, env)
	case *ast.SelectorExpr:
		return ev.evalSelector(e, env)
	case *ast.CompositeLit:
		return ev.evalComposite(e, env)
	case *ast.FuncLit:
		return ev.evalFuncLit(e, env)
	default:
		return nil, ev.errAt(expr.Pos(), sandbox.ErrRuntime, "unsupported expression %T", expr)
	}
}

func (ev *evaluator) evalLiteral(lit *ast.BasicLit) (any, error) {
	switch lit.Kind {
	case token.INT:
		n, err := strconv.ParseInt(lit.Value, 0, 64)
		if err != nil {
			return nil, ev.errAt(lit.Pos(), sandbox.ErrRuntime, "bad integer literal %s", lit.Value)
		}
		return n, nil
	case token.FLOAT:
		f, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return nil, ev.errAt(lit.Pos(), sandbox.ErrRuntime, "bad float literal %s", lit.Value)
		}
		return f, nil
	case token.STRING:
		s, err := strconv.Unquote(lit.Value)
		if err != nil {
			return nil, ev.errAt(lit.Pos(), sandbox.ErrRuntime, "bad string literal")
		}
		return s, nil
	case token.CHAR:
		s, err := strconv.Unquote(lit.Value)
		if err != nil {
			return nil, ev.errAt(lit.Pos(), sandbox.ErrRuntime, "bad character literal")
		}
		return s, nil
	default:
		return nil, ev.errAt(lit.Pos(), sandbox.ErrRuntime, "unsupported literal %s", lit.Kind)
	}
}

func (ev *evaluator) evalUnary(e *ast.UnaryExpr, env *environment) (any, error) {
	v, err := ev.eval(e.X, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.SUB:
		switch n := v.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		}
		return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime, "cannot negate %T", v)
	case token.ADD:
		if _, ok := toFloat(v); ok {
			return v, nil
		}
		return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime, "cannot apply + to %T", v)
	case token.NOT:
		b, ok := v.(bool)
		if !ok {
			return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime, "cannot apply ! to %T", v)
		}
		return !b, nil
	default:
		return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime, "unsupported unary operator %s", e.Op)
	}
}

func (ev *evaluator) evalBinary(e *ast.BinaryExpr, env *environment) (any, error) {
	if e.Op == token.LAND || e.Op == token.LOR {
		left, err := ev.evalCond(e.X, env)
		if err != nil {
			return nil, err
		}
		if e.Op == token.LAND && !left {
			return false, nil
		}
		if e.Op == token.LOR && left {
			return true, nil
		}
		return ev.evalCond(e.Y, env)
	}
	x, err := ev.eval(e.X, env)
	if err != nil {
		return nil, err
	}
	y, err := ev.eval(e.Y, env)
	if err != nil {
		return nil, err
	}
	return ev.binaryOp(e.Op, x, y, e.OpPos)
}

func (ev *evaluator) binaryOp(op token.Token, x, y any, pos token.Pos) (any, error) {
	switch op {
	case token.EQL:
		return equalValues(x, y), nil
	case token.NEQ:
		return !equalValues(x, y), nil
	}

	if xi, ok := x.(int64); ok {
		if yi, ok := y.(int64); ok {
			return ev.intOp(op, xi, yi, pos)
		}
	}
	if xf, ok := toFloat(x); ok {
		if yf, ok := toFloat(y); ok {
			return ev.floatOp(op, xf, yf, pos)
		}
	}
	if xs, ok := x.(string); ok {
		if ys, ok := y.(string); ok {
			return ev.stringOp(op, xs, ys, pos)
		}
	}
	if xl, ok := x.([]any); ok && op == token.ADD {
		if yl, ok := y.([]any); ok {
			return append(append([]any(nil), xl...), yl...), nil
		}
	}
	return nil, ev.errAt(pos, sandbox.ErrRuntime, "operator %s not defined for %T and %T", op, x, y)
}

func (ev *evaluator) intOp(op token.Token, x, y int64, pos token.Pos) (any, error) {
	switch op {
	case token.ADD:
		return x + y, nil
	case token.SUB:
		return x - y, nil
	case token.MUL:
		return x * y, nil
	case token.QUO:
		if y == 0 {
			return nil, ev.errAt(pos, sandbox.ErrRuntime, "integer divide by zero")
		}
		return x / y, nil
	case token.REM:
		if y == 0 {
			return nil, ev.errAt(pos, sandbox.ErrRuntime, "integer divide by zero")
		}
		return x % y, nil
	case token.LSS:
		return x < y, nil
	case token.LEQ:
		return x <= y, nil
	case token.GTR:
		return x > y, nil
	case token.GEQ:
		return x >= y, nil
	default:
		return nil, ev.errAt(pos, sandbox.ErrRuntime, "operator %s not defined for integers", op)
	}
}

func (ev *evaluator) floatOp(op token.Token, x, y float64, pos token.Pos) (any, error) {
	switch op {
	case token.ADD:
		return x + y, nil
	case token.SUB:
		return x - y, nil
	case token.MUL:
		return x * y, nil
	case token.QUO:
		if y == 0 {
			return nil, ev.errAt(pos, sandbox.ErrRuntime, "float divide by zero")
		}
		return x / y, nil
	case token.LSS:
		return x < y, nil
	case token.LEQ:
		return x <= y, nil
	case token.GTR:
		return x > y, nil
	case token.GEQ:
		return x >= y, nil
	default:
		return nil, ev.errAt(pos, sandbox.ErrRuntime, "operator %s not defined for floats", op)
	}
}

func (ev *evaluator) stringOp(op token.Token, x, y string, pos token.Pos) (any, error) {
	switch op {
	case token.ADD:
		return x + y, nil
	case token.LSS:
		return x < y, nil
	case token.LEQ:
		return x <= y, nil
	case token.GTR:
		return x > y, nil
	case token.GEQ:
		return x >= y, nil
	default:
		return nil, ev.errAt(pos, sandbox.ErrRuntime, "operator %s not defined for strings", op)
	}
}

func (ev *evaluator) evalCall(e *ast.CallExpr, env *environment) (any, error) {
	callee, err := ev.eval(e.Fun, env)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(e.Args))
	for i, arg := range e.Args {
		v, err := ev.eval(arg, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch fn := callee.(type) {
	case *toolFunc:
		v, err := ev.gw.Call(ev.ctx, fn.name, args)
		if err != nil {
			return nil, ev.wrapCallError(e.Pos(), fn.name, err)
		}
		return v, nil
	case *goFunc:
		v, err := fn.fn(ev.ctx, args)
		if err != nil {
			return nil, ev.wrapCallError(e.Pos(), fn.name, err)
		}
		return v, nil
	case *funcValue:
		return ev.callFuncValue(e.Pos(), fn, args)
	default:
		return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime, "%s is not callable", describeCallee(e.Fun))
	}
}

// wrapCallError keeps sentinel-bearing failures (budget, violations,
// context) intact and attaches source positions to plain tool or builtin
// errors.
func (ev *evaluator) wrapCallError(pos token.Pos, name string, err error) error {
	if errors.Is(err, sandbox.ErrLimitExceeded) ||
		errors.Is(err, sandbox.ErrSandboxViolation) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return err
	}
	line, col := ev.location(pos)
	return &sandbox.CodeError{
		Message: fmt.Sprintf("%s: %v", name, err),
		Line:    line,
		Column:  col,
		Err:     sandbox.ErrRuntime,
	}
}

func (ev *evaluator) callFuncValue(pos token.Pos, fn *funcValue, args []any) (any, error) {
	if len(args) != len(fn.params) {
		return nil, ev.errAt(pos, sandbox.ErrRuntime,
			"func wants %d args, got %d", len(fn.params), len(args))
	}
	frame := newEnvironment(fn.env)
	frame.boundary = true
	for i, p := range fn.params {
		frame.define(p, args[i])
	}
	err := ev.execBlock(fn.body, frame)
	if err != nil {
		var ctrl *control
		if errors.As(err, &ctrl) && ctrl.kind == ctrlReturn {
			return ctrl.value, nil
		}
		return nil, err
	}
	return nil, nil
}

func describeCallee(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		if x, ok := e.X.(*ast.Ident); ok {
			return x.Name + "." + e.Sel.Name
		}
		return e.Sel.Name
	default:
		return "expression"
	}
}

func (ev *evaluator) evalIndex(e *ast.IndexExpr, env *environment) (any, error) {
	container, err := ev.eval(e.X, env)
	if err != nil {
		return nil, err
	}
	index, err := ev.eval(e.Index, env)
	if err != nil {
		return nil, err
	}
	switch c := container.(type) {
	case []any:
		i, err := toInt("index", index)
		if err != nil {
			return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime, "%v", err)
		}
		if i < 0 || i >= int64(len(c)) {
			return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime,
				"index %d out of range (len %d)", i, len(c))
		}
		return c[i], nil
	case map[string]any:
		key, ok := index.(string)
		if !ok {
			return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime, "map key must be a string, got %T", index)
		}
		return c[key], nil
	case string:
		i, err := toInt("index", index)
		if err != nil {
			return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime, "%v", err)
		}
		if i < 0 || i >= int64(len(c)) {
			return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime,
				"index %d out of range (len %d)", i, len(c))
		}
		return string(c[i]), nil
	default:
		return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime, "cannot index %T", container)
	}
}

func (ev *evaluator) evalSlice(e *ast.SliceExpr, env *environment) (any, error) {
	container, err := ev.eval(e.X, env)
	if err != nil {
		return nil, err
	}
	bound := func(expr ast.Expr, fallback int64) (int64, error) {
		if expr == nil {
			return fallback, nil
		}
		v, err := ev.eval(expr, env)
		if err != nil {
			return 0, err
		}
		n, err := toInt("slice bound", v)
		if err != nil {
			return 0, ev.errAt(expr.Pos(), sandbox.ErrRuntime, "%v", err)
		}
		return n, nil
	}

	var length int64
	switch c := container.(type) {
	case []any:
		length = int64(len(c))
	case string:
		length = int64(len(c))
	default:
		return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime, "cannot slice %T", container)
	}

	lo, err := bound(e.Low, 0)
	if err != nil {
		return nil, err
	}
	hi, err := bound(e.High, length)
	if err != nil {
		return nil, err
	}
	if lo < 0 || hi > length || lo > hi {
		return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime,
			"slice bounds [%d:%d] out of range (len %d)", lo, hi, length)
	}

	if list, ok := container.([]any); ok {
		return append([]any(nil), list[lo:hi]...), nil
	}
	return container.(string)[lo:hi], nil
}

func (ev *evaluator) evalSelector(e *ast.SelectorExpr, env *environment) (any, error) {
	x, err := ev.eval(e.X, env)
	if err != nil {
		return nil, err
	}
	switch c := x.(type) {
	case *module:
		v, err := c.member(e.Sel.Name)
		if err != nil {
			return nil, ev.errAt(e.Sel.Pos(), sandbox.ErrRuntime, "%v", err)
		}
		return v, nil
	case map[string]any:
		return c[e.Sel.Name], nil
	default:
		return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime, "cannot select %s from %T", e.Sel.Name, x)
	}
}

func (ev *evaluator) evalComposite(e *ast.CompositeLit, env *environment) (any, error) {
	switch e.Type.(type) {
	case *ast.ArrayType:
		out := make([]any, 0, len(e.Elts))
		for _, elt := range e.Elts {
			v, err := ev.eval(elt, env)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case *ast.MapType:
		out := make(map[string]any, len(e.Elts))
		for _, elt := range e.Elts {
			kv, ok := elt.(*ast.KeyValueExpr)
			if !ok {
				return nil, ev.errAt(elt.Pos(), sandbox.ErrRuntime, "map literal needs key: value pairs")
			}
			key, err := ev.eval(kv.Key, env)
			if err != nil {
				return nil, err
			}
			ks, ok := key.(string)
			if !ok {
				return nil, ev.errAt(kv.Key.Pos(), sandbox.ErrRuntime, "map key must be a string, got %T", key)
			}
			v, err := ev.eval(kv.Value, env)
			if err != nil {
				return nil, err
			}
			out[ks] = v
		}
		return out, nil
	default:
		return nil, ev.errAt(e.Pos(), sandbox.ErrRuntime, "unsupported composite literal")
	}
}

func (ev *evaluator) evalFuncLit(e *ast.FuncLit, env *environment) (any, error) {
	var params []string
	if e.Type.Params != nil {
		for _, field := range e.Type.Params.List {
			// func(x, y) parses the names as types; treat them as
			// parameter names in this dialect.
			if len(field.Names) == 0 {
				ident, ok := field.Type.(*ast.Ident)
				if !ok {
					return nil, ev.errAt(field.Pos(), sandbox.ErrRuntime, "unsupported parameter form")
				}
				params = append(params, ident.Name)
				continue
			}
			for _, name := range field.Names {
				params = append(params, name.Name)
			}
		}
	}
	return &funcValue{params: params, body: e.Body, env: env}, nil
}

// equalValues compares interpreter values: numbers compare across int and
// float, everything else by deep equality.
func equalValues(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}
