package interp

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"regexp"
	"strings"

	"github.com/sandrundev/sandrun/sandbox"
)

// The snippet body is wrapped in a synthetic entry point so go/parser
// accepts top-level statements, including a top-level return. The header
// occupies wrapLines lines; source positions are shifted back by that
// amount when reporting errors.
const (
	wrapHeader = "package main\n\nfunc __main() {\n"
	wrapFooter = "\n}\n"
	wrapLines  = 3
)

var (
	singleImportRe  = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+"([^"]+)"[ \t]*$`)
	groupedImportRe = regexp.MustCompile(`(?ms)^[ \t]*import[ \t]*\((.*?)\)[ \t]*$`)
	importNameRe    = regexp.MustCompile(`"([^"]+)"`)
)

// Program is a transformed, parsed snippet ready for evaluation.
type Program struct {
	// Fset maps AST positions back to source locations.
	Fset *token.FileSet

	// Body is the snippet's statement list.
	Body *ast.BlockStmt

	// Imports lists module names the snippet imported, in source order.
	Imports []string

	// ToolRefs lists registry tool names the snippet references,
	// deduplicated in source order. The capability gate binds exactly
	// these into the snippet's globals.
	ToolRefs []string
}

// Transform prepares raw snippet text for execution: it extracts import
// lines, rewrites keyword arguments to positional form, wraps the body in
// the synthetic entry point, and parses it. References matching a name in
// toolNames are collected into ToolRefs; the gate binds those tools, and
// the evaluator routes their calls through the gateway.
//
// Parse failures return a CodeError wrapping ErrSyntax with 1-based
// line/column in the original snippet.
func Transform(code string, toolNames []string) (*Program, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &sandbox.CodeError{
			Message: "empty code snippet",
			Err:     sandbox.ErrSyntax,
		}
	}

	body, imports := extractImports(code)
	body = stripKeywordArgs(body)

	src := wrapHeader + body + wrapFooter
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "snippet.go", src, parser.SkipObjectResolution)
	if err != nil {
		return nil, syntaxError(err)
	}

	fn := entryFunc(file)
	if fn == nil {
		return nil, &sandbox.CodeError{
			Message: "no executable statements",
			Err:     sandbox.ErrSyntax,
		}
	}

	return &Program{
		Fset:     fset,
		Body:     fn.Body,
		Imports:  imports,
		ToolRefs: collectToolRefs(fn.Body, toolNames),
	}, nil
}

// extractImports removes import lines from the snippet and returns the
// imported names in source order. Removed text is replaced with blank
// lines so later positions stay accurate.
func extractImports(code string) (string, []string) {
	var imports []string

	collect := func(match string) string {
		for _, m := range importNameRe.FindAllStringSubmatch(match, -1) {
			imports = append(imports, m[1])
		}
		return strings.Repeat("\n", strings.Count(match, "\n"))
	}

	code = groupedImportRe.ReplaceAllStringFunc(code, collect)
	code = singleImportRe.ReplaceAllStringFunc(code, collect)
	return code, imports
}

// stripKeywordArgs rewrites name=value pairs inside call-argument
// parentheses to positional form, e.g. add(x=10, y=20) becomes add(10, 20).
// The rewrite is token-based so it runs before parsing; argument order is
// preserved and compound operators (==, :=, >=) are never touched.
func stripKeywordArgs(code string) string {
	src := []byte(code)
	fset := token.NewFileSet()
	f := fset.AddFile("snippet.go", fset.Base(), len(src))

	var s scanner.Scanner
	s.Init(f, src, nil, 0)

	type tokenInfo struct {
		offset int
		end    int
		tok    token.Token
	}
	var toks []tokenInfo
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		offset := f.Offset(pos)
		end := offset + len(lit)
		if lit == "" {
			end = offset + len(tok.String())
		}
		// Automatic semicolons carry a "\n" literal but occupy no source.
		if tok == token.SEMICOLON && lit == "\n" {
			end = offset
		}
		toks = append(toks, tokenInfo{offset: offset, end: end, tok: tok})
	}

	type span struct{ from, to int }
	var cuts []span
	depth := 0
	for i, t := range toks {
		switch t.tok {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			if depth > 0 {
				depth--
			}
		case token.IDENT:
			if depth == 0 || i+1 >= len(toks) || toks[i+1].tok != token.ASSIGN {
				continue
			}
			if i > 0 && toks[i-1].tok != token.LPAREN && toks[i-1].tok != token.COMMA {
				continue
			}
			cuts = append(cuts, span{from: t.offset, to: toks[i+1].end})
		}
	}
	if len(cuts) == 0 {
		return code
	}

	var out strings.Builder
	prev := 0
	for _, c := range cuts {
		out.Write(src[prev:c.from])
		prev = c.to
	}
	out.Write(src[prev:])
	return out.String()
}

// entryFunc finds the synthetic entry point in the parsed file.
func entryFunc(file *ast.File) *ast.FuncDecl {
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Name.Name == "__main" && fn.Body != nil {
			return fn
		}
	}
	return nil
}

// collectToolRefs walks the body for identifiers matching a registry tool
// name: call sites, aliases, and arguments all count. Selector members
// (m.field) are not free identifiers and are skipped.
func collectToolRefs(body *ast.BlockStmt, toolNames []string) []string {
	if len(toolNames) == 0 {
		return nil
	}
	known := make(map[string]bool, len(toolNames))
	for _, n := range toolNames {
		known[n] = true
	}

	seen := make(map[string]bool)
	var refs []string
	var walk func(n ast.Node) bool
	walk = func(n ast.Node) bool {
		switch e := n.(type) {
		case *ast.SelectorExpr:
			ast.Inspect(e.X, walk)
			return false
		case *ast.Ident:
			if known[e.Name] && !seen[e.Name] {
				seen[e.Name] = true
				refs = append(refs, e.Name)
			}
		}
		return true
	}
	ast.Inspect(body, walk)
	return refs
}

// syntaxError converts a parser failure into a CodeError with positions
// mapped back to the original snippet.
func syntaxError(err error) error {
	if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
		first := list[0]
		line := first.Pos.Line - wrapLines
		if line < 1 {
			line = 1
		}
		return &sandbox.CodeError{
			Message: first.Msg,
			Line:    line,
			Column:  first.Pos.Column,
			Err:     sandbox.ErrSyntax,
		}
	}
	return &sandbox.CodeError{
		Message: fmt.Sprintf("parse failed: %v", err),
		Err:     sandbox.ErrSyntax,
	}
}
