package interp

import (
	"errors"
	"strings"
	"testing"

	"github.com/sandrundev/sandrun/sandbox"
)

func TestStripKeywordArgs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "simple keywords",
			in:   "add(x=10, y=20)",
			want: "add(10, 20)",
		},
		{
			name: "mixed positional and keyword",
			in:   "f(1, b=2)",
			want: "f(1, 2)",
		},
		{
			name: "nested calls",
			in:   "f(g(x=1), y=2)",
			want: "f(g(1), 2)",
		},
		{
			name: "comparisons untouched",
			in:   "f(a == 1, b >= 2)",
			want: "f(a == 1, b >= 2)",
		},
		{
			name: "define untouched",
			in:   "x := add(1, 2)",
			want: "x := add(1, 2)",
		},
		{
			name: "assignment outside parens untouched",
			in:   "x = 5",
			want: "x = 5",
		},
		{
			name: "string values preserved",
			in:   `send(to="a@b.c", subject="hi")`,
			want: `send("a@b.c", "hi")`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripKeywordArgs(tt.in)
			if got != tt.want {
				t.Errorf("stripKeywordArgs(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractImports(t *testing.T) {
	code := "import \"math\"\nresult = math.Sqrt(16)"
	body, imports := extractImports(code)

	if len(imports) != 1 || imports[0] != "math" {
		t.Fatalf("imports = %v, want [math]", imports)
	}
	if strings.Contains(body, "import") {
		t.Errorf("body still contains import: %q", body)
	}
	// Line count must be preserved for error positions.
	if strings.Count(body, "\n") != strings.Count(code, "\n") {
		t.Errorf("line count changed: %q", body)
	}
}

func TestExtractImportsGrouped(t *testing.T) {
	code := "import (\n\t\"math\"\n\t\"strings\"\n)\nresult = 1"
	body, imports := extractImports(code)

	if len(imports) != 2 || imports[0] != "math" || imports[1] != "strings" {
		t.Fatalf("imports = %v, want [math strings]", imports)
	}
	if strings.Contains(body, "import") {
		t.Errorf("body still contains import: %q", body)
	}
}

func TestTransformEmptyCode(t *testing.T) {
	_, err := Transform("   \n\t", nil)
	if err == nil {
		t.Fatal("expected error for empty code")
	}
	if !errors.Is(err, sandbox.ErrSyntax) {
		t.Errorf("error = %v, want ErrSyntax", err)
	}
}

func TestTransformSyntaxErrorPosition(t *testing.T) {
	_, err := Transform("x = 1\nresult = )", nil)
	if err == nil {
		t.Fatal("expected syntax error")
	}
	var codeErr *sandbox.CodeError
	if !errors.As(err, &codeErr) {
		t.Fatalf("error type = %T, want *sandbox.CodeError", err)
	}
	if !errors.Is(err, sandbox.ErrSyntax) {
		t.Errorf("error = %v, want ErrSyntax", err)
	}
	if codeErr.Line != 2 {
		t.Errorf("line = %d, want 2", codeErr.Line)
	}
}

func TestTransformToolRefs(t *testing.T) {
	prog, err := Transform("x = add(1, 2)\ny = mul(x, 3)\nresult = add(x, y)", []string{"add", "mul", "unused"})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(prog.ToolRefs) != 2 {
		t.Fatalf("tool refs = %v, want [add mul]", prog.ToolRefs)
	}
	if prog.ToolRefs[0] != "add" || prog.ToolRefs[1] != "mul" {
		t.Errorf("tool refs = %v, want [add mul]", prog.ToolRefs)
	}
}

func TestTransformToolRefsAlias(t *testing.T) {
	// A tool referenced without being called still counts.
	prog, err := Transform("f := add\nresult = f(1, 2)", []string{"add"})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(prog.ToolRefs) != 1 || prog.ToolRefs[0] != "add" {
		t.Errorf("tool refs = %v, want [add]", prog.ToolRefs)
	}
}

func TestTransformToolRefsIgnoresSelectors(t *testing.T) {
	// A selector member sharing a tool's name is not a reference to it.
	prog, err := Transform(`result = m.add`, []string{"add"})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(prog.ToolRefs) != 0 {
		t.Errorf("tool refs = %v, want none", prog.ToolRefs)
	}
}

func TestTransformTopLevelReturn(t *testing.T) {
	prog, err := Transform("return 42", nil)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(prog.Body.List) != 1 {
		t.Errorf("statements = %d, want 1", len(prog.Body.List))
	}
}
