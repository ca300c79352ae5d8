package interp

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sandrundev/sandrun/sandbox"
	"github.com/sandrundev/sandrun/tool"
)

// run executes a snippet against a fresh gateway with no tools and the
// default allow-lists.
func run(t *testing.T, code string) (sandbox.EngineResult, error) {
	t.Helper()
	return runWith(t, code, nil, 0)
}

func runWith(t *testing.T, code string, registry tool.Registry, maxCalls int) (sandbox.EngineResult, error) {
	t.Helper()
	gw := testGateway(registry, maxCalls)
	return New().Execute(context.Background(), sandbox.RunParams{Code: code}, gw)
}

func TestExecuteArithmetic(t *testing.T) {
	tests := []struct {
		name string
		code string
		want any
	}{
		{"int addition", "result = 2 + 3", int64(5)},
		{"int division", "result = 7 / 2", int64(3)},
		{"float promotion", "result = 1 + 0.5", float64(1.5)},
		{"modulo", "result = 10 % 3", int64(1)},
		{"precedence", "result = 2 + 3 * 4", int64(14)},
		{"string concat", `result = "foo" + "bar"`, "foobar"},
		{"comparison", "result = 3 > 2", true},
		{"logic short circuit", "result = false && (1/0 == 0)", false},
		{"unary minus", "result = -5 + 2", int64(-3)},
		{"negation", "result = !(2 > 3)", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := run(t, tt.code)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if !reflect.DeepEqual(res.Value, tt.want) {
				t.Errorf("value = %#v, want %#v", res.Value, tt.want)
			}
		})
	}
}

func TestExecuteResultConvention(t *testing.T) {
	// No result variable and no return yields nil.
	res, err := run(t, "x = 5")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != nil {
		t.Errorf("value = %v, want nil", res.Value)
	}

	// The result variable is picked up.
	res, err = run(t, "x = 5\nresult = x * 2")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != int64(10) {
		t.Errorf("value = %v, want 10", res.Value)
	}

	// An explicit return wins over the result variable.
	res, err = run(t, "result = 1\nreturn 2")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != int64(2) {
		t.Errorf("value = %v, want 2", res.Value)
	}
	if !res.Returned {
		t.Error("Returned = false, want true")
	}
}

func TestExecuteControlFlow(t *testing.T) {
	res, err := run(t, `
total = 0
for i := 0; i < 10; i++ {
	if i % 2 == 0 {
		continue
	}
	if i > 7 {
		break
	}
	total += i
}
result = total
`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// 1 + 3 + 5 + 7
	if res.Value != int64(16) {
		t.Errorf("value = %v, want 16", res.Value)
	}
}

func TestExecuteRange(t *testing.T) {
	res, err := run(t, `
items := []any{10, 20, 30}
total := 0
for _, v := range items {
	total += v
}
result = total
`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != int64(60) {
		t.Errorf("value = %v, want 60", res.Value)
	}
}

func TestExecuteMapLiteral(t *testing.T) {
	res, err := run(t, `
m := map[string]any{"a": 1, "b": 2}
m["c"] = m["a"] + m["b"]
result = m.c
`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != int64(3) {
		t.Errorf("value = %v, want 3", res.Value)
	}
}

func TestExecuteClosure(t *testing.T) {
	res, err := run(t, `
double := func(x) any {
	return x * 2
}
result = double(21)
`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != int64(42) {
		t.Errorf("value = %v, want 42", res.Value)
	}
}

func TestExecuteAssignInsideBlockSurvives(t *testing.T) {
	res, err := run(t, `
if 2 > 1 {
	result = "inner"
}
`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != "inner" {
		t.Errorf("value = %v, want inner", res.Value)
	}
}

func TestExecuteBuiltins(t *testing.T) {
	res, err := run(t, `result = sum(1, 2, 3) + len("abcd") + max(5, 9)`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != int64(19) {
		t.Errorf("value = %v, want 19", res.Value)
	}
}

func TestExecuteModuleImport(t *testing.T) {
	res, err := run(t, "import \"math\"\nresult = math.Sqrt(16)")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != float64(4) {
		t.Errorf("value = %v, want 4", res.Value)
	}
}

func TestExecuteStringsTitleMultibyte(t *testing.T) {
	res, err := run(t, "import \"strings\"\nresult = strings.Title(\"école du soir\")")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != "École Du Soir" {
		t.Errorf("value = %q, want %q", res.Value, "École Du Soir")
	}
}

func TestExecuteForbiddenImport(t *testing.T) {
	_, err := run(t, "import \"os\"\nresult = 1")
	if err == nil {
		t.Fatal("expected sandbox violation")
	}
	if !errors.Is(err, sandbox.ErrSandboxViolation) {
		t.Errorf("error = %v, want ErrSandboxViolation", err)
	}
}

func TestExecuteModuleNotImported(t *testing.T) {
	_, err := run(t, "result = math.Sqrt(16)")
	if err == nil {
		t.Fatal("expected undefined name error")
	}
	if !errors.Is(err, sandbox.ErrSandboxViolation) {
		t.Errorf("error = %v, want ErrSandboxViolation", err)
	}
}

func TestExecuteUndefinedName(t *testing.T) {
	_, err := run(t, "result = whatever")
	if err == nil {
		t.Fatal("expected undefined name error")
	}
	if !errors.Is(err, sandbox.ErrSandboxViolation) {
		t.Errorf("error = %v, want ErrSandboxViolation", err)
	}
	if !strings.Contains(err.Error(), "undefined: whatever") {
		t.Errorf("error = %v, want undefined: whatever", err)
	}
}

func TestExecuteDivisionByZero(t *testing.T) {
	_, err := run(t, "result = 1 / 0")
	if err == nil {
		t.Fatal("expected runtime error")
	}
	if !errors.Is(err, sandbox.ErrRuntime) {
		t.Errorf("error = %v, want ErrRuntime", err)
	}
	var codeErr *sandbox.CodeError
	if !errors.As(err, &codeErr) || codeErr.Line != 1 {
		t.Errorf("error = %v, want line 1", err)
	}
}

func TestExecuteTimeoutInterruptsLoop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	gw := testGateway(nil, 0)
	_, err := New().Execute(ctx, sandbox.RunParams{Code: "for {\n}"}, gw)
	if err == nil {
		t.Fatal("expected deadline error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded", err)
	}
}

func TestExecuteToolCall(t *testing.T) {
	reg := newTestRegistry()
	res, err := runWith(t, "result = add(x=2, y=3)", reg, 0)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != int64(5) {
		t.Errorf("value = %v, want 5", res.Value)
	}
}

func TestExecuteToolAlias(t *testing.T) {
	reg := newTestRegistry()
	res, err := runWith(t, "f := add\nresult = f(2, 3)", reg, 0)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != int64(5) {
		t.Errorf("value = %v, want 5", res.Value)
	}
}

func TestExecuteToolShadowsBuiltin(t *testing.T) {
	reg := tool.NewLocal()
	reg.Register(tool.Def{
		Name:   "len",
		Params: []tool.Param{{Name: "v", Type: "string", Required: true}},
		Handler: func(_ context.Context, args []any) (any, error) {
			return "tool wins", nil
		},
	})
	res, err := runWith(t, `result = len("abc")`, reg, 0)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != "tool wins" {
		t.Errorf("value = %v, want tool wins", res.Value)
	}
}

func TestExecuteToolBudget(t *testing.T) {
	reg := newTestRegistry()
	_, err := runWith(t, `
for i := 0; i < 10; i++ {
	add(i, i)
}
result = "done"
`, reg, 3)
	if err == nil {
		t.Fatal("expected limit error")
	}
	if !errors.Is(err, sandbox.ErrLimitExceeded) {
		t.Errorf("error = %v, want ErrLimitExceeded", err)
	}
}

func TestExecuteListsToolsOnce(t *testing.T) {
	reg := &countingRegistry{Local: newTestRegistry()}
	res, err := runWith(t, "result = add(2, 3)", reg, 0)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Value != int64(5) {
		t.Errorf("value = %v, want 5", res.Value)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.lists != 1 {
		t.Errorf("registry listed %d times, want 1", reg.lists)
	}
}

func TestExecutePrintCaptured(t *testing.T) {
	gw := testGateway(nil, 0)
	_, err := New().Execute(context.Background(), sandbox.RunParams{
		Code: `println("hello", 42)` + "\nresult = 1",
	}, gw)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := gw.Output(); got != "hello 42\n" {
		t.Errorf("output = %q, want %q", got, "hello 42\n")
	}
}

// testGateway builds a gateway through a throwaway executor config so the
// default allow-lists apply.
func testGateway(registry tool.Registry, maxCalls int) *sandbox.Gateway {
	return sandbox.NewGateway(registry, maxCalls)
}

// countingRegistry records how many times the tool list is fetched.
type countingRegistry struct {
	*tool.Local

	mu    sync.Mutex
	lists int
}

func (c *countingRegistry) List(ctx context.Context) ([]tool.Spec, error) {
	c.mu.Lock()
	c.lists++
	c.mu.Unlock()
	return c.Local.List(ctx)
}

// newTestRegistry returns a local registry with an integer add tool.
func newTestRegistry() *tool.Local {
	reg := tool.NewLocal()
	reg.Register(tool.Def{
		Name:        "add",
		Description: "adds two integers",
		Params: []tool.Param{
			{Name: "x", Type: "integer", Required: true},
			{Name: "y", Type: "integer", Required: true},
		},
		Handler: func(_ context.Context, args []any) (any, error) {
			return args[0].(int64) + args[1].(int64), nil
		},
	})
	return reg
}
