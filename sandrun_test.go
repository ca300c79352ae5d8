package sandrun

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sandrundev/sandrun/sandbox"
	"github.com/sandrundev/sandrun/tool"
)

func calcRegistry() *tool.Local {
	reg := tool.NewLocal()
	reg.Register(tool.Def{
		Name:        "add",
		Description: "Add two numbers.",
		Params: []tool.Param{
			{Name: "x", Type: "number", Required: true},
			{Name: "y", Type: "number", Required: true},
		},
		Handler: func(_ context.Context, args []any) (any, error) {
			return args[0].(int64) + args[1].(int64), nil
		},
	})
	reg.Register(tool.Def{
		Name: "fail",
		Handler: func(_ context.Context, _ []any) (any, error) {
			return nil, errors.New("backend unavailable")
		},
	})
	return reg
}

func TestRunEndToEnd(t *testing.T) {
	code := `
import "math"

base := add(x=2, y=3)
result = base + int(math.Sqrt(16))
`
	res := Run(context.Background(), code, calcRegistry())
	if !res.OK() {
		t.Fatalf("Run failed: %s", res.Error)
	}
	if res.Result != int64(9) {
		t.Errorf("result = %v, want 9", res.Result)
	}
	if len(res.ToolCalls) != 1 || res.ToolCalls[0].Tool != "add" {
		t.Errorf("tool calls = %+v, want one add call", res.ToolCalls)
	}
	if res.TotalTime < 0 {
		t.Errorf("total_time = %v, want >= 0", res.TotalTime)
	}
}

func TestRunSameSnippetTwice(t *testing.T) {
	runner, err := New(calcRegistry(), WithMaxToolCalls(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	code := `
import "math"

a := add(1, 1)
b := add(a, 2)
result = b + int(math.Sqrt(16))
`
	first := runner.Run(context.Background(), code)
	second := runner.Run(context.Background(), code)

	for i, res := range []ExecutionResult{first, second} {
		if !res.OK() {
			t.Fatalf("run %d failed: %s", i+1, res.Error)
		}
		if res.Result != int64(8) {
			t.Errorf("run %d result = %v, want 8", i+1, res.Result)
		}
		// Each run gets a fresh budget: two calls at a limit of two
		// would fail if the counter carried over.
		if len(res.ToolCalls) != 2 {
			t.Errorf("run %d tool calls = %d, want 2", i+1, len(res.ToolCalls))
		}
	}
	if first.Status != second.Status || first.Result != second.Result {
		t.Errorf("runs diverged: %v vs %v", first, second)
	}
}

func TestRunReturnBeatsResultVariable(t *testing.T) {
	code := `
result = "ignored"
return "explicit"
`
	res := Run(context.Background(), code, nil)
	if !res.OK() {
		t.Fatalf("Run failed: %s", res.Error)
	}
	if res.Result != "explicit" {
		t.Errorf("result = %v, want %q", res.Result, "explicit")
	}
}

func TestRunNilResult(t *testing.T) {
	res := Run(context.Background(), `x := 1 + 1`, nil)
	if !res.OK() {
		t.Fatalf("Run failed: %s", res.Error)
	}
	if res.Result != nil {
		t.Errorf("result = %v, want nil", res.Result)
	}
}

func TestRunDefaultBudget(t *testing.T) {
	code := `
total := 0
for i := 0; i < 6; i++ {
	total = add(total, 1)
}
result = total
`
	res := Run(context.Background(), code, calcRegistry())
	if res.OK() {
		t.Fatal("expected budget exhaustion")
	}
	if !strings.Contains(res.Error, "limit exceeded") {
		t.Errorf("error = %q, want limit exceeded", res.Error)
	}
	if len(res.ToolCalls) != sandbox.DefaultMaxToolCalls {
		t.Errorf("trace length = %d, want %d", len(res.ToolCalls), sandbox.DefaultMaxToolCalls)
	}
}

func TestRunErrorBranchNeverPanics(t *testing.T) {
	snippets := map[string]string{
		"syntax":    `result = (`,
		"forbidden": "import \"os\"\nresult = 1",
		"undefined": `result = nosuch(1)`,
		"runtime":   `result = 1 / 0`,
	}
	for name, code := range snippets {
		t.Run(name, func(t *testing.T) {
			res := Run(context.Background(), code, nil)
			if res.OK() {
				t.Fatalf("expected error status, got result %v", res.Result)
			}
			if res.Error == "" {
				t.Error("error branch must carry a message")
			}
		})
	}
}

func TestRunToolErrorIsRuntime(t *testing.T) {
	res := Run(context.Background(), `result = fail()`, calcRegistry())
	if res.OK() {
		t.Fatal("expected error status")
	}
	if !strings.HasPrefix(res.Error, "runtime error") {
		t.Errorf("error = %q, want runtime error prefix", res.Error)
	}
}

func TestRunnerOptions(t *testing.T) {
	runner, err := New(calcRegistry(),
		WithMaxToolCalls(1),
		WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res := runner.Run(context.Background(), `
a := add(1, 1)
result = add(a, 1)
`)
	if res.OK() {
		t.Fatal("expected budget exhaustion at 1 call")
	}
	if !strings.Contains(res.Error, "max tool calls (1)") {
		t.Errorf("error = %q, want max tool calls (1)", res.Error)
	}
}

func TestRunnerOutputCaptured(t *testing.T) {
	runner, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := runner.Run(context.Background(), `
println("step", 1)
result = "done"
`)
	if !res.OK() {
		t.Fatalf("Run failed: %s", res.Error)
	}
	if res.Output != "step 1\n" {
		t.Errorf("output = %q, want %q", res.Output, "step 1\n")
	}
}

func TestRunBadEngineConfig(t *testing.T) {
	res := Run(context.Background(), `result = 1`, nil, WithEngine(nil))
	if res.OK() {
		t.Fatal("expected configuration error in the result")
	}
	if res.Status != sandbox.StatusError {
		t.Errorf("status = %q, want error", res.Status)
	}
}
