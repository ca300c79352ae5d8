package sandrun_test

import (
	"context"
	"fmt"

	"github.com/sandrundev/sandrun"
	"github.com/sandrundev/sandrun/tool"
)

func ExampleRun() {
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

	result := sandrun.Run(context.Background(), `result = add(x=2, y=3)`, reg)
	fmt.Println(result.Status, result.Result)
	// Output: success 5
}

func ExampleRunner_Run() {
	runner, err := sandrun.New(nil, sandrun.WithMaxToolCalls(3))
	if err != nil {
		panic(err)
	}

	result := runner.Run(context.Background(), `
import "strings"

words := []any{"code", "runs", "sandboxed"}
out := ""
for i, w := range words {
	if i > 0 {
		out = out + " "
	}
	out = out + w
}
result = strings.ToUpper(out)
`)
	fmt.Println(result.Result)
	// Output: CODE RUNS SANDBOXED
}
