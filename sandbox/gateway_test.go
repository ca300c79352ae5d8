package sandbox

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sandrundev/sandrun/tool"
)

func TestGatewayBudgetShared(t *testing.T) {
	reg := tool.NewLocal()
	for _, name := range []string{"first", "second"} {
		name := name
		reg.Register(tool.Def{
			Name: name,
			Handler: func(_ context.Context, args []any) (any, error) {
				return name, nil
			},
		})
	}

	gw := NewGateway(reg, 2)
	ctx := context.Background()

	// The budget counts across different tools.
	if _, err := gw.Call(ctx, "first", nil); err != nil {
		t.Fatalf("call 1: %v", err)
	}
	if _, err := gw.Call(ctx, "second", nil); err != nil {
		t.Fatalf("call 2: %v", err)
	}
	_, err := gw.Call(ctx, "first", nil)
	if err == nil {
		t.Fatal("expected limit error on third call")
	}
	if !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("error = %v, want ErrLimitExceeded", err)
	}
	if got := gw.CallsRemaining(); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
	// The rejected call is not traced.
	if got := len(gw.ToolCalls()); got != 2 {
		t.Errorf("trace length = %d, want 2", got)
	}
}

func TestGatewayFailedCallConsumesBudget(t *testing.T) {
	reg := tool.NewLocal()
	reg.Register(tool.Def{
		Name: "flaky",
		Handler: func(_ context.Context, args []any) (any, error) {
			return nil, fmt.Errorf("backend unavailable")
		},
	})

	gw := NewGateway(reg, 1)
	_, err := gw.Call(context.Background(), "flaky", nil)
	if err == nil {
		t.Fatal("expected tool error")
	}
	if errors.Is(err, ErrLimitExceeded) {
		t.Errorf("error = %v, should not be a limit error", err)
	}

	calls := gw.ToolCalls()
	if len(calls) != 1 {
		t.Fatalf("trace length = %d, want 1", len(calls))
	}
	if calls[0].Error == "" {
		t.Error("expected recorded error")
	}
	if gw.CallsRemaining() != 0 {
		t.Errorf("remaining = %d, want 0", gw.CallsRemaining())
	}
}

func TestGatewayUnlimitedBudget(t *testing.T) {
	reg := tool.NewLocal()
	reg.Register(tool.Def{
		Name: "echo",
		Handler: func(_ context.Context, args []any) (any, error) {
			return "ok", nil
		},
	})

	gw := NewGateway(reg, 0)
	for i := 0; i < 20; i++ {
		if _, err := gw.Call(context.Background(), "echo", nil); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if gw.CallsRemaining() != -1 {
		t.Errorf("remaining = %d, want -1", gw.CallsRemaining())
	}
}

func TestGatewayNilRegistry(t *testing.T) {
	gw := NewGateway(nil, 5)
	_, err := gw.Call(context.Background(), "anything", nil)
	if err == nil {
		t.Fatal("expected tool not found")
	}
	if !errors.Is(err, tool.ErrToolNotFound) {
		t.Errorf("error = %v, want ErrToolNotFound", err)
	}

	names, err := gw.Names(context.Background())
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("names = %v, want empty", names)
	}
}

func TestGatewayOutputCapture(t *testing.T) {
	gw := NewGateway(nil, 0)
	gw.Println("a", 1)
	gw.Print("b")
	if got := gw.Output(); got != "a 1\nb" {
		t.Errorf("output = %q, want %q", got, "a 1\nb")
	}
}

func TestGatewayCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := NewGateway(addRegistry(), 5)
	_, err := gw.Call(ctx, "add", []any{int64(1), int64(2)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(gw.ToolCalls()) != 0 {
		t.Errorf("trace length = %d, want 0", len(gw.ToolCalls()))
	}
}
