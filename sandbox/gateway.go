package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sandrundev/sandrun/tool"
)

// Gateway is the tool environment exposed to one execution. It routes
// snippet tool calls to the registry, enforces the shared call budget,
// captures print output, and records a trace of every invocation.
//
// Contract:
// - Concurrency: safe for concurrent use within a single execution.
// - Context: Call honors cancellation/deadlines and returns ctx.Err() when canceled.
// - Errors: budget exhaustion returns ErrLimitExceeded; registry errors propagate.
// - Ownership: args are read-only; returned traces are caller-owned snapshots.
type Gateway struct {
	registry        tool.Registry
	logger          Logger
	metrics         Metrics
	allowedModules  []string
	allowedBuiltins []string

	mu           sync.Mutex
	maxToolCalls int
	callCount    int
	toolCalls    []ToolCallRecord
	output       strings.Builder
}

// newGateway creates a Gateway for one execution. A maxToolCalls of 0 is
// treated as unlimited.
func newGateway(cfg *Config, maxToolCalls int) *Gateway {
	return &Gateway{
		registry:        cfg.Registry,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		allowedModules:  cfg.AllowedModules,
		allowedBuiltins: cfg.AllowedBuiltins,
		maxToolCalls:    maxToolCalls,
	}
}

// NewGateway creates a standalone Gateway with the default allow-lists,
// mainly useful for testing Engine implementations outside an Executor.
// A maxToolCalls of 0 is unlimited.
func NewGateway(registry tool.Registry, maxToolCalls int) *Gateway {
	return &Gateway{
		registry:       registry,
		allowedModules: append([]string(nil), DefaultAllowedModules...),
		maxToolCalls:   maxToolCalls,
	}
}

// AllowedModules returns the module allow-list for this execution.
func (g *Gateway) AllowedModules() []string {
	return g.allowedModules
}

// AllowedBuiltins returns the builtin allow-list for this execution.
// Nil means the engine's default builtin set.
func (g *Gateway) AllowedBuiltins() []string {
	return g.allowedBuiltins
}

// Names returns the names of all tools the snippet may call. A nil or
// empty registry yields no names, which is valid.
func (g *Gateway) Names(ctx context.Context) ([]string, error) {
	if g.registry == nil {
		return nil, nil
	}
	specs, err := g.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names, nil
}

// Call invokes a tool with positional arguments. The shared budget is
// checked before dispatch: the call that would exceed it fails with
// ErrLimitExceeded and is not dispatched. Every dispatched call, failed or
// not, consumes budget and is recorded in the trace.
func (g *Gateway) Call(ctx context.Context, name string, args []any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.registry == nil {
		return nil, fmt.Errorf("%w: %s", tool.ErrToolNotFound, name)
	}

	g.mu.Lock()
	if g.maxToolCalls > 0 && g.callCount >= g.maxToolCalls {
		max := g.maxToolCalls
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: max tool calls (%d) exceeded", ErrLimitExceeded, max)
	}
	g.callCount++
	g.mu.Unlock()

	start := time.Now()
	value, err := g.registry.Invoke(ctx, name, args)
	duration := time.Since(start).Milliseconds()

	record := ToolCallRecord{
		Tool:       name,
		Args:       normalizeArgs(args),
		DurationMs: duration,
	}
	if err != nil {
		record.Error = err.Error()
	} else {
		record.Result = value
	}

	g.mu.Lock()
	g.toolCalls = append(g.toolCalls, record)
	g.mu.Unlock()

	if g.metrics != nil {
		g.metrics.ObserveToolCall(name, err != nil)
	}
	if g.logger != nil {
		g.logger.Logf("tool %s took %dms (err=%v)", name, duration, err != nil)
	}
	return value, err
}

// CallsRemaining reports how many budgeted calls are left, or -1 when the
// budget is unlimited.
func (g *Gateway) CallsRemaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.maxToolCalls <= 0 {
		return -1
	}
	return g.maxToolCalls - g.callCount
}

// Println writes output to the captured buffer, never the process stdout.
func (g *Gateway) Println(args ...any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fmt.Fprintln(&g.output, args...)
}

// Print writes output without a trailing newline.
func (g *Gateway) Print(args ...any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fmt.Fprint(&g.output, args...)
}

// ToolCalls returns a copy of all recorded tool calls.
func (g *Gateway) ToolCalls() []ToolCallRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ToolCallRecord(nil), g.toolCalls...)
}

// Output returns the captured print output.
func (g *Gateway) Output() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.output.String()
}

// normalizeArgs copies an args slice into JSON-native shapes so trace
// records are stable even if the snippet later mutates a value.
func normalizeArgs(args []any) []any {
	if args == nil {
		return nil
	}
	out := make([]any, len(args))
	for i, v := range args {
		out[i] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeValue(e)
		}
		return out
	case []any:
		return normalizeArgs(val)
	case string, bool, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return val
	default:
		return val
	}
}
