package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Handler is the function signature for local tool implementations.
// Args arrive in the positional order declared by the tool's Params.
type Handler func(ctx context.Context, args []any) (any, error)

// Def defines a local tool with its handler.
type Def struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Local is an in-memory Registry backed by handler functions.
type Local struct {
	mu    sync.RWMutex
	tools map[string]Def
}

// NewLocal creates an empty local registry.
func NewLocal() *Local {
	return &Local{tools: make(map[string]Def)}
}

// Register adds or replaces a tool definition.
func (l *Local) Register(def Def) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tools[def.Name] = def
}

// Unregister removes a tool definition.
func (l *Local) Unregister(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.tools, name)
}

// List returns the registered tools sorted by name.
func (l *Local) List(_ context.Context) ([]Spec, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Spec, 0, len(l.tools))
	for _, def := range l.tools {
		out = append(out, Spec{
			Name:        def.Name,
			Description: def.Description,
			Params:      append([]Param(nil), def.Params...),
			InputSchema: schemaFromParams(def.Params),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Invoke calls a registered handler with positional arguments.
func (l *Local) Invoke(ctx context.Context, name string, args []any) (any, error) {
	l.mu.RLock()
	def, ok := l.tools[name]
	l.mu.RUnlock()

	if !ok || def.Handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if err := checkArity(def.Params, len(args)); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return def.Handler(ctx, args)
}

// checkArity verifies a positional argument count against declared params.
func checkArity(params []Param, got int) error {
	required := 0
	for _, p := range params {
		if p.Required {
			required++
		}
	}
	if got < required {
		return fmt.Errorf("%w: want at least %d args, got %d", ErrBadArgs, required, got)
	}
	if got > len(params) {
		return fmt.Errorf("%w: want at most %d args, got %d", ErrBadArgs, len(params), got)
	}
	return nil
}

// schemaFromParams derives a JSON schema from an ordered parameter list.
func schemaFromParams(params []Param) map[string]any {
	props := make(map[string]any, len(params))
	var required []string
	for _, p := range params {
		typ := p.Type
		if typ == "" {
			typ = "string"
		}
		props[p.Name] = map[string]any{"type": typ}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		schema["required"] = req
	}
	return schema
}
