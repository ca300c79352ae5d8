// Package mcp provides a tool.Registry backed by one or more MCP servers
// over stdio transports. Positional snippet arguments are mapped back to
// the named arguments MCP tools expect using each tool's input schema.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sandrundev/sandrun/sandbox"
	"github.com/sandrundev/sandrun/tool"
)

// ServerConfig describes one MCP server to launch and connect to.
type ServerConfig struct {
	// Name identifies the server in logs.
	Name string `yaml:"name"`

	// Command is the executable to launch.
	Command string `yaml:"command"`

	// Args are passed to the command.
	Args []string `yaml:"args,omitempty"`

	// Env adds KEY=VALUE pairs to the server's environment.
	Env []string `yaml:"env,omitempty"`
}

// Registry is a tool.Registry aggregating the tools of multiple MCP
// servers. Connect it with Start and release it with Stop. On a tool name
// collision the first connected server wins; later duplicates are logged
// and ignored.
type Registry struct {
	impl   *mcp.Implementation
	logger sandbox.Logger

	mu       sync.RWMutex
	sessions []*session
	byName   map[string]*boundTool
	order    []string
}

type session struct {
	name string
	cs   *mcp.ClientSession
}

type boundTool struct {
	spec    tool.Spec
	session *session
	params  []string // positional order for named-argument mapping
}

// NewRegistry creates an unconnected registry. The logger may be nil.
func NewRegistry(logger sandbox.Logger) *Registry {
	return &Registry{
		impl:   &mcp.Implementation{Name: "sandrun", Version: "1.0.0"},
		logger: logger,
		byName: make(map[string]*boundTool),
	}
}

// Start launches and connects every configured server, then lists and
// binds their tools. Servers that fail to connect abort the whole start;
// Stop is safe to call afterwards either way.
func (r *Registry) Start(ctx context.Context, servers []ServerConfig) error {
	for _, sc := range servers {
		if sc.Command == "" {
			return fmt.Errorf("mcp server %q: command is required", sc.Name)
		}
		cmd := exec.Command(sc.Command, sc.Args...)
		if len(sc.Env) > 0 {
			cmd.Env = append(os.Environ(), sc.Env...)
		}

		client := mcp.NewClient(r.impl, nil)
		cs, err := client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
		if err != nil {
			return fmt.Errorf("connecting to mcp server %q: %w", sc.Name, err)
		}
		s := &session{name: sc.Name, cs: cs}

		r.mu.Lock()
		r.sessions = append(r.sessions, s)
		r.mu.Unlock()

		if err := r.bindTools(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// bindTools lists a server's tools and registers the ones whose names are
// still free.
func (r *Registry) bindTools(ctx context.Context, s *session) error {
	res, err := s.cs.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("listing tools of mcp server %q: %w", s.name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range res.Tools {
		if _, taken := r.byName[t.Name]; taken {
			if r.logger != nil {
				r.logger.Logf("mcp: tool %q from server %q shadowed by an earlier server", t.Name, s.name)
			}
			continue
		}
		schema := schemaMap(t.InputSchema)
		params := paramOrder(schema)
		r.byName[t.Name] = &boundTool{
			spec: tool.Spec{
				Name:        t.Name,
				Description: t.Description,
				Params:      specParams(schema, params),
				InputSchema: schema,
			},
			session: s,
			params:  params,
		}
		r.order = append(r.order, t.Name)
	}
	return nil
}

// Stop closes every server session.
func (r *Registry) Stop() error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = nil
	r.mu.Unlock()

	var firstErr error
	for _, s := range sessions {
		if err := s.cs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// List returns all bound tools in connection order.
func (r *Registry) List(_ context.Context) ([]tool.Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]tool.Spec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].spec)
	}
	return out, nil
}

// Invoke maps positional args to the tool's named arguments and calls the
// owning server, blocking until the result arrives.
func (r *Registry) Invoke(ctx context.Context, name string, args []any) (any, error) {
	r.mu.RLock()
	bt, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", tool.ErrToolNotFound, name)
	}

	if len(args) > len(bt.params) {
		return nil, fmt.Errorf("%s: %w: want at most %d args, got %d",
			name, tool.ErrBadArgs, len(bt.params), len(args))
	}
	named := make(map[string]any, len(args))
	for i, v := range args {
		named[bt.params[i]] = v
	}

	res, err := bt.session.cs.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: named})
	if err != nil {
		return nil, fmt.Errorf("calling %s on mcp server %q: %w", name, bt.session.name, err)
	}
	if res.IsError {
		return nil, fmt.Errorf("tool %s failed: %s", name, contentText(res.Content))
	}
	if res.StructuredContent != nil {
		return res.StructuredContent, nil
	}
	return decodeText(contentText(res.Content)), nil
}

// schemaMap normalizes whatever shape the SDK hands back for an input
// schema into a plain map.
func schemaMap(schema any) map[string]any {
	switch s := schema.(type) {
	case nil:
		return nil
	case map[string]any:
		return s
	default:
		data, err := json.Marshal(s)
		if err != nil {
			return nil
		}
		var out map[string]any
		if json.Unmarshal(data, &out) != nil {
			return nil
		}
		return out
	}
}

// paramOrder derives the positional parameter order from an input schema:
// the required list in its declared order, then remaining properties
// sorted by name. This is the contract snippet call sites rely on.
func paramOrder(schema map[string]any) []string {
	props, _ := schema["properties"].(map[string]any)

	var order []string
	seen := make(map[string]bool)
	if req, ok := schema["required"].([]any); ok {
		for _, v := range req {
			if name, ok := v.(string); ok && !seen[name] {
				seen[name] = true
				order = append(order, name)
			}
		}
	}

	var optional []string
	for name := range props {
		if !seen[name] {
			optional = append(optional, name)
		}
	}
	sort.Strings(optional)
	return append(order, optional...)
}

// specParams builds the ordered Param list for a Spec.
func specParams(schema map[string]any, order []string) []tool.Param {
	props, _ := schema["properties"].(map[string]any)
	required := make(map[string]bool)
	if req, ok := schema["required"].([]any); ok {
		for _, v := range req {
			if name, ok := v.(string); ok {
				required[name] = true
			}
		}
	}

	out := make([]tool.Param, 0, len(order))
	for _, name := range order {
		p := tool.Param{Name: name, Required: required[name]}
		if prop, ok := props[name].(map[string]any); ok {
			if typ, ok := prop["type"].(string); ok {
				p.Type = typ
			}
		}
		out = append(out, p)
	}
	return out
}

// contentText concatenates the text parts of a tool result.
func contentText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// decodeText returns the JSON value a text payload encodes, or the raw
// string when it is not JSON.
func decodeText(text string) any {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	var out any
	if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
		return out
	}
	return text
}
