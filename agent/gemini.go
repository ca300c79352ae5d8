package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiPlanner implements Planner over the Gemini REST API.
type GeminiPlanner struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// GeminiOption configures a GeminiPlanner.
type GeminiOption func(*GeminiPlanner)

// WithModel sets the model name.
func WithModel(model string) GeminiOption {
	return func(p *GeminiPlanner) { p.model = model }
}

// WithEndpoint overrides the API endpoint, mainly for tests.
func WithEndpoint(endpoint string) GeminiOption {
	return func(p *GeminiPlanner) { p.endpoint = endpoint }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(p *GeminiPlanner) { p.client = c }
}

// NewGeminiPlanner creates a planner. The API key is required.
func NewGeminiPlanner(apiKey string, opts ...GeminiOption) (*GeminiPlanner, error) {
	if apiKey == "" {
		return nil, errors.New("agent: gemini api key is required")
	}
	p := &GeminiPlanner{
		apiKey:   apiKey,
		model:    "gemini-2.0-flash",
		endpoint: defaultGeminiEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Decide asks the model for the next action and parses its plain-text
// reply: a CODE block with a snippet, or a CONCLUDE line with the answer.
func (p *GeminiPlanner) Decide(ctx context.Context, perception Perception) (Decision, error) {
	text, err := p.generate(ctx, buildPrompt(perception))
	if err != nil {
		return Decision{}, err
	}
	return parseDecision(text)
}

func (p *GeminiPlanner) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("agent: encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", p.endpoint, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("agent: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("agent: calling gemini: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("agent: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("agent: gemini returned %d: %s", resp.StatusCode, truncate(string(data), 300))
	}

	var gr geminiResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", fmt.Errorf("agent: decoding response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("agent: gemini returned no candidates")
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// buildPrompt renders the perception into the planner prompt. The model
// must answer with either of the two markers so no structured-output
// parsing is needed.
func buildPrompt(p Perception) string {
	var b strings.Builder
	b.WriteString("You solve tasks by writing small code snippets for a sandbox.\n")
	b.WriteString("Reply with EXACTLY one of:\n")
	b.WriteString("CODE:\n<snippet assigning the outcome to result>\n")
	b.WriteString("or\n")
	b.WriteString("CONCLUDE: <final answer>\n\n")

	b.WriteString("Snippet rules: Go-like statements, no type declarations, ")
	b.WriteString("call tools as plain functions with positional arguments, ")
	b.WriteString("assign the final value to result.\n\n")

	if len(p.Tools) > 0 {
		b.WriteString("Available tools:\n")
		for _, t := range p.Tools {
			names := make([]string, len(t.Params))
			for i, param := range t.Params {
				names[i] = param.Name
			}
			fmt.Fprintf(&b, "- %s(%s): %s\n", t.Name, strings.Join(names, ", "), t.Description)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Task: %s\n", p.Query)

	for _, step := range p.Steps {
		if step.Result == nil {
			continue
		}
		fmt.Fprintf(&b, "\nStep %d ran:\n%s\n", step.Index+1, step.Decision.Code)
		if step.Result.OK() {
			fmt.Fprintf(&b, "Result: %v\n", step.Result.Result)
		} else {
			fmt.Fprintf(&b, "Failed: %s\n", step.Result.Error)
		}
	}
	return b.String()
}

// parseDecision reads the marker protocol out of a model reply.
func parseDecision(text string) (Decision, error) {
	trimmed := strings.TrimSpace(text)

	if idx := strings.Index(trimmed, "CONCLUDE:"); idx == 0 {
		return Decision{
			Kind:   DecisionConclude,
			Answer: strings.TrimSpace(trimmed[len("CONCLUDE:"):]),
		}, nil
	}
	if idx := strings.Index(trimmed, "CODE:"); idx == 0 {
		code := strings.TrimSpace(trimmed[len("CODE:"):])
		code = stripFence(code)
		if code == "" {
			return Decision{}, errors.New("agent: planner sent an empty snippet")
		}
		return Decision{Kind: DecisionCode, Code: code}, nil
	}
	return Decision{}, fmt.Errorf("agent: planner reply missing CODE/CONCLUDE marker: %s", truncate(trimmed, 120))
}

// stripFence removes a surrounding markdown code fence if present.
func stripFence(code string) string {
	if !strings.HasPrefix(code, "```") {
		return code
	}
	code = strings.TrimPrefix(code, "```")
	if nl := strings.IndexByte(code, '\n'); nl >= 0 {
		code = code[nl+1:] // drop the language tag line
	}
	if end := strings.LastIndex(code, "```"); end >= 0 {
		code = code[:end]
	}
	return strings.TrimSpace(code)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
