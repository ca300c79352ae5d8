package agent

import (
	"context"

	"github.com/sandrundev/sandrun/sandbox"
	"github.com/sandrundev/sandrun/tool"
)

// DecisionKind is what the planner wants to do next.
type DecisionKind string

const (
	// DecisionCode runs a snippet in the sandbox.
	DecisionCode DecisionKind = "code"

	// DecisionConclude ends the loop with a final answer.
	DecisionConclude DecisionKind = "conclude"
)

// Decision is one planner output.
type Decision struct {
	Kind   DecisionKind
	Code   string // set when Kind is DecisionCode
	Answer string // set when Kind is DecisionConclude
}

// Perception is everything the planner sees before deciding: the user
// query, the tools available to snippets, and the steps taken so far with
// their execution results.
type Perception struct {
	Query string
	Tools []tool.Spec
	Steps []Step
}

// Planner decides the next action of the loop.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines.
// - Errors: transport or model failures return an error; the loop aborts.
type Planner interface {
	Decide(ctx context.Context, p Perception) (Decision, error)
}

// Step records one completed loop iteration.
type Step struct {
	Index    int
	Decision Decision
	Result   *sandbox.ExecutionResult // nil unless Decision ran code
}
