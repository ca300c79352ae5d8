// Package agent drives a perception-decision-action loop: a planner looks
// at the query and prior results, emits snippets, the sandbox runs them
// with tool access, and the loop feeds results back until the planner
// concludes.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sandrundev/sandrun"
	"github.com/sandrundev/sandrun/tool"
)

// ErrMaxSteps is returned when the loop ends without a conclusion.
var ErrMaxSteps = errors.New("agent: max steps reached without a conclusion")

// DefaultMaxSteps bounds the loop when no explicit bound is configured.
const DefaultMaxSteps = 10

// Session is one loop run: its identity, the query, every step taken, and
// the final answer when the planner concluded.
type Session struct {
	ID     string
	Query  string
	Steps  []Step
	Answer string
}

// Loop wires a planner to a sandbox runner.
type Loop struct {
	planner  Planner
	runner   *sandrun.Runner
	registry tool.Registry
	maxSteps int
	log      *zap.Logger
}

// NewLoop creates a loop. maxSteps of 0 means DefaultMaxSteps; the logger
// may be nil.
func NewLoop(planner Planner, runner *sandrun.Runner, registry tool.Registry, maxSteps int, log *zap.Logger) (*Loop, error) {
	if planner == nil {
		return nil, errors.New("agent: planner is required")
	}
	if runner == nil {
		return nil, errors.New("agent: runner is required")
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		planner:  planner,
		runner:   runner,
		registry: registry,
		maxSteps: maxSteps,
		log:      log,
	}, nil
}

// Run executes the loop for one query. The returned session always carries
// the steps taken, even when the loop errors out.
func (l *Loop) Run(ctx context.Context, query string) (*Session, error) {
	session := &Session{
		ID:    uuid.NewString(),
		Query: query,
	}

	var specs []tool.Spec
	if l.registry != nil {
		var err error
		specs, err = l.registry.List(ctx)
		if err != nil {
			return session, fmt.Errorf("agent: listing tools: %w", err)
		}
	}

	for i := 0; i < l.maxSteps; i++ {
		if err := ctx.Err(); err != nil {
			return session, err
		}

		decision, err := l.planner.Decide(ctx, Perception{
			Query: query,
			Tools: specs,
			Steps: session.Steps,
		})
		if err != nil {
			return session, fmt.Errorf("agent: step %d: %w", i, err)
		}

		step := Step{Index: i, Decision: decision}
		switch decision.Kind {
		case DecisionConclude:
			session.Steps = append(session.Steps, step)
			session.Answer = decision.Answer
			l.log.Info("agent concluded",
				zap.String("session", session.ID),
				zap.Int("steps", len(session.Steps)))
			return session, nil
		case DecisionCode:
			result := l.runner.Run(ctx, decision.Code)
			step.Result = &result
			session.Steps = append(session.Steps, step)
			l.log.Info("agent ran snippet",
				zap.String("session", session.ID),
				zap.Int("step", i),
				zap.String("status", string(result.Status)),
				zap.Float64("seconds", result.TotalTime))
		default:
			return session, fmt.Errorf("agent: step %d: unknown decision kind %q", i, decision.Kind)
		}
	}
	return session, ErrMaxSteps
}
