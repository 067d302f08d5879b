// Package advisor defines the workflow decision advisory consulted at
// quality-gate boundaries. The capability is advisory only: the rule-based
// implementation in this package is the deterministic fallback and the
// pipeline never depends on any other implementation being available.
package advisor

import "context"

// Action is an advisory recommendation at a quality gate.
type Action string

const (
	ActionContinue Action = "continue"
	ActionRetry    Action = "retry"
	ActionAdjust   Action = "adjust"
	ActionEscalate Action = "escalate"
	ActionComplete Action = "complete"
)

// Valid reports whether the action is one the pipeline understands.
func (a Action) Valid() bool {
	switch a {
	case ActionContinue, ActionRetry, ActionAdjust, ActionEscalate, ActionComplete:
		return true
	}
	return false
}

// Gate names a quality-gate boundary.
type Gate string

const (
	GatePostSearch     Gate = "post_search"
	GatePostEvaluation Gate = "post_evaluation"
)

// Situation is the context handed to an advisor at a gate.
type Situation struct {
	Gate            Gate
	Found           int
	Suitable        int
	MinCandidates   int
	MinSuitable     int
	RetryCount      int
	MaxRetries      int
	AdjustmentLevel int
}

// Decision is an advisory outcome with a confidence and rationale.
type Decision struct {
	Action     Action
	Reasoning  string
	Confidence float64
}

// Advisor chooses an action for a gate situation.
type Advisor interface {
	Decide(ctx context.Context, situation *Situation) (*Decision, error)
}
