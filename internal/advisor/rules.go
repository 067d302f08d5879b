package advisor

import (
	"context"
	"fmt"
)

// Rules is the deterministic gate policy: adjust-and-retry while the metric
// is below threshold and retry budget remains, otherwise proceed with what
// exists. It never blocks and never errs.
type Rules struct{}

func NewRules() *Rules { return &Rules{} }

func (r *Rules) Decide(_ context.Context, s *Situation) (*Decision, error) {
	if s == nil {
		return &Decision{Action: ActionContinue, Reasoning: "no situation provided", Confidence: 1}, nil
	}

	metric, threshold := s.Found, s.MinCandidates
	if s.Gate == GatePostEvaluation {
		metric, threshold = s.Suitable, s.MinSuitable
	}

	if metric >= threshold {
		return &Decision{
			Action:     ActionContinue,
			Reasoning:  fmt.Sprintf("%s gate passed: %d >= %d", s.Gate, metric, threshold),
			Confidence: 1,
		}, nil
	}

	if s.RetryCount < s.MaxRetries {
		return &Decision{
			Action:     ActionAdjust,
			Reasoning:  fmt.Sprintf("%s gate unmet (%d < %d), %d retries left: relax criteria and retry", s.Gate, metric, threshold, s.MaxRetries-s.RetryCount),
			Confidence: 1,
		}, nil
	}

	// Retry budget exhausted: finish with whatever exists.
	action := ActionContinue
	if s.Gate == GatePostEvaluation {
		action = ActionComplete
	}
	return &Decision{
		Action:     action,
		Reasoning:  fmt.Sprintf("%s gate unmet (%d < %d) and retry budget exhausted: proceeding with available results", s.Gate, metric, threshold),
		Confidence: 1,
	}, nil
}
