package candidate

import (
	"errors"
	"fmt"
	"strings"
)

// Suitability buckets a candidate relative to a role.
type Suitability string

const (
	Suitable   Suitability = "suitable"
	Maybe      Suitability = "maybe"
	Unsuitable Suitability = "unsuitable"
)

// EvaluationScore is an immutable scoring record. All scores are in [0,1] and
// the reasoning string is required so that every decision stays auditable.
type EvaluationScore struct {
	Overall    float64
	SkillMatch float64
	Experience float64
	CultureFit *float64
	Reasoning  string
}

// NewEvaluationScore validates score ranges and the reasoning requirement.
func NewEvaluationScore(overall, skillMatch, experience float64, cultureFit *float64, reasoning string) (EvaluationScore, error) {
	if strings.TrimSpace(reasoning) == "" {
		return EvaluationScore{}, errors.New("evaluation reasoning must not be empty")
	}

	for name, v := range map[string]float64{
		"overall":    overall,
		"skill":      skillMatch,
		"experience": experience,
	} {
		if v < 0 || v > 1 {
			return EvaluationScore{}, fmt.Errorf("%s score %v out of range [0,1]", name, v)
		}
	}
	if cultureFit != nil && (*cultureFit < 0 || *cultureFit > 1) {
		return EvaluationScore{}, fmt.Errorf("culture score %v out of range [0,1]", *cultureFit)
	}

	return EvaluationScore{
		Overall:    overall,
		SkillMatch: skillMatch,
		Experience: experience,
		CultureFit: cultureFit,
		Reasoning:  reasoning,
	}, nil
}

// Classify buckets the overall score against the provided thresholds.
func (s EvaluationScore) Classify(suitableThreshold, maybeThreshold float64) Suitability {
	switch {
	case s.Overall >= suitableThreshold:
		return Suitable
	case s.Overall >= maybeThreshold:
		return Maybe
	default:
		return Unsuitable
	}
}
