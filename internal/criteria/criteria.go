// Package criteria defines the search constraints handed to the provider and
// the adaptive relaxation policy applied between retry rounds.
package criteria

import "math"

// MaxAdjustmentLevel caps how far the criteria can be relaxed.
const MaxAdjustmentLevel = 4

// expandedTargetDefault is used at level 4 when no target count was set.
const expandedTargetDefault = 30

// mustHaveSkillCount is the truncation point at level 3: the leading skills
// are treated as must-have, the rest as nice-to-have.
const mustHaveSkillCount = 3

// Criteria describes one search round against the provider. The struct is
// treated as a value; Adjust returns relaxed copies and never mutates its
// input.
type Criteria struct {
	Keywords           string   `mapstructure:"keywords"`
	RequiredSkills     []string `mapstructure:"required-skills"`
	Location           string   `mapstructure:"location"`
	RemoteAllowed      bool     `mapstructure:"remote-allowed"`
	MinExperienceYears float64  `mapstructure:"min-experience-years"`
	TargetCount        int      `mapstructure:"target-count"`
	CultureValues      []string `mapstructure:"culture-values"`
}

// clone deep-copies the slices so relaxed copies never alias the original.
func (c Criteria) clone() Criteria {
	out := c
	out.RequiredSkills = append([]string(nil), c.RequiredSkills...)
	out.CultureValues = append([]string(nil), c.CultureValues...)
	return out
}

// Adjust applies the cumulative relaxation for the given level to a copy of
// the base criteria. Levels loosen the least business-critical constraint
// first:
//
//	1: required experience reduced by 20%
//	2: location constraint dropped, remote candidates allowed
//	3: required skills truncated to the leading must-have entries
//	4: target volume raised by 50% (or a raised default when unset)
//
// Level k always contains every relaxation of level k-1. Levels outside
// [0, MaxAdjustmentLevel] are clamped. Pure function, no I/O.
func Adjust(base Criteria, level int) Criteria {
	out := base.clone()
	if level < 0 {
		level = 0
	}
	if level > MaxAdjustmentLevel {
		level = MaxAdjustmentLevel
	}

	if level >= 1 {
		out.MinExperienceYears = base.MinExperienceYears * 0.8
	}
	if level >= 2 {
		out.Location = ""
		out.RemoteAllowed = true
	}
	if level >= 3 && len(out.RequiredSkills) > mustHaveSkillCount {
		out.RequiredSkills = out.RequiredSkills[:mustHaveSkillCount]
	}
	if level >= 4 {
		if base.TargetCount > 0 {
			out.TargetCount = int(math.Ceil(float64(base.TargetCount) * 1.5))
		} else {
			out.TargetCount = expandedTargetDefault
		}
	}

	return out
}
