// Package evaluation computes weighted suitability scores for candidates
// against a project's requirements. Scoring is a pure function of its inputs
// and the reasoning string is assembled deterministically so that every
// decision can be replayed and asserted in tests.
package evaluation

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-sourcer/internal/candidate"
	"github.com/spigell/talent-sourcer/internal/criteria"
	"github.com/spigell/talent-sourcer/internal/project"
)

// neutralCultureTerm replaces the culture sub-score when no culture criteria
// were supplied.
const neutralCultureTerm = 0.7

// Config carries the scoring weights and classification thresholds. Weights
// should sum to 1 by convention but are not validated against it.
type Config struct {
	SkillWeight       float64 `mapstructure:"skill-weight"`
	ExperienceWeight  float64 `mapstructure:"experience-weight"`
	CultureWeight     float64 `mapstructure:"culture-weight"`
	SuitableThreshold float64 `mapstructure:"suitable-threshold"`
	MaybeThreshold    float64 `mapstructure:"maybe-threshold"`
}

// DefaultConfig returns the conventional weights and thresholds.
func DefaultConfig() Config {
	return Config{
		SkillWeight:       0.5,
		ExperienceWeight:  0.3,
		CultureWeight:     0.2,
		SuitableThreshold: 0.7,
		MaybeThreshold:    0.5,
	}
}

// withDefaults fills unset fields so a partially populated config stays usable.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SkillWeight <= 0 {
		c.SkillWeight = def.SkillWeight
	}
	if c.ExperienceWeight <= 0 {
		c.ExperienceWeight = def.ExperienceWeight
	}
	if c.CultureWeight <= 0 {
		c.CultureWeight = def.CultureWeight
	}
	if c.SuitableThreshold <= 0 {
		c.SuitableThreshold = def.SuitableThreshold
	}
	if c.MaybeThreshold <= 0 {
		c.MaybeThreshold = def.MaybeThreshold
	}
	return c
}

// Service scores candidates. Safe for concurrent use: it holds no mutable
// state.
type Service struct {
	cfg    Config
	logger *zap.Logger
}

func NewService(cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cfg: cfg.withDefaults(), logger: logger}
}

// Evaluate scores a candidate against the project's requirements under the
// current search criteria. Calling it twice with the same inputs yields an
// identical score.
func (s *Service) Evaluate(c *candidate.Candidate, p *project.Project, crit criteria.Criteria) (candidate.EvaluationScore, error) {
	if c == nil {
		return candidate.EvaluationScore{}, fmt.Errorf("candidate is required")
	}
	if p == nil {
		return candidate.EvaluationScore{}, fmt.Errorf("project is required")
	}

	skillScore := c.Skills.MatchScore(p.RequiredSkills)
	expScore := experienceScore(c.YearsExperience, p.RequiredExperience)

	var cultureScore *float64
	cultureTerm := neutralCultureTerm
	if len(crit.CultureValues) > 0 {
		score := c.Skills.MatchScore(candidate.NewSkillSet(crit.CultureValues...))
		cultureScore = &score
		cultureTerm = score
	}

	overall := s.cfg.SkillWeight*skillScore + s.cfg.ExperienceWeight*expScore + s.cfg.CultureWeight*cultureTerm
	if overall > 1 {
		overall = 1
	}
	if overall < 0 {
		overall = 0
	}

	reasoning := buildReasoning(c, p, skillScore, expScore, cultureScore)

	score, err := candidate.NewEvaluationScore(overall, skillScore, expScore, cultureScore, reasoning)
	if err != nil {
		return candidate.EvaluationScore{}, fmt.Errorf("building evaluation score: %w", err)
	}

	s.logger.Debug("candidate evaluated",
		zap.String("candidate_id", c.ID),
		zap.Float64("overall", score.Overall),
		zap.Float64("skill", skillScore),
		zap.Float64("experience", expScore),
	)

	return score, nil
}

// Classify buckets a score using the configured thresholds.
func (s *Service) Classify(score candidate.EvaluationScore) candidate.Suitability {
	return score.Classify(s.cfg.SuitableThreshold, s.cfg.MaybeThreshold)
}

// experienceScore bands the candidate's experience against the requirement.
// Meeting or exceeding the requirement is rewarded while near-misses are not
// fully zeroed. Unknown experience scores neutral.
func experienceScore(years *float64, required float64) float64 {
	if required <= 0 {
		return 1.0
	}
	if years == nil {
		return 0.5
	}

	ratio := *years / required
	switch {
	case ratio >= 1.5:
		return 1.0
	case ratio >= 1.0:
		return 0.95
	case ratio >= 0.8:
		return 0.75
	case ratio >= 0.5:
		return 0.5
	default:
		return 0.3
	}
}

func buildReasoning(c *candidate.Candidate, p *project.Project, skillScore, expScore float64, cultureScore *float64) string {
	var parts []string

	matched := c.Skills.Intersect(p.RequiredSkills).Sorted()
	if p.RequiredSkills.Len() == 0 {
		parts = append(parts, "no skill requirements")
	} else if len(matched) > 0 {
		parts = append(parts, fmt.Sprintf("skill match %s (%d/%d: %s)",
			scoreBand(skillScore), len(matched), p.RequiredSkills.Len(), strings.Join(matched, ", ")))
	} else {
		parts = append(parts, fmt.Sprintf("no required skills matched (0/%d)", p.RequiredSkills.Len()))
	}

	switch {
	case p.RequiredExperience <= 0:
		parts = append(parts, "no experience requirement")
	case c.YearsExperience == nil:
		parts = append(parts, "experience unknown, scored neutral")
	default:
		parts = append(parts, fmt.Sprintf("experience %s (%.1f of %.1f years required)",
			scoreBand(expScore), *c.YearsExperience, p.RequiredExperience))
	}

	if p.Location != "" {
		if strings.EqualFold(strings.TrimSpace(c.Location), strings.TrimSpace(p.Location)) {
			parts = append(parts, "location matches")
		} else {
			parts = append(parts, "location differs")
		}
	}

	if cultureScore != nil {
		parts = append(parts, fmt.Sprintf("culture fit %s", scoreBand(*cultureScore)))
	} else {
		parts = append(parts, "culture fit not assessed")
	}

	return strings.Join(parts, "; ")
}

func scoreBand(score float64) string {
	switch {
	case score >= 0.9:
		return "excellent"
	case score >= 0.7:
		return "strong"
	case score >= 0.5:
		return "moderate"
	case score >= 0.3:
		return "weak"
	default:
		return "poor"
	}
}
