// Package candidate holds the candidate aggregate and the value types used
// across matching and validation: skill sets, contact channels, evaluation
// scores and the status lifecycle.
package candidate

import (
	"maps"
	"time"
)

// Candidate is a discovered person being assessed for a role. The id is
// derived from the network-profile URL when one is known, so re-discovering
// the same profile never creates a second candidate.
type Candidate struct {
	ID              string
	Name            string
	Position        string
	Employer        string
	Location        string
	Contact         ContactInfo
	Skills          SkillSet
	YearsExperience *float64
	Education       string
	Status          Status
	Score           *EvaluationScore
	Profile         map[string]any
	ProjectID       string

	// EnrichmentError is set when a deep-enrichment call failed for this
	// candidate; the pre-enrichment data is kept in that case.
	EnrichmentError string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a candidate in the NEW status. The id comes from the contact's
// profile URL when present.
func New(name string, contact ContactInfo) *Candidate {
	now := time.Now().UTC()
	return &Candidate{
		ID:        DeriveID(contact.ProfileURL()),
		Name:      name,
		Contact:   contact,
		Status:    StatusNew,
		Profile:   make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IdentityKey returns the key used to detect duplicates: the normalized
// profile URL, falling back to the normalized email, falling back to the id.
func (c *Candidate) IdentityKey() string {
	if key := NormalizeProfileURL(c.Contact.ProfileURL()); key != "" {
		return key
	}
	if key := NormalizeEmail(c.Contact.Email()); key != "" {
		return key
	}
	return c.ID
}

// TransitionTo applies a lifecycle transition, rejecting moves the adjacency
// table does not allow.
func (c *Candidate) TransitionTo(next Status) error {
	if !c.Status.CanTransitionTo(next) {
		return &ErrInvalidTransition{From: c.Status, To: next}
	}
	c.Status = next
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// SetScore records an evaluation result.
func (c *Candidate) SetScore(score EvaluationScore) {
	c.Score = &score
	c.UpdatedAt = time.Now().UTC()
}

// OverallScore returns the overall evaluation score, 0 when not evaluated.
func (c *Candidate) OverallScore() float64 {
	if c.Score == nil {
		return 0
	}
	return c.Score.Overall
}

// MergeProfile folds additional profile fields into the candidate. Existing
// keys are overwritten by the new data.
func (c *Candidate) MergeProfile(data map[string]any) {
	if len(data) == 0 {
		return
	}
	if c.Profile == nil {
		c.Profile = make(map[string]any, len(data))
	}
	maps.Copy(c.Profile, data)
	c.UpdatedAt = time.Now().UTC()
}

// AddSkills unions new skills into the candidate's skill set.
func (c *Candidate) AddSkills(skills ...string) {
	if len(skills) == 0 {
		return
	}
	c.Skills = c.Skills.Union(NewSkillSet(skills...))
	c.UpdatedAt = time.Now().UTC()
}
