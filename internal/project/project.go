// Package project holds the recruitment campaign aggregate: one role with
// its quality thresholds, workflow stage and running metrics.
package project

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/talent-sourcer/internal/candidate"
)

// Metrics accumulates per-project sourcing counters.
type Metrics struct {
	Found     int
	Suitable  int
	Contacted int
	Responded int
}

// Project is a recruitment campaign for one role.
type Project struct {
	ID          string
	Title       string
	Company     string
	Description string

	RequiredSkills     candidate.SkillSet
	Location           string
	RequiredExperience float64

	Stage       Stage
	TargetCount int
	MinSuitable int

	Metrics Metrics

	// Active is cleared permanently once a terminal stage is reached.
	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates an active project in the request_received stage. An empty id
// generates one.
func New(id, title, company string) *Project {
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	return &Project{
		ID:        id,
		Title:     title,
		Company:   company,
		Stage:     StageRequestReceived,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AdvanceTo moves the project to the next workflow stage. Entering a terminal
// stage deactivates the project permanently.
func (p *Project) AdvanceTo(next Stage) error {
	if !p.Stage.CanTransitionTo(next) {
		return &ErrInvalidStage{From: p.Stage, To: next}
	}
	p.Stage = next
	if next.Terminal() {
		p.Active = false
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordSearchResults updates the found counter after a search phase.
func (p *Project) RecordSearchResults(found int) {
	p.Metrics.Found = found
	p.UpdatedAt = time.Now().UTC()
}

// RecordEvaluation updates the suitable counter after an evaluation phase.
func (p *Project) RecordEvaluation(suitable int) {
	p.Metrics.Suitable = suitable
	p.UpdatedAt = time.Now().UTC()
}
