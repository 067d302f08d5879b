package project

import "fmt"

// Stage is a project's position in the recruitment workflow.
type Stage string

const (
	StageRequestReceived   Stage = "request_received"
	StageSourcingStarted   Stage = "sourcing_started"
	StageSearching         Stage = "searching"
	StageEvaluating        Stage = "evaluating"
	StageEnriching         Stage = "enriching"
	StageOptimizing        Stage = "optimizing"
	StageSourcingCompleted Stage = "sourcing_completed"
	StageOutreachStarted   Stage = "outreach_started"
	StageOutreachCompleted Stage = "outreach_completed"
	StageCompleted         Stage = "completed"
	StageFailed            Stage = "failed"
	StageCancelled         Stage = "cancelled"
)

// stageTransitions is the workflow adjacency table. The searching ->
// evaluating -> optimizing loop supports quality-gate retries; the three
// terminal stages admit nothing and deactivate the project.
var stageTransitions = map[Stage][]Stage{
	StageRequestReceived:   {StageSourcingStarted, StageCancelled},
	StageSourcingStarted:   {StageSearching, StageFailed, StageCancelled},
	StageSearching:         {StageEvaluating, StageFailed, StageCancelled},
	StageEvaluating:        {StageSearching, StageEnriching, StageOptimizing, StageSourcingCompleted, StageFailed, StageCancelled},
	StageEnriching:         {StageOptimizing, StageSourcingCompleted, StageFailed, StageCancelled},
	StageOptimizing:        {StageSearching, StageSourcingCompleted, StageFailed, StageCancelled},
	StageSourcingCompleted: {StageOutreachStarted, StageCompleted, StageCancelled},
	StageOutreachStarted:   {StageOutreachCompleted, StageFailed, StageCancelled},
	StageOutreachCompleted: {StageCompleted},
	StageCompleted:         {},
	StageFailed:            {},
	StageCancelled:         {},
}

// CanTransitionTo reports whether the workflow permits moving to next.
func (s Stage) CanTransitionTo(next Stage) bool {
	for _, allowed := range stageTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the stage admits no further transitions.
func (s Stage) Terminal() bool {
	return len(stageTransitions[s]) == 0
}

func (s Stage) String() string { return string(s) }

// ErrInvalidStage describes a rejected stage change.
type ErrInvalidStage struct {
	From Stage
	To   Stage
}

func (e *ErrInvalidStage) Error() string {
	return fmt.Sprintf("invalid workflow stage transition: %s -> %s", e.From, e.To)
}
