package pipeline

import (
	"github.com/spigell/talent-sourcer/internal/candidate"
	"github.com/spigell/talent-sourcer/internal/project"
)

// State is the orchestrator's machine state. It is reported in the result so
// callers can see where a run ended up, including failed runs.
type State string

const (
	StateInitializing State = "initializing"
	StateSearching    State = "searching"
	StateEvaluating   State = "evaluating"
	StateEnriching    State = "enriching"
	StateOptimizing   State = "optimizing"
	StateFinalizing   State = "finalizing"
	StateCompleted    State = "completed"
	StateError        State = "error"
)

// Decision records one quality-gate consultation in the audit trail.
type Decision struct {
	Gate       string
	Action     string
	Source     string // "advisor" or "rules"
	Reasoning  string
	Confidence float64
}

// PhaseReport summarizes one processing phase: how many candidates went in,
// how many were dropped and how many came out.
type PhaseReport struct {
	Phase   string
	In      int
	Dropped int
	Out     int
}

// Result is the outcome of one sourcing run. ProcessSourcingRequest always
// returns a non-nil result, even on error, so the caller can inspect the
// audit trail of a failed run.
type Result struct {
	Success bool
	State   State
	Stage   project.Stage

	Found      int
	Suitable   int
	Maybe      int
	Unsuitable int

	// Ranked is the final shortlist, ordered by overall score descending.
	Ranked []*candidate.Candidate

	Decisions []Decision
	Phases    []PhaseReport
	Warnings  []string

	Retries         int
	AdjustmentLevel int
}

func (r *Result) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *Result) addPhase(phase string, in, out int) {
	r.Phases = append(r.Phases, PhaseReport{Phase: phase, In: in, Dropped: in - out, Out: out})
}

func (r *Result) addDecision(gate, source string, action, reasoning string, confidence float64) {
	r.Decisions = append(r.Decisions, Decision{
		Gate:       gate,
		Action:     action,
		Source:     source,
		Reasoning:  reasoning,
		Confidence: confidence,
	})
}
