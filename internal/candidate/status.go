package candidate

import "fmt"

// Status is a candidate's position in the sourcing lifecycle.
type Status string

const (
	StatusNew         Status = "new"
	StatusIdentified  Status = "identified"
	StatusEvaluating  Status = "evaluating"
	StatusSuitable    Status = "suitable"
	StatusMaybe       Status = "maybe"
	StatusUnsuitable  Status = "unsuitable"
	StatusEnriching   Status = "enriching"
	StatusEnriched    Status = "enriched"
	StatusPrioritized Status = "prioritized"
	StatusContacted   Status = "contacted"
	StatusHired       Status = "hired"
	StatusRejected    Status = "rejected"
	StatusDeclined    Status = "declined"
	StatusWithdrawn   Status = "withdrawn"
)

// statusTransitions is the full adjacency table for the lifecycle. Terminal
// statuses map to an empty set and can never transition again.
var statusTransitions = map[Status][]Status{
	StatusNew:         {StatusIdentified, StatusEvaluating},
	StatusIdentified:  {StatusEvaluating, StatusWithdrawn},
	StatusEvaluating:  {StatusSuitable, StatusMaybe, StatusUnsuitable},
	StatusSuitable:    {StatusEnriching, StatusPrioritized, StatusUnsuitable},
	StatusMaybe:       {StatusEnriching, StatusPrioritized, StatusUnsuitable},
	StatusEnriching:   {StatusEnriched, StatusSuitable, StatusMaybe, StatusUnsuitable},
	StatusEnriched:    {StatusSuitable, StatusMaybe, StatusUnsuitable, StatusPrioritized},
	StatusPrioritized: {StatusContacted, StatusRejected, StatusWithdrawn},
	StatusContacted:   {StatusHired, StatusRejected, StatusDeclined, StatusWithdrawn},
	StatusHired:       {},
	StatusRejected:    {},
	StatusDeclined:    {},
	StatusWithdrawn:   {},
	StatusUnsuitable:  {},
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// Valid reports whether the status is part of the lifecycle.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

func (s Status) String() string { return string(s) }

// ErrInvalidTransition describes a rejected status change.
type ErrInvalidTransition struct {
	From Status
	To   Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}
