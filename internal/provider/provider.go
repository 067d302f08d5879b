// Package provider defines the contracts for the external
// professional-network provider: candidate search and per-profile
// enrichment. Implementations live elsewhere (internal/talentpool for the
// HTTP client); the pipeline depends only on these interfaces.
package provider

import (
	"context"

	"github.com/spigell/talent-sourcer/internal/criteria"
)

// RawCandidate is a provider search hit before it becomes a tracked
// candidate.
type RawCandidate struct {
	ProfileID       string         `json:"id,omitempty"`
	Name            string         `json:"name,omitempty"`
	Position        string         `json:"position,omitempty"`
	Employer        string         `json:"employer,omitempty"`
	Location        string         `json:"location,omitempty"`
	Email           string         `json:"email,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	ProfileURL      string         `json:"profile_url,omitempty"`
	Skills          []string       `json:"skills,omitempty"`
	YearsExperience *float64       `json:"years_experience,omitempty"`
	Education       string         `json:"education,omitempty"`
	Summary         string         `json:"summary,omitempty"`
	Raw             map[string]any `json:"raw,omitempty"`
}

// SearchResult is one search round's outcome. TotalFound may exceed the
// number of returned candidates when the provider caps page depth.
type SearchResult struct {
	Candidates []*RawCandidate
	TotalFound int
}

// EnrichmentData is the deep-profile payload returned for one candidate.
type EnrichmentData struct {
	Skills    []string       `json:"skills,omitempty"`
	Summary   string         `json:"summary,omitempty"`
	Email     string         `json:"email,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	Education string         `json:"education,omitempty"`
	Raw       map[string]any `json:"raw,omitempty"`
}

// Searcher searches the provider for candidates matching the criteria. Calls
// must be safe to retry; no result ordering is assumed.
type Searcher interface {
	Search(ctx context.Context, crit criteria.Criteria, maxResults int) (*SearchResult, error)
}

// Enricher fetches deep profile data for one candidate. Errors are isolated
// per candidate by the caller.
type Enricher interface {
	Enrich(ctx context.Context, profileRef string) (*EnrichmentData, error)
}
