// Package store persists candidates and projects. The pipeline depends on
// the interfaces here; Postgres and in-memory implementations are provided.
package store

import (
	"context"
	"errors"

	"github.com/spigell/talent-sourcer/internal/candidate"
	"github.com/spigell/talent-sourcer/internal/project"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// CandidateStore owns candidate durability. Identity key = normalized
// network-profile URL or normalized email (see Candidate.IdentityKey).
type CandidateStore interface {
	Save(ctx context.Context, c *candidate.Candidate) error
	BatchSave(ctx context.Context, list []*candidate.Candidate) error
	FindByID(ctx context.Context, id string) (*candidate.Candidate, error)
	FindByIdentityKey(ctx context.Context, key string) (*candidate.Candidate, error)
	ExistsByIdentityKey(ctx context.Context, key string) (bool, error)
}

// ProjectStore owns project durability.
type ProjectStore interface {
	Save(ctx context.Context, p *project.Project) error
	FindByID(ctx context.Context, id string) (*project.Project, error)
}
