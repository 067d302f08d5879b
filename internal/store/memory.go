package store

import (
	"context"
	"sync"

	"github.com/spigell/talent-sourcer/internal/candidate"
	"github.com/spigell/talent-sourcer/internal/project"
)

// Memory is a mutex-guarded in-memory store. Used by tests and dry runs.
type Memory struct {
	mu         sync.RWMutex
	candidates map[string]*candidate.Candidate
	byIdentity map[string]string
	projects   map[string]*project.Project
}

func NewMemory() *Memory {
	return &Memory{
		candidates: make(map[string]*candidate.Candidate),
		byIdentity: make(map[string]string),
		projects:   make(map[string]*project.Project),
	}
}

func (m *Memory) Save(_ context.Context, c *candidate.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.save(c)
	return nil
}

func (m *Memory) BatchSave(_ context.Context, list []*candidate.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range list {
		m.save(c)
	}
	return nil
}

// save assumes the lock is held.
func (m *Memory) save(c *candidate.Candidate) {
	m.candidates[c.ID] = c
	m.byIdentity[c.IdentityKey()] = c.ID
}

func (m *Memory) FindByID(_ context.Context, id string) (*candidate.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *Memory) FindByIdentityKey(_ context.Context, key string) (*candidate.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byIdentity[key]
	if !ok {
		return nil, ErrNotFound
	}
	return m.candidates[id], nil
}

func (m *Memory) ExistsByIdentityKey(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byIdentity[key]
	return ok, nil
}

func (m *Memory) SaveProject(_ context.Context, p *project.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	return nil
}

func (m *Memory) FindProjectByID(_ context.Context, id string) (*project.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Projects adapts Memory to the ProjectStore interface.
func (m *Memory) Projects() ProjectStore { return &memoryProjects{m} }

type memoryProjects struct{ m *Memory }

func (s *memoryProjects) Save(ctx context.Context, p *project.Project) error {
	return s.m.SaveProject(ctx, p)
}

func (s *memoryProjects) FindByID(ctx context.Context, id string) (*project.Project, error) {
	return s.m.FindProjectByID(ctx, id)
}

// CandidateCount reports how many candidates are stored.
func (m *Memory) CandidateCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.candidates)
}
