package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/talent-sourcer/internal/advisor"
	"github.com/spigell/talent-sourcer/internal/candidate"
	"github.com/spigell/talent-sourcer/internal/criteria"
	"github.com/spigell/talent-sourcer/internal/project"
	"github.com/spigell/talent-sourcer/internal/provider"
	"github.com/spigell/talent-sourcer/internal/store"
)

type stubSearcher struct {
	hits     []*provider.RawCandidate
	err      error
	calls    int
	criteria []criteria.Criteria
}

func (s *stubSearcher) Search(_ context.Context, crit criteria.Criteria, _ int) (*provider.SearchResult, error) {
	s.calls++
	s.criteria = append(s.criteria, crit)
	if s.err != nil {
		return nil, s.err
	}
	return &provider.SearchResult{Candidates: s.hits, TotalFound: len(s.hits)}, nil
}

type stubEnricher struct {
	data    *provider.EnrichmentData
	failFor string
}

func (e *stubEnricher) Enrich(_ context.Context, ref string) (*provider.EnrichmentData, error) {
	if e.failFor != "" && strings.Contains(ref, e.failFor) {
		return nil, errors.New("profile fetch failed")
	}
	return e.data, nil
}

type stubAdvisor struct {
	decision *advisor.Decision
	err      error
	calls    int
}

func (a *stubAdvisor) Decide(_ context.Context, _ *advisor.Situation) (*advisor.Decision, error) {
	a.calls++
	return a.decision, a.err
}

func floatPtr(v float64) *float64 { return &v }

func rawHit(name, url string, years *float64, skills ...string) *provider.RawCandidate {
	return &provider.RawCandidate{
		Name:            name,
		ProfileURL:      url,
		Skills:          skills,
		YearsExperience: years,
	}
}

func testConfig() Config {
	return Config{
		MinCandidates:       1,
		MinSuitable:         1,
		MaxRetries:          2,
		SearchAttempts:      1,
		Concurrency:         2,
		CollaboratorTimeout: time.Second,
		Backoff:             time.Millisecond,
	}
}

func testProject(t *testing.T, mem *store.Memory) *project.Project {
	t.Helper()
	p := project.New("p1", "Backend Engineer", "Acme")
	p.RequiredSkills = candidate.NewSkillSet("go", "postgres", "kubernetes")
	p.RequiredExperience = 5
	require.NoError(t, mem.Projects().Save(context.Background(), p))
	return p
}

func testRequest() Request {
	return Request{
		ProjectID: "p1",
		Criteria: criteria.Criteria{
			Keywords:           "backend engineer",
			RequiredSkills:     []string{"go", "postgres", "kubernetes"},
			Location:           "Berlin",
			MinExperienceYears: 5,
		},
		TargetCount: 10,
	}
}

func TestProcessSourcingRequestHappyPath(t *testing.T) {
	mem := store.NewMemory()
	testProject(t, mem)

	searcher := &stubSearcher{hits: []*provider.RawCandidate{
		rawHit("Alice", "https://pool.example.com/in/alice", floatPtr(8), "go", "postgres", "kubernetes"),
		rawHit("Bob", "https://pool.example.com/in/bob", floatPtr(6), "go", "postgres"),
		rawHit("Carol", "https://pool.example.com/in/carol", nil, "java"),
	}}

	p := New(testConfig(), Deps{
		Logger:     zap.NewNop(),
		Searcher:   searcher,
		Candidates: mem,
		Projects:   mem.Projects(),
	})

	res, err := p.ProcessSourcingRequest(context.Background(), testRequest())
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Success)
	assert.Equal(t, StateCompleted, res.State)
	assert.Equal(t, project.StageSourcingCompleted, res.Stage)
	assert.Equal(t, 3, res.Found)
	assert.Equal(t, 2, res.Suitable)
	assert.Equal(t, 1, res.Unsuitable)
	assert.Zero(t, res.Retries)

	require.Len(t, res.Ranked, 2)
	assert.Equal(t, "Alice", res.Ranked[0].Name)
	assert.GreaterOrEqual(t, res.Ranked[0].OverallScore(), res.Ranked[1].OverallScore())
	for _, c := range res.Ranked {
		assert.Equal(t, candidate.StatusPrioritized, c.Status)
	}

	assert.Equal(t, 3, mem.CandidateCount())

	proj, err := mem.Projects().FindByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, project.StageSourcingCompleted, proj.Stage)
	assert.Equal(t, 3, proj.Metrics.Found)
	assert.Equal(t, 2, proj.Metrics.Suitable)
}

func TestProcessSourcingRequestAdaptiveRetry(t *testing.T) {
	mem := store.NewMemory()
	testProject(t, mem)

	// Two hits per round against a gate of five: the criteria must be
	// relaxed until the retry budget runs out, then the run proceeds.
	searcher := &stubSearcher{hits: []*provider.RawCandidate{
		rawHit("Alice", "https://pool.example.com/in/alice", floatPtr(8), "go", "postgres", "kubernetes"),
		rawHit("Bob", "https://pool.example.com/in/bob", floatPtr(6), "go", "postgres"),
	}}

	cfg := testConfig()
	cfg.MinCandidates = 5
	cfg.MaxRetries = 2

	p := New(cfg, Deps{
		Logger:     zap.NewNop(),
		Searcher:   searcher,
		Candidates: mem,
		Projects:   mem.Projects(),
	})

	res, err := p.ProcessSourcingRequest(context.Background(), testRequest())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Retries)
	assert.Equal(t, 2, res.AdjustmentLevel)
	assert.Equal(t, 3, searcher.calls)
	assert.Equal(t, 2, res.Found)

	// Round two runs with level-1 relaxation, round three with level 2.
	require.Len(t, searcher.criteria, 3)
	assert.InDelta(t, 5.0, searcher.criteria[0].MinExperienceYears, 0.001)
	assert.InDelta(t, 4.0, searcher.criteria[1].MinExperienceYears, 0.001)
	assert.Empty(t, searcher.criteria[2].Location)
	assert.True(t, searcher.criteria[2].RemoteAllowed)

	var adjusts int
	for _, d := range res.Decisions {
		if d.Gate == string(advisor.GatePostSearch) && d.Action == string(advisor.ActionAdjust) {
			adjusts++
		}
	}
	assert.Equal(t, 2, adjusts)
}

func TestProcessSourcingRequestGateUnmetEndsOptimizing(t *testing.T) {
	mem := store.NewMemory()
	testProject(t, mem)

	// Nobody matches the required skills, so the suitable gate can never
	// pass. The run still completes with the project parked in optimizing.
	searcher := &stubSearcher{hits: []*provider.RawCandidate{
		rawHit("Dave", "https://pool.example.com/in/dave", nil, "cobol"),
	}}

	cfg := testConfig()
	cfg.MaxRetries = 1

	p := New(cfg, Deps{
		Logger:     zap.NewNop(),
		Searcher:   searcher,
		Candidates: mem,
		Projects:   mem.Projects(),
	})

	res, err := p.ProcessSourcingRequest(context.Background(), testRequest())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, project.StageOptimizing, res.Stage)
	assert.Equal(t, 1, res.Retries)
	assert.Zero(t, res.Suitable)
	assert.Empty(t, res.Ranked)

	proj, err := mem.Projects().FindByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, project.StageOptimizing, proj.Stage)
	assert.True(t, proj.Active)
}

func TestProcessSourcingRequestResumesParkedProject(t *testing.T) {
	mem := store.NewMemory()
	testProject(t, mem)

	searcher := &stubSearcher{hits: []*provider.RawCandidate{
		rawHit("Dave", "https://pool.example.com/in/dave", nil, "cobol"),
	}}

	cfg := testConfig()
	cfg.MaxRetries = 1

	p := New(cfg, Deps{
		Logger:     zap.NewNop(),
		Searcher:   searcher,
		Candidates: mem,
		Projects:   mem.Projects(),
	})

	res, err := p.ProcessSourcingRequest(context.Background(), testRequest())
	require.NoError(t, err)
	require.Equal(t, project.StageOptimizing, res.Stage)

	// The market improved: a second run on the parked project must resume
	// it instead of rejecting the stage transition.
	searcher.hits = []*provider.RawCandidate{
		rawHit("Alice", "https://pool.example.com/in/alice", floatPtr(8), "go", "postgres", "kubernetes"),
	}

	res, err = p.ProcessSourcingRequest(context.Background(), testRequest())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, project.StageSourcingCompleted, res.Stage)

	proj, err := mem.Projects().FindByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, project.StageSourcingCompleted, proj.Stage)
	assert.True(t, proj.Active)
}

func TestProcessSourcingRequestFinishedProjectRejectedWithoutMutation(t *testing.T) {
	mem := store.NewMemory()
	proj := testProject(t, mem)
	proj.Stage = project.StageSourcingCompleted

	p := New(testConfig(), Deps{
		Logger:     zap.NewNop(),
		Searcher:   &stubSearcher{},
		Candidates: mem,
		Projects:   mem.Projects(),
	})

	res, err := p.ProcessSourcingRequest(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, StateError, res.State)

	// A sourcing request against a finished project is a caller mistake,
	// not a collaborator failure: the project must not be failed over it.
	found, ferr := mem.Projects().FindByID(context.Background(), "p1")
	require.NoError(t, ferr)
	assert.Equal(t, project.StageSourcingCompleted, found.Stage)
	assert.True(t, found.Active)
}

func TestProcessSourcingRequestProjectNotFound(t *testing.T) {
	mem := store.NewMemory()

	p := New(testConfig(), Deps{
		Logger:     zap.NewNop(),
		Searcher:   &stubSearcher{},
		Candidates: mem,
		Projects:   mem.Projects(),
	})

	req := testRequest()
	req.ProjectID = "missing"
	res, err := p.ProcessSourcingRequest(context.Background(), req)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	require.NotNil(t, res)
	assert.Equal(t, StateError, res.State)
	assert.Zero(t, mem.CandidateCount())
}

func TestProcessSourcingRequestInvalidTargetCount(t *testing.T) {
	mem := store.NewMemory()
	testProject(t, mem)

	p := New(testConfig(), Deps{
		Logger:     zap.NewNop(),
		Searcher:   &stubSearcher{},
		Candidates: mem,
		Projects:   mem.Projects(),
	})

	req := testRequest()
	req.TargetCount = -1
	_, err := p.ProcessSourcingRequest(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidTargetCount)
}

func TestProcessSourcingRequestDeduplicatesProfileURLCasing(t *testing.T) {
	mem := store.NewMemory()
	testProject(t, mem)

	// The same profile discovered twice with different URL casing must
	// collapse into one candidate carrying the union of skills.
	searcher := &stubSearcher{hits: []*provider.RawCandidate{
		rawHit("Jane Doe", "https://Pool.example.com/in/Jane", floatPtr(7), "go", "postgres"),
		rawHit("Jane Doe", "https://pool.example.com/in/jane", floatPtr(7), "go", "kubernetes"),
	}}

	p := New(testConfig(), Deps{
		Logger:     zap.NewNop(),
		Searcher:   searcher,
		Candidates: mem,
		Projects:   mem.Projects(),
	})

	res, err := p.ProcessSourcingRequest(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Found)
	assert.Equal(t, 1, mem.CandidateCount())

	require.Len(t, res.Ranked, 1)
	skills := res.Ranked[0].Skills
	assert.True(t, skills.ContainsAll(candidate.NewSkillSet("go", "postgres", "kubernetes")))
}

func TestProcessSourcingRequestEnrichmentFailureIsolated(t *testing.T) {
	mem := store.NewMemory()
	testProject(t, mem)

	searcher := &stubSearcher{hits: []*provider.RawCandidate{
		rawHit("Alice", "https://pool.example.com/in/alice", floatPtr(8), "go", "postgres", "kubernetes"),
		rawHit("Bob", "https://pool.example.com/in/bob", floatPtr(6), "go", "postgres"),
	}}
	enricher := &stubEnricher{
		data:    &provider.EnrichmentData{Skills: []string{"terraform"}, Education: "MSc"},
		failFor: "bob",
	}

	cfg := testConfig()
	cfg.EnrichmentEnabled = true

	p := New(cfg, Deps{
		Logger:     zap.NewNop(),
		Searcher:   searcher,
		Enricher:   enricher,
		Candidates: mem,
		Projects:   mem.Projects(),
	})

	res, err := p.ProcessSourcingRequest(context.Background(), testRequest())
	require.NoError(t, err)
	assert.True(t, res.Success)

	alice, err := mem.FindByIdentityKey(context.Background(), "pool.example.com/in/alice")
	require.NoError(t, err)
	assert.True(t, alice.Skills.Contains("terraform"))
	assert.Equal(t, "MSc", alice.Education)
	assert.Empty(t, alice.EnrichmentError)

	// Bob keeps his pre-enrichment data and classification.
	bob, err := mem.FindByIdentityKey(context.Background(), "pool.example.com/in/bob")
	require.NoError(t, err)
	assert.NotEmpty(t, bob.EnrichmentError)
	assert.False(t, bob.Skills.Contains("terraform"))
	assert.NotEmpty(t, res.Warnings)
}

func TestProcessSourcingRequestSearchFailureFailsRun(t *testing.T) {
	mem := store.NewMemory()
	testProject(t, mem)

	p := New(testConfig(), Deps{
		Logger:     zap.NewNop(),
		Searcher:   &stubSearcher{err: errors.New("provider unavailable")},
		Candidates: mem,
		Projects:   mem.Projects(),
	})

	res, err := p.ProcessSourcingRequest(context.Background(), testRequest())
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, StateError, res.State)
	assert.Equal(t, project.StageFailed, res.Stage)

	proj, perr := mem.Projects().FindByID(context.Background(), "p1")
	require.NoError(t, perr)
	assert.Equal(t, project.StageFailed, proj.Stage)
	assert.False(t, proj.Active)
}

func TestEvaluatePhaseIsolatesStatusErrors(t *testing.T) {
	mem := store.NewMemory()
	proj := testProject(t, mem)

	contact, err := candidate.NewContactInfo("", "", "https://pool.example.com/in/frozen")
	require.NoError(t, err)
	frozen := candidate.New("Frozen", contact)
	frozen.Status = candidate.StatusContacted

	p := New(testConfig(), Deps{
		Logger:     zap.NewNop(),
		Searcher:   &stubSearcher{},
		Candidates: mem,
		Projects:   mem.Projects(),
	})

	res := &Result{}
	require.NoError(t, p.evaluate(context.Background(), []*candidate.Candidate{frozen}, proj, criteria.Criteria{}, res))

	// The bad status becomes a warning; the candidate is left untouched.
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, candidate.StatusContacted, frozen.Status)
	assert.Nil(t, frozen.Score)
}

func TestProcessSourcingRequestAdvisorFallsBackToRules(t *testing.T) {
	mem := store.NewMemory()
	testProject(t, mem)

	searcher := &stubSearcher{hits: []*provider.RawCandidate{
		rawHit("Dave", "https://pool.example.com/in/dave", nil, "cobol"),
	}}
	broken := &stubAdvisor{err: errors.New("model unavailable")}

	cfg := testConfig()
	cfg.MaxRetries = 1

	p := New(cfg, Deps{
		Logger:     zap.NewNop(),
		Searcher:   searcher,
		Advisor:    broken,
		Candidates: mem,
		Projects:   mem.Projects(),
	})

	res, err := p.ProcessSourcingRequest(context.Background(), testRequest())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Positive(t, broken.calls)

	require.NotEmpty(t, res.Decisions)
	for _, d := range res.Decisions {
		assert.Equal(t, "rules", d.Source)
	}
}

func TestProcessSourcingRequestAdvisorDecisionRecorded(t *testing.T) {
	mem := store.NewMemory()
	testProject(t, mem)

	searcher := &stubSearcher{hits: []*provider.RawCandidate{
		rawHit("Dave", "https://pool.example.com/in/dave", nil, "cobol"),
	}}
	adv := &stubAdvisor{decision: &advisor.Decision{
		Action:     advisor.ActionContinue,
		Reasoning:  "pool is representative for this market",
		Confidence: 0.8,
	}}

	cfg := testConfig()
	cfg.MaxRetries = 2

	p := New(cfg, Deps{
		Logger:     zap.NewNop(),
		Searcher:   searcher,
		Advisor:    adv,
		Candidates: mem,
		Projects:   mem.Projects(),
	})

	res, err := p.ProcessSourcingRequest(context.Background(), testRequest())
	require.NoError(t, err)

	// The advisor said continue at the evaluation gate, so no retries ran.
	assert.Zero(t, res.Retries)
	assert.Equal(t, 1, searcher.calls)

	require.NotEmpty(t, res.Decisions)
	last := res.Decisions[len(res.Decisions)-1]
	assert.Equal(t, "advisor", last.Source)
	assert.Equal(t, string(advisor.ActionContinue), last.Action)
	assert.InDelta(t, 0.8, last.Confidence, 0.001)
}
