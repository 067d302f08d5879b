// Package pipeline orchestrates a sourcing run: search the provider, evaluate
// and classify the hits, optionally enrich the promising ones, deduplicate,
// rank and persist. Two quality gates guard the search and evaluation phases;
// when a gate is unmet and retry budget remains, the criteria are relaxed one
// level and the loop goes back to searching.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/talent-sourcer/internal/advisor"
	"github.com/spigell/talent-sourcer/internal/candidate"
	"github.com/spigell/talent-sourcer/internal/criteria"
	"github.com/spigell/talent-sourcer/internal/dedup"
	"github.com/spigell/talent-sourcer/internal/evaluation"
	"github.com/spigell/talent-sourcer/internal/metrics"
	"github.com/spigell/talent-sourcer/internal/project"
	"github.com/spigell/talent-sourcer/internal/provider"
	"github.com/spigell/talent-sourcer/internal/store"
)

var (
	// ErrProjectNotFound is returned when the requested project does not
	// exist. The run performs no mutations in that case.
	ErrProjectNotFound = errors.New("project not found")

	// ErrInvalidTargetCount is returned when the effective target count is
	// below one.
	ErrInvalidTargetCount = errors.New("target count must be at least 1")
)

// Config tunes a sourcing run.
type Config struct {
	// MinCandidates is the post-search quality gate: fewer hits than this
	// triggers an adaptive retry while budget remains.
	MinCandidates int `mapstructure:"min-candidates"`
	// MinSuitable is the post-evaluation quality gate.
	MinSuitable int `mapstructure:"min-suitable"`
	// MaxRetries bounds the adaptive retry loop across both gates.
	MaxRetries int `mapstructure:"max-retries"`
	// SearchAttempts bounds transient provider retries within one round.
	SearchAttempts int `mapstructure:"search-attempts"`
	// Concurrency bounds the evaluation and enrichment worker pools.
	Concurrency int `mapstructure:"concurrency"`

	EnrichmentEnabled bool `mapstructure:"enrichment-enabled"`

	// CollaboratorTimeout caps a single advisory consultation.
	CollaboratorTimeout time.Duration `mapstructure:"collaborator-timeout"`
	// Backoff is the initial delay between transient retries; it doubles
	// per attempt.
	Backoff time.Duration `mapstructure:"backoff"`

	Evaluation evaluation.Config `mapstructure:"evaluation"`
}

// DefaultConfig returns the conventional pipeline settings.
func DefaultConfig() Config {
	return Config{
		MinCandidates:       5,
		MinSuitable:         3,
		MaxRetries:          3,
		SearchAttempts:      3,
		Concurrency:         5,
		CollaboratorTimeout: 30 * time.Second,
		Backoff:             2 * time.Second,
		Evaluation:          evaluation.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MinCandidates <= 0 {
		c.MinCandidates = def.MinCandidates
	}
	if c.MinSuitable <= 0 {
		c.MinSuitable = def.MinSuitable
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.SearchAttempts <= 0 {
		c.SearchAttempts = def.SearchAttempts
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.CollaboratorTimeout <= 0 {
		c.CollaboratorTimeout = def.CollaboratorTimeout
	}
	if c.Backoff <= 0 {
		c.Backoff = def.Backoff
	}
	return c
}

// Deps aggregates everything a pipeline needs. Enricher, Advisor and Metrics
// are optional; the rest are required.
type Deps struct {
	Logger     *zap.Logger
	Searcher   provider.Searcher
	Enricher   provider.Enricher
	Advisor    advisor.Advisor
	Candidates store.CandidateStore
	Projects   store.ProjectStore
	Metrics    *metrics.Metrics
}

// Pipeline runs sourcing requests. Safe for sequential reuse; a single run
// must not be shared across goroutines.
type Pipeline struct {
	cfg       Config
	deps      Deps
	evaluator *evaluation.Service
	rules     *advisor.Rules
}

func New(cfg Config, deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Pipeline{
		cfg:       cfg,
		deps:      deps,
		evaluator: evaluation.NewService(cfg.Evaluation, deps.Logger),
		rules:     advisor.NewRules(),
	}
}

// Request describes one sourcing run.
type Request struct {
	ProjectID   string
	Criteria    criteria.Criteria
	TargetCount int
}

// ProcessSourcingRequest executes the full sourcing workflow for a project.
// The returned result is never nil: on error it carries the audit trail up to
// the point of failure.
func (p *Pipeline) ProcessSourcingRequest(ctx context.Context, req Request) (*Result, error) {
	res := &Result{State: StateInitializing}
	log := p.deps.Logger.With(zap.String("project_id", req.ProjectID))

	target := req.TargetCount
	if target == 0 {
		target = req.Criteria.TargetCount
	}
	if target < 1 {
		res.State = StateError
		return res, fmt.Errorf("%w: got %d", ErrInvalidTargetCount, target)
	}

	proj, err := p.deps.Projects.FindByID(ctx, req.ProjectID)
	if err != nil {
		res.State = StateError
		if errors.Is(err, store.ErrNotFound) {
			return res, fmt.Errorf("%w: %s", ErrProjectNotFound, req.ProjectID)
		}
		return res, fmt.Errorf("loading project %s: %w", req.ProjectID, err)
	}

	// A fresh project moves into sourcing; one parked mid-workflow by an
	// earlier run (optimizing after an unmet gate) resumes from its current
	// stage. Anything else is rejected without touching the project.
	switch {
	case proj.Stage == project.StageRequestReceived:
		if err := proj.AdvanceTo(project.StageSourcingStarted); err != nil {
			res.State = StateError
			return res, err
		}
	case proj.Stage == project.StageSearching,
		proj.Stage.CanTransitionTo(project.StageSearching):
	default:
		res.State = StateError
		return res, fmt.Errorf("project %s cannot start sourcing from stage %s", req.ProjectID, proj.Stage)
	}

	log.Info("sourcing run started",
		zap.Int("target_count", target),
		zap.Int("min_candidates", p.cfg.MinCandidates),
		zap.Int("min_suitable", p.cfg.MinSuitable),
	)

	base := req.Criteria
	crit := base
	var pool []*candidate.Candidate

	for {
		if err := ctx.Err(); err != nil {
			return p.fail(ctx, proj, res, err)
		}

		// Search phase.
		res.State = StateSearching
		if err := p.advance(proj, project.StageSearching); err != nil {
			return p.fail(ctx, proj, res, err)
		}

		round, err := p.search(ctx, log, crit, target)
		if err != nil {
			return p.fail(ctx, proj, res, err)
		}
		p.deps.Metrics.RecordSearch(len(round.Candidates), res.Retries > 0)

		identified := p.identify(round.Candidates, proj.ID, res)
		res.addPhase("identify", len(round.Candidates), len(identified))

		merged := dedup.RemoveDuplicates(append(pool, identified...))
		res.addPhase("dedup", len(pool)+len(identified), len(merged))
		pool = merged
		res.Found = len(pool)

		// Post-search quality gate.
		if len(pool) < p.cfg.MinCandidates {
			decision := p.consult(ctx, log, res, &advisor.Situation{
				Gate:            advisor.GatePostSearch,
				Found:           len(pool),
				MinCandidates:   p.cfg.MinCandidates,
				MinSuitable:     p.cfg.MinSuitable,
				RetryCount:      res.Retries,
				MaxRetries:      p.cfg.MaxRetries,
				AdjustmentLevel: res.AdjustmentLevel,
			})
			if p.shouldRetry(decision, res.Retries) {
				crit = p.relax(log, res, base)
				continue
			}
		}

		// Evaluation phase.
		res.State = StateEvaluating
		if err := p.advance(proj, project.StageEvaluating); err != nil {
			return p.fail(ctx, proj, res, err)
		}
		if err := p.evaluate(ctx, pool, proj, crit, res); err != nil {
			return p.fail(ctx, proj, res, err)
		}

		suitable, maybe, unsuitable := partition(pool)
		res.Suitable, res.Maybe, res.Unsuitable = len(suitable), len(maybe), len(unsuitable)
		proj.RecordSearchResults(len(pool))
		proj.RecordEvaluation(len(suitable))

		// Post-evaluation quality gate.
		if len(suitable) >= p.cfg.MinSuitable {
			break
		}
		decision := p.consult(ctx, log, res, &advisor.Situation{
			Gate:            advisor.GatePostEvaluation,
			Found:           len(pool),
			Suitable:        len(suitable),
			MinCandidates:   p.cfg.MinCandidates,
			MinSuitable:     p.cfg.MinSuitable,
			RetryCount:      res.Retries,
			MaxRetries:      p.cfg.MaxRetries,
			AdjustmentLevel: res.AdjustmentLevel,
		})
		if !p.shouldRetry(decision, res.Retries) {
			break
		}
		res.State = StateOptimizing
		if err := p.advance(proj, project.StageOptimizing); err != nil {
			return p.fail(ctx, proj, res, err)
		}
		crit = p.relax(log, res, base)
	}

	// Enrichment phase, best effort per candidate.
	if p.cfg.EnrichmentEnabled && p.deps.Enricher != nil {
		res.State = StateEnriching
		if err := p.advance(proj, project.StageEnriching); err != nil {
			return p.fail(ctx, proj, res, err)
		}
		p.enrich(ctx, pool, proj, crit, res)
		suitable, maybe, unsuitable := partition(pool)
		res.Suitable, res.Maybe, res.Unsuitable = len(suitable), len(maybe), len(unsuitable)
		proj.RecordEvaluation(len(suitable))
	}

	// Finalize: rank, prioritize, persist.
	res.State = StateFinalizing
	res.Ranked = rank(pool, target)
	for _, c := range res.Ranked {
		if err := c.TransitionTo(candidate.StatusPrioritized); err != nil {
			res.addWarning(fmt.Sprintf("candidate %s: %v", c.ID, err))
		}
	}

	if err := p.persist(ctx, log, pool, res); err != nil {
		return p.fail(ctx, proj, res, err)
	}

	gateMet := res.Suitable >= p.cfg.MinSuitable
	finalStage := project.StageSourcingCompleted
	if !gateMet {
		finalStage = project.StageOptimizing
	}
	if err := p.advance(proj, finalStage); err != nil {
		return p.fail(ctx, proj, res, err)
	}
	if err := p.deps.Projects.Save(ctx, proj); err != nil {
		return p.fail(ctx, proj, res, fmt.Errorf("saving project: %w", err))
	}

	p.deps.Metrics.RecordSuitable(res.Suitable)
	p.deps.Metrics.RecordRun("success")

	res.Success = true
	res.State = StateCompleted
	res.Stage = proj.Stage

	log.Info("sourcing run completed",
		zap.Int("found", res.Found),
		zap.Int("suitable", res.Suitable),
		zap.Int("shortlisted", len(res.Ranked)),
		zap.Int("retries", res.Retries),
		zap.String("stage", proj.Stage.String()),
	)

	return res, nil
}

// advance moves the project to the next stage, treating already-there as a
// no-op so retry loops can revisit stages.
func (p *Pipeline) advance(proj *project.Project, next project.Stage) error {
	if proj.Stage == next {
		return nil
	}
	return proj.AdvanceTo(next)
}

func (p *Pipeline) search(ctx context.Context, log *zap.Logger, crit criteria.Criteria, target int) (*provider.SearchResult, error) {
	start := time.Now()
	defer p.deps.Metrics.ObservePhase("search", start)

	var result *provider.SearchResult
	err := withRetry(ctx, log, "provider search", p.cfg.SearchAttempts, p.cfg.Backoff, p.cfg.CollaboratorTimeout, func(ctx context.Context) error {
		var err error
		result, err = p.deps.Searcher.Search(ctx, crit, target)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info("search round finished",
		zap.Int("returned", len(result.Candidates)),
		zap.Int("total_found", result.TotalFound),
	)
	return result, nil
}

// identify converts provider hits into tracked candidates. Hits without a
// single valid contact channel are dropped with a warning.
func (p *Pipeline) identify(raw []*provider.RawCandidate, projectID string, res *Result) []*candidate.Candidate {
	out := make([]*candidate.Candidate, 0, len(raw))
	for _, r := range raw {
		contact, err := candidate.NewContactInfo(r.Email, r.Phone, r.ProfileURL)
		if err != nil {
			res.addWarning(fmt.Sprintf("skipping %q: %v", r.Name, err))
			p.deps.Metrics.RecordWarning("identify")
			continue
		}

		c := candidate.New(r.Name, contact)
		c.Position = r.Position
		c.Employer = r.Employer
		c.Location = r.Location
		c.Skills = candidate.NewSkillSet(r.Skills...)
		c.YearsExperience = r.YearsExperience
		c.Education = r.Education
		c.ProjectID = projectID
		if r.ProfileID != "" {
			c.MergeProfile(map[string]any{"provider_id": r.ProfileID})
		}
		if r.Summary != "" {
			c.MergeProfile(map[string]any{"summary": r.Summary})
		}
		c.MergeProfile(r.Raw)

		if err := c.TransitionTo(candidate.StatusIdentified); err != nil {
			res.addWarning(fmt.Sprintf("candidate %s: %v", c.ID, err))
			continue
		}
		out = append(out, c)
	}
	return out
}

// evaluate scores every unevaluated candidate concurrently. Scoring is
// deterministic, so candidates that already carry a score from a previous
// round are left alone. Per-candidate failures become warnings.
func (p *Pipeline) evaluate(ctx context.Context, pool []*candidate.Candidate, proj *project.Project, crit criteria.Criteria, res *Result) error {
	start := time.Now()
	defer p.deps.Metrics.ObservePhase("evaluate", start)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	warnings := make([]string, len(pool))
	for i, c := range pool {
		if c.Score != nil {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := c.TransitionTo(candidate.StatusEvaluating); err != nil {
				warnings[i] = fmt.Sprintf("candidate %s: %v", c.ID, err)
				return nil
			}

			score, err := p.evaluator.Evaluate(c, proj, crit)
			if err != nil {
				warnings[i] = fmt.Sprintf("evaluating candidate %s: %v", c.ID, err)
				return nil
			}
			c.SetScore(score)
			if err := c.TransitionTo(statusFor(p.evaluator.Classify(score))); err != nil {
				warnings[i] = fmt.Sprintf("candidate %s: %v", c.ID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("evaluation phase: %w", err)
	}
	for _, w := range warnings {
		if w != "" {
			res.addWarning(w)
			p.deps.Metrics.RecordWarning("evaluate")
		}
	}
	return nil
}

// enrich fetches deep profiles for suitable and maybe candidates, merges the
// extra data and re-scores them. Failures are isolated: the candidate keeps
// its pre-enrichment data and classification.
func (p *Pipeline) enrich(ctx context.Context, pool []*candidate.Candidate, proj *project.Project, crit criteria.Criteria, res *Result) {
	start := time.Now()
	defer p.deps.Metrics.ObservePhase("enrich", start)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	warnings := make([]string, len(pool))
	for i, c := range pool {
		if c.Status != candidate.StatusSuitable && c.Status != candidate.StatusMaybe {
			continue
		}
		prior := c.Status
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return nil
			}
			if err := c.TransitionTo(candidate.StatusEnriching); err != nil {
				warnings[i] = fmt.Sprintf("candidate %s: %v", c.ID, err)
				return nil
			}

			ref := enrichmentRef(c)
			data, err := p.deps.Enricher.Enrich(gctx, ref)
			if err != nil {
				c.EnrichmentError = err.Error()
				warnings[i] = fmt.Sprintf("enriching candidate %s: %v", c.ID, err)
				if terr := c.TransitionTo(prior); terr != nil {
					warnings[i] += fmt.Sprintf("; %v", terr)
				}
				return nil
			}

			p.applyEnrichment(c, data)
			if err := c.TransitionTo(candidate.StatusEnriched); err != nil {
				warnings[i] = fmt.Sprintf("candidate %s: %v", c.ID, err)
				return nil
			}

			// Re-score with the merged data.
			score, err := p.evaluator.Evaluate(c, proj, crit)
			if err != nil {
				warnings[i] = fmt.Sprintf("re-evaluating candidate %s: %v", c.ID, err)
				return nil
			}
			c.SetScore(score)
			if err := c.TransitionTo(statusFor(p.evaluator.Classify(score))); err != nil {
				warnings[i] = fmt.Sprintf("candidate %s: %v", c.ID, err)
			}
			return nil
		})
	}

	_ = g.Wait()
	for _, w := range warnings {
		if w != "" {
			res.addWarning(w)
			p.deps.Metrics.RecordWarning("enrich")
		}
	}
}

func (p *Pipeline) applyEnrichment(c *candidate.Candidate, data *provider.EnrichmentData) {
	c.AddSkills(data.Skills...)
	if data.Email != "" && !c.Contact.HasEmail() {
		c.Contact = c.Contact.WithEmail(data.Email)
	}
	if data.Phone != "" && !c.Contact.HasPhone() {
		c.Contact = c.Contact.WithPhone(data.Phone)
	}
	if data.Education != "" && c.Education == "" {
		c.Education = data.Education
	}
	if data.Summary != "" {
		c.MergeProfile(map[string]any{"summary": data.Summary})
	}
	c.MergeProfile(data.Raw)
}

// consult asks the configured advisor for a gate decision, falling back to
// the deterministic rules on any failure. The decision lands in the audit
// trail either way.
func (p *Pipeline) consult(ctx context.Context, log *zap.Logger, res *Result, s *advisor.Situation) *advisor.Decision {
	if p.deps.Advisor != nil {
		cctx, cancel := context.WithTimeout(ctx, p.cfg.CollaboratorTimeout)
		decision, err := p.deps.Advisor.Decide(cctx, s)
		cancel()
		if err == nil && decision != nil && decision.Action.Valid() {
			res.addDecision(string(s.Gate), "advisor", string(decision.Action), decision.Reasoning, decision.Confidence)
			return decision
		}
		log.Warn("advisor consultation failed, falling back to rules",
			zap.String("gate", string(s.Gate)),
			zap.Error(err),
		)
	}

	decision, _ := p.rules.Decide(ctx, s)
	res.addDecision(string(s.Gate), "rules", string(decision.Action), decision.Reasoning, decision.Confidence)
	return decision
}

// shouldRetry interprets a gate decision. The retry budget binds even when an
// advisor recommends another round.
func (p *Pipeline) shouldRetry(d *advisor.Decision, retries int) bool {
	if retries >= p.cfg.MaxRetries {
		return false
	}
	return d.Action == advisor.ActionAdjust || d.Action == advisor.ActionRetry
}

// relax bumps the retry counters and returns the next relaxation of the base
// criteria.
func (p *Pipeline) relax(log *zap.Logger, res *Result, base criteria.Criteria) criteria.Criteria {
	res.Retries++
	if res.AdjustmentLevel < criteria.MaxAdjustmentLevel {
		res.AdjustmentLevel++
	}

	next := criteria.Adjust(base, res.AdjustmentLevel)
	log.Info("relaxing search criteria",
		zap.Int("retry", res.Retries),
		zap.Int("adjustment_level", res.AdjustmentLevel),
		zap.Float64("min_experience_years", next.MinExperienceYears),
		zap.Strings("required_skills", next.RequiredSkills),
	)
	return next
}

// persist saves the final pool. Already-known identities are noted in the
// audit trail; the upsert refreshes them regardless.
func (p *Pipeline) persist(ctx context.Context, log *zap.Logger, pool []*candidate.Candidate, res *Result) error {
	start := time.Now()
	defer p.deps.Metrics.ObservePhase("persist", start)

	known := 0
	for _, c := range pool {
		exists, err := p.deps.Candidates.ExistsByIdentityKey(ctx, c.IdentityKey())
		if err != nil {
			return fmt.Errorf("checking identity key for %s: %w", c.ID, err)
		}
		if exists {
			known++
		}
	}
	if known > 0 {
		log.Info("refreshing already-known candidates", zap.Int("count", known))
	}
	res.addPhase("persist", len(pool), len(pool))

	err := withRetry(ctx, log, "candidate batch save", p.cfg.SearchAttempts, p.cfg.Backoff, 0, func(ctx context.Context) error {
		return p.deps.Candidates.BatchSave(ctx, pool)
	})
	if err != nil {
		return err
	}
	return nil
}

// fail records a failed run: the project moves to the failed stage when the
// workflow allows it and is saved best effort.
func (p *Pipeline) fail(ctx context.Context, proj *project.Project, res *Result, err error) (*Result, error) {
	res.State = StateError
	p.deps.Metrics.RecordRun("error")

	if proj != nil {
		if proj.Stage.CanTransitionTo(project.StageFailed) {
			if aerr := proj.AdvanceTo(project.StageFailed); aerr != nil {
				res.addWarning(aerr.Error())
			}
		}
		res.Stage = proj.Stage
		if serr := p.deps.Projects.Save(context.WithoutCancel(ctx), proj); serr != nil {
			res.addWarning(fmt.Sprintf("saving failed project: %v", serr))
		}
	}

	p.deps.Logger.Error("sourcing run failed", zap.Error(err))
	return res, err
}

// enrichmentRef picks the reference handed to the enricher: the provider's
// own profile id when the search hit carried one, else the profile URL.
func enrichmentRef(c *candidate.Candidate) string {
	if id, ok := c.Profile["provider_id"].(string); ok && id != "" {
		return id
	}
	if u := c.Contact.ProfileURL(); u != "" {
		return u
	}
	return c.ID
}

func statusFor(s candidate.Suitability) candidate.Status {
	switch s {
	case candidate.Suitable:
		return candidate.StatusSuitable
	case candidate.Maybe:
		return candidate.StatusMaybe
	default:
		return candidate.StatusUnsuitable
	}
}

// partition splits the pool by classification status. Enriched candidates
// are still awaiting reclassification and count as maybe.
func partition(pool []*candidate.Candidate) (suitable, maybe, unsuitable []*candidate.Candidate) {
	for _, c := range pool {
		switch c.Status {
		case candidate.StatusSuitable, candidate.StatusPrioritized:
			suitable = append(suitable, c)
		case candidate.StatusUnsuitable:
			unsuitable = append(unsuitable, c)
		case candidate.StatusMaybe, candidate.StatusEnriched:
			maybe = append(maybe, c)
		}
	}
	return suitable, maybe, unsuitable
}

// rank orders suitable candidates first, then maybes, each by overall score
// descending, and truncates to the target count.
func rank(pool []*candidate.Candidate, target int) []*candidate.Candidate {
	suitable, maybe, _ := partition(pool)

	byScore := func(list []*candidate.Candidate) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].OverallScore() > list[j].OverallScore()
		})
	}
	byScore(suitable)
	byScore(maybe)

	ranked := make([]*candidate.Candidate, 0, len(suitable)+len(maybe))
	ranked = append(ranked, suitable...)
	ranked = append(ranked, maybe...)
	if target > 0 && len(ranked) > target {
		ranked = ranked[:target]
	}
	return ranked
}
