package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/talent-sourcer/internal/candidate"
	"github.com/spigell/talent-sourcer/internal/project"
)

// Postgres persists candidates and projects in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and verifies it.
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (db *Postgres) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

const upsertCandidateSQL = `
INSERT INTO candidates (
	id, project_id, identity_key, name, position, employer, location,
	email, phone, profile_url, skills, years_experience, education,
	status, score, profile, enrichment_error, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (id) DO UPDATE SET
	project_id = $2, identity_key = $3, name = $4, position = $5,
	employer = $6, location = $7, email = $8, phone = $9, profile_url = $10,
	skills = $11, years_experience = $12, education = $13, status = $14,
	score = $15, profile = $16, enrichment_error = $17, updated_at = $19`

func (db *Postgres) Save(ctx context.Context, c *candidate.Candidate) error {
	skills, err := json.Marshal(c.Skills.Slice())
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}
	profile, err := json.Marshal(c.Profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	var score []byte
	if c.Score != nil {
		if score, err = json.Marshal(c.Score); err != nil {
			return fmt.Errorf("marshal score: %w", err)
		}
	}

	_, err = db.pool.Exec(ctx, upsertCandidateSQL,
		c.ID, c.ProjectID, c.IdentityKey(), c.Name, c.Position, c.Employer, c.Location,
		c.Contact.Email(), c.Contact.Phone(), c.Contact.ProfileURL(), skills,
		c.YearsExperience, c.Education, string(c.Status), score, profile,
		c.EnrichmentError, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save candidate %s: %w", c.ID, err)
	}
	return nil
}

func (db *Postgres) BatchSave(ctx context.Context, list []*candidate.Candidate) error {
	for _, c := range list {
		if err := db.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

const selectCandidateSQL = `
SELECT id, project_id, name, position, employer, location, email, phone,
	profile_url, skills, years_experience, education, status, score, profile,
	enrichment_error, created_at, updated_at
FROM candidates`

func (db *Postgres) FindByID(ctx context.Context, id string) (*candidate.Candidate, error) {
	return db.scanCandidate(db.pool.QueryRow(ctx, selectCandidateSQL+` WHERE id = $1`, id))
}

func (db *Postgres) FindByIdentityKey(ctx context.Context, key string) (*candidate.Candidate, error) {
	return db.scanCandidate(db.pool.QueryRow(ctx, selectCandidateSQL+` WHERE identity_key = $1`, key))
}

func (db *Postgres) ExistsByIdentityKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM candidates WHERE identity_key = $1)`, key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check identity key: %w", err)
	}
	return exists, nil
}

func (db *Postgres) scanCandidate(row pgx.Row) (*candidate.Candidate, error) {
	var (
		c          candidate.Candidate
		email      string
		phone      string
		profileURL string
		skills     []byte
		status     string
		score      []byte
		profile    []byte
	)

	err := row.Scan(
		&c.ID, &c.ProjectID, &c.Name, &c.Position, &c.Employer, &c.Location,
		&email, &phone, &profileURL, &skills, &c.YearsExperience, &c.Education,
		&status, &score, &profile, &c.EnrichmentError, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}

	contact, err := candidate.NewContactInfo(email, phone, profileURL)
	if err != nil {
		return nil, fmt.Errorf("restore contact for %s: %w", c.ID, err)
	}
	c.Contact = contact
	c.Status = candidate.Status(status)

	var skillList []string
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &skillList); err != nil {
			return nil, fmt.Errorf("unmarshal skills for %s: %w", c.ID, err)
		}
	}
	c.Skills = candidate.NewSkillSet(skillList...)

	if len(score) > 0 {
		var s candidate.EvaluationScore
		if err := json.Unmarshal(score, &s); err != nil {
			return nil, fmt.Errorf("unmarshal score for %s: %w", c.ID, err)
		}
		c.Score = &s
	}
	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &c.Profile); err != nil {
			return nil, fmt.Errorf("unmarshal profile for %s: %w", c.ID, err)
		}
	}

	return &c, nil
}

const upsertProjectSQL = `
INSERT INTO projects (
	id, title, company, description, required_skills, location,
	required_experience, stage, target_count, min_suitable,
	found, suitable, contacted, responded, active, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (id) DO UPDATE SET
	title = $2, company = $3, description = $4, required_skills = $5,
	location = $6, required_experience = $7, stage = $8, target_count = $9,
	min_suitable = $10, found = $11, suitable = $12, contacted = $13,
	responded = $14, active = $15, updated_at = $17`

// Projects adapts Postgres to the ProjectStore interface.
func (db *Postgres) Projects() ProjectStore { return &postgresProjects{db} }

type postgresProjects struct{ db *Postgres }

func (s *postgresProjects) Save(ctx context.Context, p *project.Project) error {
	skills, err := json.Marshal(p.RequiredSkills.Slice())
	if err != nil {
		return fmt.Errorf("marshal required skills: %w", err)
	}

	_, err = s.db.pool.Exec(ctx, upsertProjectSQL,
		p.ID, p.Title, p.Company, p.Description, skills, p.Location,
		p.RequiredExperience, string(p.Stage), p.TargetCount, p.MinSuitable,
		p.Metrics.Found, p.Metrics.Suitable, p.Metrics.Contacted, p.Metrics.Responded,
		p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save project %s: %w", p.ID, err)
	}
	return nil
}

func (s *postgresProjects) FindByID(ctx context.Context, id string) (*project.Project, error) {
	var (
		p      project.Project
		skills []byte
		stage  string
	)

	err := s.db.pool.QueryRow(ctx,
		`SELECT id, title, company, description, required_skills, location,
			required_experience, stage, target_count, min_suitable,
			found, suitable, contacted, responded, active, created_at, updated_at
		 FROM projects WHERE id = $1`, id,
	).Scan(
		&p.ID, &p.Title, &p.Company, &p.Description, &skills, &p.Location,
		&p.RequiredExperience, &stage, &p.TargetCount, &p.MinSuitable,
		&p.Metrics.Found, &p.Metrics.Suitable, &p.Metrics.Contacted, &p.Metrics.Responded,
		&p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find project %s: %w", id, err)
	}

	p.Stage = project.Stage(stage)

	var skillList []string
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &skillList); err != nil {
			return nil, fmt.Errorf("unmarshal required skills for %s: %w", id, err)
		}
	}
	p.RequiredSkills = candidate.NewSkillSet(skillList...)

	return &p, nil
}
