// Package postgres holds the project registry: the durable record binding
// tracked outline documents to posting accounts. The pipeline reads it
// read-only; mutations happen out-of-band.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"brainlift_tracker/internal/domain"
)

type ProjectStore struct {
	db *sqlx.DB
}

func NewProjectStore(db *sqlx.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// Get returns one project by its generated id.
func (s *ProjectStore) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	var p domain.Project
	query := `
		SELECT project_id, url, name, account_id, active, created_at, updated_at
		FROM projects
		WHERE project_id = $1`

	err := s.db.GetContext(ctx, &p, query, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AllActive returns every project the orchestrator should run, oldest first
// for stable batch composition.
func (s *ProjectStore) AllActive(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	query := `
		SELECT project_id, url, name, account_id, active, created_at, updated_at
		FROM projects
		WHERE active = TRUE
		ORDER BY created_at`

	if err := s.db.SelectContext(ctx, &projects, query); err != nil {
		return nil, err
	}
	return projects, nil
}

// AccountID resolves the posting account for a project.
func (s *ProjectStore) AccountID(ctx context.Context, projectID string) (string, error) {
	var accountID string
	err := s.db.GetContext(ctx, &accountID,
		"SELECT account_id FROM projects WHERE project_id = $1", projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrProjectNotFound
	}
	if err != nil {
		return "", err
	}
	return accountID, nil
}

// Create registers a new tracked document, generating the URL-independent
// project id. Used by out-of-band tooling, never by the pipeline.
func (s *ProjectStore) Create(ctx context.Context, url, name, accountID string) (*domain.Project, error) {
	now := time.Now().UTC()
	p := &domain.Project{
		ProjectID: uuid.NewString(),
		URL:       url,
		Name:      name,
		AccountID: accountID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO projects (project_id, url, name, account_id, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		p.ProjectID, p.URL, p.Name, p.AccountID, p.Active, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateURL rotates the tracked document URL, keeping the project identity.
func (s *ProjectStore) UpdateURL(ctx context.Context, projectID, url string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE projects SET url = $1, updated_at = $2 WHERE project_id = $3",
		url, time.Now().UTC(), projectID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Deactivate removes a project from future batch runs without deleting it.
func (s *ProjectStore) Deactivate(ctx context.Context, projectID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE projects SET active = FALSE, updated_at = $1 WHERE project_id = $2",
		time.Now().UTC(), projectID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}
