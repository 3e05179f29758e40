package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/society-sync-api/internal/models"
)

const formTemplateColumns = `id, title, description, fields, society_id, created_by, is_active, created_at, updated_at`

// FormTemplateRepository provides database access for form templates.
type FormTemplateRepository struct {
	db *sqlx.DB
}

// NewFormTemplateRepository constructs the repository.
func NewFormTemplateRepository(db *sqlx.DB) *FormTemplateRepository {
	return &FormTemplateRepository{db: db}
}

// Create inserts a template. Templates are never updated afterwards.
func (r *FormTemplateRepository) Create(ctx context.Context, tmpl *models.FormTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	const query = `INSERT INTO form_templates (` + formTemplateColumns + `) VALUES (:id, :title, :description, :fields, :society_id, :created_by, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tmpl); err != nil {
		return fmt.Errorf("create form template: %w", err)
	}
	return nil
}

// FindByID returns a template by identifier.
func (r *FormTemplateRepository) FindByID(ctx context.Context, id string) (*models.FormTemplate, error) {
	const query = `SELECT ` + formTemplateColumns + ` FROM form_templates WHERE id = $1`
	var tmpl models.FormTemplate
	if err := r.db.GetContext(ctx, &tmpl, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find form template: %w", err)
	}
	return &tmpl, nil
}

// List returns every template, newest first.
func (r *FormTemplateRepository) List(ctx context.Context) ([]models.FormTemplate, error) {
	const query = `SELECT ` + formTemplateColumns + ` FROM form_templates ORDER BY created_at DESC`
	templates := make([]models.FormTemplate, 0)
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list form templates: %w", err)
	}
	return templates, nil
}

// ListBySociety returns the society's templates, newest first.
func (r *FormTemplateRepository) ListBySociety(ctx context.Context, societyID string) ([]models.FormTemplate, error) {
	const query = `SELECT ` + formTemplateColumns + ` FROM form_templates WHERE society_id = $1 ORDER BY created_at DESC`
	templates := make([]models.FormTemplate, 0)
	if err := r.db.SelectContext(ctx, &templates, query, societyID); err != nil {
		return nil, fmt.Errorf("list society form templates: %w", err)
	}
	return templates, nil
}
