package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/society-sync-api/internal/models"
)

const formResponseDetailQuery = `SELECT r.id, r.template_id, r.responses, r.submitted_by, r.society_id, r.created_at,
	u.name AS submitter_name, u.email AS submitter_email,
	t.title AS template_title, t.description AS template_description
	FROM form_responses r
	JOIN users u ON u.id = r.submitted_by
	JOIN form_templates t ON t.id = r.template_id`

// FormResponseRepository provides append-only access to form responses.
type FormResponseRepository struct {
	db *sqlx.DB
}

// NewFormResponseRepository constructs the repository.
func NewFormResponseRepository(db *sqlx.DB) *FormResponseRepository {
	return &FormResponseRepository{db: db}
}

type formResponseRow struct {
	models.FormResponse
	SubmitterName       string `db:"submitter_name"`
	SubmitterEmail      string `db:"submitter_email"`
	TemplateTitle       string `db:"template_title"`
	TemplateDescription string `db:"template_description"`
}

func (row formResponseRow) detail() models.FormResponseDetail {
	return models.FormResponseDetail{
		FormResponse: row.FormResponse,
		Submitter: models.Submitter{
			ID:    row.SubmittedBy,
			Name:  row.SubmitterName,
			Email: row.SubmitterEmail,
		},
		TemplateInfo: models.TemplateInfo{
			ID:          row.TemplateID,
			Title:       row.TemplateTitle,
			Description: row.TemplateDescription,
		},
	}
}

// Create appends a submission.
func (r *FormResponseRepository) Create(ctx context.Context, resp *models.FormResponse) error {
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO form_responses (id, template_id, responses, submitted_by, society_id, created_at) VALUES (:id, :template_id, :responses, :submitted_by, :society_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resp); err != nil {
		return fmt.Errorf("create form response: %w", err)
	}
	return nil
}

// ListBySociety returns the society's responses with submitter and template summary, newest first.
func (r *FormResponseRepository) ListBySociety(ctx context.Context, societyID string) ([]models.FormResponseDetail, error) {
	return r.listDetails(ctx, "list society form responses", formResponseDetailQuery+` WHERE r.society_id = $1 ORDER BY r.created_at DESC, r.id`, societyID)
}

// ListByTemplate returns the template's responses with submitter and template summary, newest first.
func (r *FormResponseRepository) ListByTemplate(ctx context.Context, templateID string) ([]models.FormResponseDetail, error) {
	return r.listDetails(ctx, "list template form responses", formResponseDetailQuery+` WHERE r.template_id = $1 ORDER BY r.created_at DESC, r.id`, templateID)
}

func (r *FormResponseRepository) listDetails(ctx context.Context, op, query string, arg string) ([]models.FormResponseDetail, error) {
	var rows []formResponseRow
	if err := r.db.SelectContext(ctx, &rows, query, arg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]models.FormResponseDetail, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.detail())
	}
	return out, nil
}
