package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/society-sync-api/internal/models"
)

const societyColumns = `id, name, description, logo, email, instagram, is_recruitment_open, recurring_events, admin_id, created_at, updated_at`

// SocietyRepository provides database access for societies.
type SocietyRepository struct {
	db *sqlx.DB
}

// NewSocietyRepository constructs the repository.
func NewSocietyRepository(db *sqlx.DB) *SocietyRepository {
	return &SocietyRepository{db: db}
}

// FindByID returns a society by identifier.
func (r *SocietyRepository) FindByID(ctx context.Context, id string) (*models.Society, error) {
	const query = `SELECT ` + societyColumns + ` FROM societies WHERE id = $1`
	var society models.Society
	if err := r.db.GetContext(ctx, &society, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find society: %w", err)
	}
	return &society, nil
}

// FindByName matches the society name case-insensitively.
func (r *SocietyRepository) FindByName(ctx context.Context, name string) (*models.Society, error) {
	const query = `SELECT ` + societyColumns + ` FROM societies WHERE LOWER(name) = LOWER($1)`
	var society models.Society
	if err := r.db.GetContext(ctx, &society, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find society by name: %w", err)
	}
	return &society, nil
}

// List returns one page of societies ordered by name with the total match count.
func (r *SocietyRepository) List(ctx context.Context, filter models.SocietyFilter) ([]models.Society, int, error) {
	baseQuery := `FROM societies`
	var args []interface{}
	if filter.Search != "" {
		baseQuery += ` WHERE (LOWER(name) LIKE $1 OR LOWER(description) LIKE $1)`
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	offset := (filter.Page - 1) * filter.Limit
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", societyColumns, baseQuery, filter.Limit, offset)

	societies := make([]models.Society, 0)
	if err := r.db.SelectContext(ctx, &societies, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list societies: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count societies: %w", err)
	}
	return societies, total, nil
}

// Create inserts a society. Used by the seed command.
func (r *SocietyRepository) Create(ctx context.Context, society *models.Society) error {
	if society.ID == "" {
		society.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	society.CreatedAt = now
	society.UpdatedAt = now
	if society.RecurringEvents == nil {
		society.RecurringEvents = []string{}
	}
	const query = `INSERT INTO societies (` + societyColumns + `) VALUES (:id, :name, :description, :logo, :email, :instagram, :is_recruitment_open, :recurring_events, :admin_id, :created_at, :updated_at) ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, society); err != nil {
		return fmt.Errorf("create society: %w", err)
	}
	return nil
}

// AssignAdmin verifies the user as admin of the society and records them on the society in
// one transaction.
func (r *SocietyRepository) AssignAdmin(ctx context.Context, userID, societyID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assign admin tx: %w", err)
	}
	now := time.Now().UTC()

	const updateUser = `UPDATE users SET verified = TRUE, admin_of = $2, pending_society_id = NULL, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateUser, userID, societyID, now); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("verify admin: %w", err)
	}

	const updateSociety = `UPDATE societies SET admin_id = $2, updated_at = $3 WHERE id = $1 AND (admin_id IS NULL OR admin_id = $2)`
	res, err := tx.ExecContext(ctx, updateSociety, societyID, userID, now)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("set society admin: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		_ = tx.Rollback()
		if err != nil {
			return fmt.Errorf("set society admin: %w", err)
		}
		return ErrDuplicate
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assign admin tx: %w", err)
	}
	return nil
}
