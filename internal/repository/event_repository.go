package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/society-sync-api/internal/models"
)

const eventColumns = `id, title, description, date, banner, venue, society_id, society_name, created_by, created_at, updated_at`

// EventRepository provides database access for events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts an event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	const query = `INSERT INTO events (` + eventColumns + `) VALUES (:id, :title, :description, :date, :banner, :venue, :society_id, :society_name, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// ListUpcoming returns events on or after now, soonest first. An empty societyID lists every society.
func (r *EventRepository) ListUpcoming(ctx context.Context, societyID string, now time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE date >= $1`
	args := []interface{}{now}
	if societyID != "" {
		query += ` AND society_id = $2`
		args = append(args, societyID)
	}
	query += ` ORDER BY date ASC`
	return r.list(ctx, "list upcoming events", query, args...)
}

// ListPast returns events before now, most recent first. An empty societyID lists every society.
func (r *EventRepository) ListPast(ctx context.Context, societyID string, now time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE date < $1`
	args := []interface{}{now}
	if societyID != "" {
		query += ` AND society_id = $2`
		args = append(args, societyID)
	}
	query += ` ORDER BY date DESC`
	return r.list(ctx, "list past events", query, args...)
}

// DeleteBefore removes events dated before cutoff and returns how many were deleted.
func (r *EventRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM events WHERE date < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete old events: %w", err)
	}
	return n, nil
}

func (r *EventRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]models.Event, error) {
	events := make([]models.Event, 0)
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}
