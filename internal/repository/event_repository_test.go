package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUpcomingScopedToSociety(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "title", "description", "date", "banner", "venue", "society_id", "society_name", "created_by", "created_at", "updated_at"}).
		AddRow("e1", "Blitz night", "", now.Add(48*time.Hour), "/uploads/b.png", "Hall A", "s1", "Chess Club", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + eventColumns + " FROM events WHERE date >= $1 AND society_id = $2 ORDER BY date ASC")).
		WithArgs(now, "s1").
		WillReturnRows(rows)

	events, err := repo.ListUpcoming(context.Background(), "s1", now)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Blitz night", events[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPastAllSocieties(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE date < $1 ORDER BY date DESC")).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	events, err := repo.ListPast(context.Background(), "", now)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestDeleteBefore(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	cutoff := time.Now().Add(-time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE date < $1")).WithArgs(cutoff).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
