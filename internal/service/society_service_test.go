package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/society-sync-api/internal/dto"
	"github.com/noah-isme/society-sync-api/internal/models"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
)

type mockSocietyRepo struct {
	fakeSocieties
	total   int
	filters []models.SocietyFilter
	listErr error
}

func (m *mockSocietyRepo) List(ctx context.Context, filter models.SocietyFilter) ([]models.Society, int, error) {
	m.filters = append(m.filters, filter)
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return []models.Society{{ID: societyS, Name: "Chess Club"}}, m.total, nil
}

func newMockSocietyRepo() *mockSocietyRepo {
	return &mockSocietyRepo{
		fakeSocieties: fakeSocieties{byID: map[string]*models.Society{
			societyS: {ID: societyS, Name: "Chess Club", AdminID: strPtr(adminAID)},
		}},
		total: 13,
	}
}

func TestSocietyServiceListDefaults(t *testing.T) {
	repo := newMockSocietyRepo()
	svc := NewSocietyService(repo, nil, nil)

	page, err := svc.List(context.Background(), dto.SocietyListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 13, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, models.SocietyFilter{Page: 1, Limit: 6}, repo.filters[0])

	_, err = svc.List(context.Background(), dto.SocietyListQuery{Page: 2, Limit: 500, Search: " chess "})
	require.NoError(t, err)
	assert.Equal(t, models.SocietyFilter{Page: 2, Limit: 50, Search: "chess"}, repo.filters[1])
}

func TestSocietyServiceListCached(t *testing.T) {
	repo := newMockSocietyRepo()
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewSocietyService(repo, cache, nil)

	_, err := svc.List(context.Background(), dto.SocietyListQuery{Search: "Chess"})
	require.NoError(t, err)
	page, err := svc.List(context.Background(), dto.SocietyListQuery{Search: "chess"})
	require.NoError(t, err)
	assert.Len(t, repo.filters, 1)
	assert.Equal(t, "Chess Club", page.Societies[0].Name)

	repo.listErr = errors.New("db down")
	_, err = svc.List(context.Background(), dto.SocietyListQuery{Page: 9})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestSocietyServiceCurrent(t *testing.T) {
	svc := NewSocietyService(newMockSocietyRepo(), nil, nil)

	society, err := svc.Current(context.Background(), &models.JWTClaims{UserID: adminAID, Role: models.RoleAdmin, AdminOf: societyS})
	require.NoError(t, err)
	assert.Equal(t, "Chess Club", society.Name)

	_, err = svc.Current(context.Background(), &models.JWTClaims{UserID: studentID, Role: models.RoleStudent})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Current(context.Background(), &models.JWTClaims{UserID: adminBID, Role: models.RoleAdmin})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Current(context.Background(), &models.JWTClaims{UserID: adminBID, Role: models.RoleAdmin, AdminOf: unknownUUID})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
