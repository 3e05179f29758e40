package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/society-sync-api/internal/dto"
	"github.com/noah-isme/society-sync-api/internal/models"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
)

const (
	defaultSocietyPageSize = 6
	maxSocietyPageSize     = 50
)

type societyRepository interface {
	FindByID(ctx context.Context, id string) (*models.Society, error)
	List(ctx context.Context, filter models.SocietyFilter) ([]models.Society, int, error)
}

// SocietyService serves the public society directory.
type SocietyService struct {
	repo   societyRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewSocietyService constructs the service.
func NewSocietyService(repo societyRepository, cache *CacheService, logger *zap.Logger) *SocietyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocietyService{repo: repo, cache: cache, logger: logger}
}

// List returns one page of societies matching the search term.
func (s *SocietyService) List(ctx context.Context, query dto.SocietyListQuery) (*models.SocietyPage, error) {
	filter := models.SocietyFilter{
		Page:   query.Page,
		Limit:  query.Limit,
		Search: strings.TrimSpace(query.Search),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultSocietyPageSize
	}
	if filter.Limit > maxSocietyPageSize {
		filter.Limit = maxSocietyPageSize
	}

	key := fmt.Sprintf("%s%d:%d:%s", cacheKeySocietiesPrefix, filter.Page, filter.Limit, strings.ToLower(filter.Search))
	var page models.SocietyPage
	if s.cache.Get(ctx, key, &page) {
		return &page, nil
	}

	societies, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list societies")
	}
	page = models.SocietyPage{
		Societies:  societies,
		Total:      total,
		TotalPages: (total + filter.Limit - 1) / filter.Limit,
	}
	s.cache.Set(ctx, key, page)
	return &page, nil
}

// Current returns the society the calling admin runs.
func (s *SocietyService) Current(ctx context.Context, actor *models.JWTClaims) (*models.Society, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only society admins have a current society")
	}
	if actor.AdminOf == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no society assigned to this admin")
	}
	society, err := s.repo.FindByID(ctx, actor.AdminOf)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "society not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load society")
	}
	return society, nil
}
