package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/society-sync-api/internal/models"
	"github.com/noah-isme/society-sync-api/internal/repository"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
)

type pendingAdminRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListPendingAdmins(ctx context.Context) ([]models.PendingAdmin, error)
	Delete(ctx context.Context, id string) error
}

type adminAssigner interface {
	FindByID(ctx context.Context, id string) (*models.Society, error)
	AssignAdmin(ctx context.Context, userID, societyID string) error
}

// AdminApprovalService lets the superadmin accept or turn down admin registrations.
type AdminApprovalService struct {
	users     pendingAdminRepository
	societies adminAssigner
	cache     *CacheService
	logger    *zap.Logger
}

// NewAdminApprovalService constructs the service.
func NewAdminApprovalService(users pendingAdminRepository, societies adminAssigner, cache *CacheService, logger *zap.Logger) *AdminApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminApprovalService{users: users, societies: societies, cache: cache, logger: logger}
}

// ListPending returns admins waiting for approval.
func (s *AdminApprovalService) ListPending(ctx context.Context, actor *models.JWTClaims) ([]models.PendingAdmin, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	pending, err := s.users.ListPendingAdmins(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending admins")
	}
	return pending, nil
}

// Approve verifies the admin and hands them the society they asked for.
func (s *AdminApprovalService) Approve(ctx context.Context, actor *models.JWTClaims, userID string) (*models.User, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.pendingAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsPendingAdmin() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no pending admin request for this user")
	}
	if user.PendingSocietyID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "admin request does not name a society")
	}

	societyID := *user.PendingSocietyID
	society, err := s.societies.FindByID(ctx, societyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "society not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load society")
	}
	if society.AdminID != nil && *society.AdminID != user.ID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "society already has an admin")
	}

	if err := s.societies.AssignAdmin(ctx, user.ID, societyID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "society already has an admin")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve admin")
	}
	s.cache.Invalidate(ctx, cacheKeySocietiesPrefix+"*")

	user.Verified = true
	user.AdminOf = &societyID
	user.PendingSocietyID = nil
	s.logger.Info("admin approved", zap.String("user_id", user.ID), zap.String("society_id", societyID))
	return user, nil
}

// Reject deletes an admin registration.
func (s *AdminApprovalService) Reject(ctx context.Context, actor *models.JWTClaims, userID string) error {
	if err := requireSuperAdmin(actor); err != nil {
		return err
	}
	user, err := s.pendingAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrValidation, "only admin accounts can be rejected")
	}
	if !user.IsPendingAdmin() {
		return appErrors.Clone(appErrors.ErrConflict, "admin is already approved")
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		if errors.Is(err, repository.ErrReferenced) {
			return appErrors.Clone(appErrors.ErrConflict, "admin still owns society records")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject admin")
	}
	s.logger.Info("admin rejected", zap.String("user_id", user.ID))
	return nil
}

func (s *AdminApprovalService) pendingAdmin(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func requireSuperAdmin(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleSuperAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "superadmin access required")
	}
	return nil
}
