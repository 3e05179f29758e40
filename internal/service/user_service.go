package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/society-sync-api/internal/models"
	"github.com/noah-isme/society-sync-api/internal/repository"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
	"github.com/noah-isme/society-sync-api/pkg/storage"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateAccount(ctx context.Context, id, name, email string) error
	UpdateAvatar(ctx context.Context, id, avatar string) error
	HasPendingAdminFor(ctx context.Context, societyID string) (bool, error)
}

type imageStore interface {
	SaveImage(folder string, r io.Reader) (string, error)
	Delete(publicURL string) error
}

const avatarFolder = "avatars"

// UserService handles self-service account workflows.
type UserService struct {
	repo          userRepository
	societies     societyLookup
	images        imageStore
	audit         auditRecorder
	validator     *validator.Validate
	logger        *zap.Logger
	defaultAvatar string
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, societies societyLookup, images imageStore, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, defaultAvatar string) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{
		repo:          repo,
		societies:     societies,
		images:        images,
		audit:         audit,
		validator:     validate,
		logger:        logger,
		defaultAvatar: defaultAvatar,
	}
}

// Register creates a student account, or an admin account that waits for approval of the
// society it asked for. avatar may be nil.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest, avatar io.Reader) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid registration payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Avatar:   s.defaultAvatar,
		Verified: req.Role == models.RoleStudent,
	}
	if req.Role == models.RoleAdmin {
		if err := s.checkSocietyAvailable(ctx, req.PendingSocietyID); err != nil {
			return nil, err
		}
		pending := req.PendingSocietyID
		user.PendingSocietyID = &pending
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user.PasswordHash = string(hash)

	if avatar != nil {
		url, err := s.saveImage(avatar)
		if err != nil {
			return nil, err
		}
		user.Avatar = url
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if user.Avatar != s.defaultAvatar {
			_ = s.images.Delete(user.Avatar)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	payload, _ := json.Marshal(map[string]interface{}{"email": user.Email, "role": user.Role, "pendingSociety": user.PendingSocietyID})
	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &user.ID,
			Action:     models.AuditActionRegister,
			Resource:   "users",
			ResourceID: &user.ID,
			NewValues:  payload,
		}); err != nil {
			s.logger.Warn("failed to record register audit log", zap.Error(err))
		}
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *UserService) checkSocietyAvailable(ctx context.Context, societyID string) error {
	if societyID == "" {
		return appErrors.WithDetails(appErrors.ErrValidation, "invalid registration payload", []string{"pendingSociety is required for admin accounts"})
	}
	society, err := s.societies.FindByID(ctx, societyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "society not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load society")
	}
	if society.AdminID != nil {
		return appErrors.Clone(appErrors.ErrConflict, "society already has an admin")
	}
	pending, err := s.repo.HasPendingAdminFor(ctx, societyID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending admins")
	}
	if pending {
		return appErrors.Clone(appErrors.ErrConflict, "society already has a pending admin request")
	}
	return nil
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context, actor *models.JWTClaims) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.load(ctx, actor.UserID)
}

// UpdateAccount changes the caller's name and email.
func (s *UserService) UpdateAccount(ctx context.Context, actor *models.JWTClaims, req models.UpdateAccountRequest) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidation(err, "invalid account payload")
	}

	if err := s.repo.UpdateAccount(ctx, actor.UserID, req.Name, req.Email); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account")
	}
	return s.load(ctx, actor.UserID)
}

// UpdateAvatar stores a new avatar image and drops the previous upload.
func (s *UserService) UpdateAvatar(ctx context.Context, actor *models.JWTClaims, avatar io.Reader) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if avatar == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "avatar image is required")
	}
	current, err := s.load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	url, err := s.saveImage(avatar)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAvatar(ctx, current.ID, url); err != nil {
		_ = s.images.Delete(url)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update avatar")
	}
	if current.Avatar != "" && current.Avatar != s.defaultAvatar {
		if err := s.images.Delete(current.Avatar); err != nil {
			s.logger.Warn("failed to delete previous avatar", zap.String("avatar", current.Avatar), zap.Error(err))
		}
	}

	current.Avatar = url
	return current, nil
}

func (s *UserService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *UserService) saveImage(r io.Reader) (string, error) {
	return saveUpload(s.images, avatarFolder, r)
}

// saveUpload maps storage failures onto API errors.
func saveUpload(images imageStore, folder string, r io.Reader) (string, error) {
	url, err := images.SaveImage(folder, r)
	switch {
	case err == nil:
		return url, nil
	case errors.Is(err, storage.ErrUnsupportedType):
		return "", appErrors.Clone(appErrors.ErrValidation, "only jpeg, png, gif or webp images are accepted")
	case errors.Is(err, storage.ErrTooLarge):
		return "", appErrors.Clone(appErrors.ErrPayloadTooLarge, "image is too large")
	default:
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}
}
