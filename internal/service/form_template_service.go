package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/society-sync-api/internal/dto"
	"github.com/noah-isme/society-sync-api/internal/models"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
)

type formTemplateRepository interface {
	Create(ctx context.Context, tmpl *models.FormTemplate) error
	FindByID(ctx context.Context, id string) (*models.FormTemplate, error)
	List(ctx context.Context) ([]models.FormTemplate, error)
	ListBySociety(ctx context.Context, societyID string) ([]models.FormTemplate, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type societyLookup interface {
	FindByID(ctx context.Context, id string) (*models.Society, error)
}

// FormTemplateService creates and reads form templates.
type FormTemplateService struct {
	repo      formTemplateRepository
	users     userLookup
	societies societyLookup
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewFormTemplateService constructs the service.
func NewFormTemplateService(repo formTemplateRepository, users userLookup, societies societyLookup, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *FormTemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormTemplateService{repo: repo, users: users, societies: societies, cache: cache, metrics: metrics, logger: logger}
}

// Create validates the field list, resolves the caller's society and stores a new template.
// Owner and society always come from the caller, never from the payload.
func (s *FormTemplateService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateFormTemplateRequest) (*models.FormTemplate, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	fields, err := buildFields(req)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load caller")
	}
	if user.Role != models.RoleAdmin || user.AdminOf == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only society admins can create form templates")
	}

	society, err := s.societies.FindByID(ctx, *user.AdminOf)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "society not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load society")
	}

	tmpl := &models.FormTemplate{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Fields:      fields,
		SocietyID:   society.ID,
		CreatedBy:   user.ID,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, tmpl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create form template")
	}

	s.cache.Invalidate(ctx, cacheKeyTemplatesAll)
	s.cache.Invalidate(ctx, cacheKeyTemplatesSociety+society.ID)
	s.metrics.FormTemplateCreated()
	s.logger.Info("form template created",
		zap.String("template_id", tmpl.ID),
		zap.String("society_id", society.ID),
		zap.Int("fields", len(fields)),
	)
	return tmpl, nil
}

// buildFields checks the payload stage by stage and assigns field ids. Each stage reports
// every offending field before the next stage runs.
func buildFields(req dto.CreateFormTemplateRequest) (models.FieldDefinitions, error) {
	if strings.TrimSpace(req.Title) == "" || req.Fields == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title and fields are required")
	}
	if len(req.Fields) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fields must contain at least one field")
	}

	stages := []struct {
		message string
		check   func(i int, f dto.FieldInput) string
	}{
		{"unrecognized field type", func(i int, f dto.FieldInput) string {
			if !f.FieldType.Valid() {
				return fmt.Sprintf("field %d: unrecognized field type %q", i+1, f.FieldType)
			}
			return ""
		}},
		{"every field needs a label", func(i int, f dto.FieldInput) string {
			if strings.TrimSpace(f.Label) == "" {
				return fmt.Sprintf("field %d: label is required", i+1)
			}
			return ""
		}},
		{"options are required", func(i int, f dto.FieldInput) string {
			if f.FieldType.HasOptions() && len(cleanOptions(f.Options)) == 0 {
				return fmt.Sprintf("%s: %s fields need at least one option", strings.TrimSpace(f.Label), f.FieldType)
			}
			return ""
		}},
		{"invalid field validation", func(i int, f dto.FieldInput) string {
			return checkValidationRules(strings.TrimSpace(f.Label), f.Validation)
		}},
	}

	for _, stage := range stages {
		var details []string
		for i, f := range req.Fields {
			if problem := stage.check(i, f); problem != "" {
				details = append(details, problem)
			}
		}
		if len(details) > 0 {
			return nil, appErrors.WithDetails(appErrors.ErrValidation, stage.message, details)
		}
	}

	fields := make(models.FieldDefinitions, 0, len(req.Fields))
	for _, f := range req.Fields {
		def := models.FieldDefinition{
			ID:          uuid.NewString(),
			FieldType:   f.FieldType,
			Label:       strings.TrimSpace(f.Label),
			Placeholder: strings.TrimSpace(f.Placeholder),
			Required:    f.Required,
			Validation:  f.Validation,
		}
		if f.FieldType.HasOptions() {
			def.Options = cleanOptions(f.Options)
		}
		fields = append(fields, def)
	}
	return fields, nil
}

func cleanOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, o := range options {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func checkValidationRules(label string, v *models.FieldValidation) string {
	if v == nil {
		return ""
	}
	if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
		return fmt.Sprintf("%s: validation min must not exceed max", label)
	}
	if v.Pattern != "" {
		if _, err := regexp.Compile(v.Pattern); err != nil {
			return fmt.Sprintf("%s: validation pattern is not a valid regular expression", label)
		}
	}
	return ""
}

// Get returns one template.
func (s *FormTemplateService) Get(ctx context.Context, id string) (*models.FormTemplate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid form template id")
	}
	tmpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "form template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form template")
	}
	return tmpl, nil
}

// List returns every template, newest first.
func (s *FormTemplateService) List(ctx context.Context) ([]models.FormTemplate, error) {
	var templates []models.FormTemplate
	if s.cache.Get(ctx, cacheKeyTemplatesAll, &templates) {
		return templates, nil
	}
	templates, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list form templates")
	}
	s.cache.Set(ctx, cacheKeyTemplatesAll, templates)
	return templates, nil
}

// ListBySociety returns the society's templates, newest first. An unknown society yields an empty list.
func (s *FormTemplateService) ListBySociety(ctx context.Context, societyID string) ([]models.FormTemplate, error) {
	if _, err := uuid.Parse(societyID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid society id")
	}
	key := cacheKeyTemplatesSociety + societyID
	var templates []models.FormTemplate
	if s.cache.Get(ctx, key, &templates) {
		return templates, nil
	}
	templates, err := s.repo.ListBySociety(ctx, societyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list society form templates")
	}
	s.cache.Set(ctx, key, templates)
	return templates, nil
}
