package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/society-sync-api/internal/dto"
	"github.com/noah-isme/society-sync-api/internal/models"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
	"github.com/noah-isme/society-sync-api/pkg/export"
)

type formResponseRepository interface {
	Create(ctx context.Context, resp *models.FormResponse) error
	ListBySociety(ctx context.Context, societyID string) ([]models.FormResponseDetail, error)
	ListByTemplate(ctx context.Context, templateID string) ([]models.FormResponseDetail, error)
}

type templateLookup interface {
	FindByID(ctx context.Context, id string) (*models.FormTemplate, error)
}

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// FormResponseService accepts submissions and exposes them to the owning society's admin.
type FormResponseService struct {
	repo      formResponseRepository
	templates templateLookup
	societies societyLookup
	validator *ResponseValidator
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewFormResponseService constructs the service.
func NewFormResponseService(repo formResponseRepository, templates templateLookup, societies societyLookup, validator *ResponseValidator, metrics *MetricsService, logger *zap.Logger) *FormResponseService {
	if validator == nil {
		validator = NewResponseValidator(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormResponseService{
		repo:      repo,
		templates: templates,
		societies: societies,
		validator: validator,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit validates the answers against the template and stores them. The stored society is a
// snapshot of the template's society at this moment.
func (s *FormResponseService) Submit(ctx context.Context, actor *models.JWTClaims, templateID string, req dto.SubmitFormResponseRequest) (*models.FormResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit forms")
	}

	tmpl, err := s.loadTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !tmpl.IsActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "form is closed")
	}

	answers, err := s.validator.Validate(tmpl.Fields, req.Responses)
	if err != nil {
		s.metrics.FormRejected()
		return nil, err
	}

	resp := &models.FormResponse{
		TemplateID:  tmpl.ID,
		Responses:   answers,
		SubmittedBy: actor.UserID,
		SocietyID:   tmpl.SocietyID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, resp); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store form response")
	}

	s.metrics.FormSubmitted()
	s.logger.Info("form response submitted",
		zap.String("response_id", resp.ID),
		zap.String("template_id", tmpl.ID),
		zap.String("user_id", actor.UserID),
	)
	return resp, nil
}

// ListForSociety returns every response collected by the society, newest first. Only the
// society's admin may read them.
func (s *FormResponseService) ListForSociety(ctx context.Context, actor *models.JWTClaims, societyID string) ([]models.FormResponseDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if _, err := uuid.Parse(societyID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid society id")
	}
	if err := s.authorizeSociety(ctx, actor, societyID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListBySociety(ctx, societyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list form responses")
	}
	return list, nil
}

// ListForTemplate returns the template's responses, newest first.
func (s *FormResponseService) ListForTemplate(ctx context.Context, actor *models.JWTClaims, templateID string) ([]models.FormResponseDetail, error) {
	_, list, err := s.templateResponses(ctx, actor, templateID)
	return list, err
}

// Export renders the template's responses as csv, xlsx or pdf.
func (s *FormResponseService) Export(ctx context.Context, actor *models.JWTClaims, templateID string, format dto.ExportFormat) (*dto.ExportFile, error) {
	tmpl, list, err := s.templateResponses(ctx, actor, templateID)
	if err != nil {
		return nil, err
	}

	dataset := buildExportDataset(tmpl, list)
	file := &dto.ExportFile{}
	switch format {
	case dto.ExportCSV:
		file.Data, err = export.NewCSVExporter().Render(dataset)
		file.ContentType = contentTypeCSV
	case dto.ExportXLSX:
		file.Data, err = export.NewXLSXExporter().Render(dataset)
		file.ContentType = contentTypeXLSX
	case dto.ExportPDF:
		file.Data, err = export.NewPDFExporter().Render(dataset, tmpl.Title)
		file.ContentType = contentTypePDF
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	file.Filename = exportFilename(tmpl.Title, string(format), s.now())

	s.metrics.FormExported(string(format))
	s.logger.Info("form responses exported",
		zap.String("template_id", tmpl.ID),
		zap.String("format", string(format)),
		zap.Int("rows", len(list)),
	)
	return file, nil
}

func (s *FormResponseService) templateResponses(ctx context.Context, actor *models.JWTClaims, templateID string) (*models.FormTemplate, []models.FormResponseDetail, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	tmpl, err := s.loadTemplate(ctx, templateID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorizeSociety(ctx, actor, tmpl.SocietyID); err != nil {
		return nil, nil, err
	}
	list, err := s.repo.ListByTemplate(ctx, tmpl.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list form responses")
	}
	return tmpl, list, nil
}

func (s *FormResponseService) loadTemplate(ctx context.Context, templateID string) (*models.FormTemplate, error) {
	if _, err := uuid.Parse(templateID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid form template id")
	}
	tmpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "form template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form template")
	}
	return tmpl, nil
}

// authorizeSociety allows only the society's single admin.
func (s *FormResponseService) authorizeSociety(ctx context.Context, actor *models.JWTClaims, societyID string) error {
	society, err := s.societies.FindByID(ctx, societyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "society not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load society")
	}
	if actor.Role != models.RoleAdmin || !society.AdministeredBy(actor.UserID) {
		s.logger.Warn("form response access denied",
			zap.String("user_id", actor.UserID),
			zap.String("society_id", societyID),
		)
		return appErrors.Clone(appErrors.ErrForbidden, "you are not the admin of this society")
	}
	return nil
}
