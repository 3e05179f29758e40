package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/society-sync-api/internal/dto"
	"github.com/noah-isme/society-sync-api/internal/models"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
	"github.com/noah-isme/society-sync-api/pkg/response"
)

type formTemplateService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateFormTemplateRequest) (*models.FormTemplate, error)
	Get(ctx context.Context, id string) (*models.FormTemplate, error)
	List(ctx context.Context) ([]models.FormTemplate, error)
	ListBySociety(ctx context.Context, societyID string) ([]models.FormTemplate, error)
}

// FormTemplateHandler exposes form template endpoints.
type FormTemplateHandler struct {
	service formTemplateService
}

// NewFormTemplateHandler constructs the handler.
func NewFormTemplateHandler(svc formTemplateService) *FormTemplateHandler {
	return &FormTemplateHandler{service: svc}
}

// Create godoc
// @Summary Create form template
// @Description Creates a template owned by the caller's society. Field ids are assigned by the server.
// @Tags Form Templates
// @Accept json
// @Produce json
// @Param payload body dto.CreateFormTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 403 {object} response.ErrorEnvelope
// @Router /formTemplate [post]
func (h *FormTemplateHandler) Create(c *gin.Context) {
	var req dto.CreateFormTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid form template payload"))
		return
	}
	tmpl, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	auditResource(c, tmpl.ID)
	response.Created(c, tmpl, "Form template created successfully")
}

// Get godoc
// @Summary Get form template
// @Tags Form Templates
// @Produce json
// @Param formId path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /formTemplate/form/{formId} [get]
func (h *FormTemplateHandler) Get(c *gin.Context) {
	tmpl, err := h.service.Get(c.Request.Context(), c.Param("formId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tmpl, "Form template fetched successfully")
}

// List godoc
// @Summary List form templates
// @Tags Form Templates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /formTemplate/forms [get]
func (h *FormTemplateHandler) List(c *gin.Context) {
	templates, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, templates, "Form templates fetched successfully")
}

// ListBySociety godoc
// @Summary List a society's form templates
// @Tags Form Templates
// @Produce json
// @Param societyId path string true "Society ID"
// @Success 200 {object} response.Envelope
// @Router /formTemplate/formForSociety/{societyId} [get]
func (h *FormTemplateHandler) ListBySociety(c *gin.Context) {
	templates, err := h.service.ListBySociety(c.Request.Context(), c.Param("societyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, templates, "Form templates fetched successfully")
}
