package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/society-sync-api/internal/dto"
	"github.com/noah-isme/society-sync-api/internal/models"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
	"github.com/noah-isme/society-sync-api/pkg/response"
)

type formResponseService interface {
	Submit(ctx context.Context, actor *models.JWTClaims, templateID string, req dto.SubmitFormResponseRequest) (*models.FormResponse, error)
	ListForSociety(ctx context.Context, actor *models.JWTClaims, societyID string) ([]models.FormResponseDetail, error)
	ListForTemplate(ctx context.Context, actor *models.JWTClaims, templateID string) ([]models.FormResponseDetail, error)
	Export(ctx context.Context, actor *models.JWTClaims, templateID string, format dto.ExportFormat) (*dto.ExportFile, error)
}

// FormResponseHandler exposes submission, listing and export endpoints.
type FormResponseHandler struct {
	service formResponseService
}

// NewFormResponseHandler constructs the handler.
func NewFormResponseHandler(svc formResponseService) *FormResponseHandler {
	return &FormResponseHandler{service: svc}
}

// Submit godoc
// @Summary Submit a form response
// @Tags Form Responses
// @Accept json
// @Produce json
// @Param templateId path string true "Template ID"
// @Param payload body dto.SubmitFormResponseRequest true "Answers"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /response/submit/{templateId} [post]
func (h *FormResponseHandler) Submit(c *gin.Context) {
	var req dto.SubmitFormResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid form response payload"))
		return
	}
	resp, err := h.service.Submit(c.Request.Context(), claimsFromContext(c), c.Param("templateId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp, "Form response submitted successfully")
}

// BySociety godoc
// @Summary List a society's form responses
// @Tags Form Responses
// @Produce json
// @Param societyId path string true "Society ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.ErrorEnvelope
// @Router /response/society/{societyId} [get]
func (h *FormResponseHandler) BySociety(c *gin.Context) {
	list, err := h.service.ListForSociety(c.Request.Context(), claimsFromContext(c), c.Param("societyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list, "Responses retrieved successfully")
}

// ByTemplate godoc
// @Summary List a template's form responses
// @Tags Form Responses
// @Produce json
// @Param templateId path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.ErrorEnvelope
// @Router /response/template/{templateId} [get]
func (h *FormResponseHandler) ByTemplate(c *gin.Context) {
	list, err := h.service.ListForTemplate(c.Request.Context(), claimsFromContext(c), c.Param("templateId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list, "Responses retrieved successfully")
}

// ExportCSV godoc
// @Summary Export responses as CSV
// @Tags Form Responses
// @Produce text/csv
// @Param templateId path string true "Template ID"
// @Success 200 {file} file
// @Failure 403 {object} response.ErrorEnvelope
// @Router /response/export-csv/{templateId} [get]
func (h *FormResponseHandler) ExportCSV(c *gin.Context) {
	h.export(c, dto.ExportCSV)
}

// ExportExcel godoc
// @Summary Export responses as an Excel workbook
// @Tags Form Responses
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param templateId path string true "Template ID"
// @Success 200 {file} file
// @Failure 403 {object} response.ErrorEnvelope
// @Router /response/export-excel/{templateId} [get]
func (h *FormResponseHandler) ExportExcel(c *gin.Context) {
	h.export(c, dto.ExportXLSX)
}

// ExportPDF godoc
// @Summary Export responses as PDF
// @Tags Form Responses
// @Produce application/pdf
// @Param templateId path string true "Template ID"
// @Success 200 {file} file
// @Failure 403 {object} response.ErrorEnvelope
// @Router /response/export-pdf/{templateId} [get]
func (h *FormResponseHandler) ExportPDF(c *gin.Context) {
	h.export(c, dto.ExportPDF)
}

func (h *FormResponseHandler) export(c *gin.Context, format dto.ExportFormat) {
	file, err := h.service.Export(c.Request.Context(), claimsFromContext(c), c.Param("templateId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
