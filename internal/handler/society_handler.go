package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/society-sync-api/internal/dto"
	"github.com/noah-isme/society-sync-api/internal/models"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
	"github.com/noah-isme/society-sync-api/pkg/response"
)

type societyService interface {
	List(ctx context.Context, query dto.SocietyListQuery) (*models.SocietyPage, error)
	Current(ctx context.Context, actor *models.JWTClaims) (*models.Society, error)
}

type societyEventService interface {
	Add(ctx context.Context, actor *models.JWTClaims, req models.CreateEventRequest, banner io.Reader) (*models.Event, error)
	ForCurrentSociety(ctx context.Context, actor *models.JWTClaims) (*models.SocietyEvents, error)
}

// SocietyHandler serves the society directory and the admin's own society.
type SocietyHandler struct {
	societies societyService
	events    societyEventService
}

// NewSocietyHandler constructs the handler.
func NewSocietyHandler(societies societyService, events societyEventService) *SocietyHandler {
	return &SocietyHandler{societies: societies, events: events}
}

// List godoc
// @Summary List societies
// @Tags Societies
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 6, max 50)"
// @Param search query string false "Name or description contains"
// @Success 200 {object} response.Envelope
// @Router /societies [get]
func (h *SocietyHandler) List(c *gin.Context) {
	var query dto.SocietyListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	page, err := h.societies.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page, "Societies fetched successfully")
}

// Current godoc
// @Summary Society run by the caller
// @Tags Societies
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.ErrorEnvelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /societies/currentSociety [get]
func (h *SocietyHandler) Current(c *gin.Context) {
	society, err := h.societies.Current(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, society, "Society fetched successfully")
}

// CurrentEvents godoc
// @Summary Events of the caller's society
// @Tags Societies
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.ErrorEnvelope
// @Router /societies/currentSociety/getEvents [get]
func (h *SocietyHandler) CurrentEvents(c *gin.Context) {
	events, err := h.events.ForCurrentSociety(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events, "Events fetched successfully")
}

// AddEvent godoc
// @Summary Publish an event
// @Tags Societies
// @Accept mpfd
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param date formData string true "RFC 3339 timestamp or YYYY-MM-DD"
// @Param venue formData string true "Venue"
// @Param banner formData file true "Banner image"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 422 {object} response.ErrorEnvelope
// @Router /societies/addEvent [post]
func (h *SocietyHandler) AddEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	banner, err := formFile(c, "banner")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable banner upload"))
		return
	}
	var reader io.Reader
	if banner != nil {
		defer banner.Close()
		reader = banner
	}

	event, err := h.events.Add(c.Request.Context(), claimsFromContext(c), req, reader)
	if err != nil {
		response.Error(c, err)
		return
	}
	auditResource(c, event.ID)
	response.Created(c, event, "Event created successfully")
}
