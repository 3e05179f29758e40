package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/society-sync-api/internal/dto"
	"github.com/noah-isme/society-sync-api/internal/models"
	"github.com/noah-isme/society-sync-api/pkg/response"
)

type eventService interface {
	Upcoming(ctx context.Context) ([]models.Event, error)
	Past(ctx context.Context) ([]models.Event, error)
	BySocietyName(ctx context.Context, name string) (*models.SocietyEvents, error)
	Cleanup(ctx context.Context, actor *models.JWTClaims) (*dto.EventCleanupResult, error)
}

// EventHandler exposes the public event calendar.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs the handler.
func NewEventHandler(svc eventService) *EventHandler {
	return &EventHandler{service: svc}
}

// Upcoming godoc
// @Summary Upcoming events
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events/upcoming [get]
func (h *EventHandler) Upcoming(c *gin.Context) {
	events, err := h.service.Upcoming(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events, "Upcoming events fetched successfully")
}

// Past godoc
// @Summary Past events
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events/past [get]
func (h *EventHandler) Past(c *gin.Context) {
	events, err := h.service.Past(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events, "Past events fetched successfully")
}

// BySociety godoc
// @Summary Events of one society
// @Tags Events
// @Produce json
// @Param societyName path string true "Society name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /events/society/{societyName} [get]
func (h *EventHandler) BySociety(c *gin.Context) {
	events, err := h.service.BySocietyName(c.Request.Context(), c.Param("societyName"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events, "Society events fetched successfully")
}

// Cleanup godoc
// @Summary Delete old events
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.ErrorEnvelope
// @Router /events/old [delete]
func (h *EventHandler) Cleanup(c *gin.Context) {
	result, err := h.service.Cleanup(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result, "Old events deleted")
}
