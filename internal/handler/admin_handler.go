package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/society-sync-api/internal/models"
	"github.com/noah-isme/society-sync-api/pkg/response"
)

type adminApprovalService interface {
	ListPending(ctx context.Context, actor *models.JWTClaims) ([]models.PendingAdmin, error)
	Approve(ctx context.Context, actor *models.JWTClaims, userID string) (*models.User, error)
	Reject(ctx context.Context, actor *models.JWTClaims, userID string) error
}

// AdminHandler serves the superadmin approval queue.
type AdminHandler struct {
	service adminApprovalService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(svc adminApprovalService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// Pending godoc
// @Summary Pending admin requests
// @Tags Superadmin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.ErrorEnvelope
// @Router /superadmin/pending-admins [get]
func (h *AdminHandler) Pending(c *gin.Context) {
	pending, err := h.service.ListPending(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pending, "Pending admin requests fetched")
}

// Approve godoc
// @Summary Approve an admin request
// @Tags Superadmin
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Failure 409 {object} response.ErrorEnvelope
// @Router /superadmin/approve/{userId} [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	user, err := h.service.Approve(c.Request.Context(), claimsFromContext(c), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, models.NewUserInfo(user), "Admin request approved successfully")
}

// Reject godoc
// @Summary Reject an admin request
// @Tags Superadmin
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /superadmin/reject/{userId} [delete]
func (h *AdminHandler) Reject(c *gin.Context) {
	if err := h.service.Reject(c.Request.Context(), claimsFromContext(c), c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{}, "Admin registration request rejected")
}
