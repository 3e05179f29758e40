package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/society-sync-api/internal/models"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
	"github.com/noah-isme/society-sync-api/pkg/response"
)

type userService interface {
	Register(ctx context.Context, req models.RegisterRequest, avatar io.Reader) (*models.User, error)
	Me(ctx context.Context, actor *models.JWTClaims) (*models.User, error)
	UpdateAccount(ctx context.Context, actor *models.JWTClaims, req models.UpdateAccountRequest) (*models.User, error)
	UpdateAvatar(ctx context.Context, actor *models.JWTClaims, avatar io.Reader) (*models.User, error)
}

// UserHandler manages account endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler constructs the handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// Register godoc
// @Summary Register an account
// @Description Students are active immediately. Admins name the society they want to run and wait for approval.
// @Tags Users
// @Accept json,mpfd
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Param avatar formData file false "Avatar image"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 409 {object} response.ErrorEnvelope
// @Router /users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	avatar, err := formFile(c, "avatar")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable avatar upload"))
		return
	}
	var reader io.Reader
	if avatar != nil {
		defer avatar.Close()
		reader = avatar
	}

	user, err := h.service.Register(c.Request.Context(), req, reader)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, models.NewUserInfo(user), "User registered successfully")
}

// Me godoc
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.ErrorEnvelope
// @Router /users/me/current [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, models.NewUserInfo(user), "Current user fetched successfully")
}

// UpdateAccount godoc
// @Summary Update account details
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.UpdateAccountRequest true "Account details"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 409 {object} response.ErrorEnvelope
// @Router /users/me [put]
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	var req models.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid account payload"))
		return
	}
	user, err := h.service.UpdateAccount(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, models.NewUserInfo(user), "Account details updated successfully")
}

// UpdateAvatar godoc
// @Summary Replace avatar
// @Tags Users
// @Accept mpfd
// @Produce json
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 413 {object} response.ErrorEnvelope
// @Router /users/me/avatar [put]
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	avatar, err := formFile(c, "avatar")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable avatar upload"))
		return
	}
	if avatar == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "avatar image is required"))
		return
	}
	defer avatar.Close()

	user, err := h.service.UpdateAvatar(c.Request.Context(), claimsFromContext(c), avatar)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, models.NewUserInfo(user), "Avatar updated successfully")
}
