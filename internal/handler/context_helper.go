package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/society-sync-api/internal/middleware"
	"github.com/noah-isme/society-sync-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// auditResource hands the id of a record created by this request to the audit middleware.
func auditResource(c *gin.Context, id string) {
	c.Set(middleware.AuditResourceIDKey, id)
}

// formFile opens an optional multipart upload. It returns nil when the request carries no
// such file.
func formFile(c *gin.Context, field string) (io.ReadCloser, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	return header.Open()
}
