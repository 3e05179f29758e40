package response

import (
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestCreatedEnvelope(t *testing.T) {
	c, w := newContext()
	Created(c, gin.H{"id": "1"}, "Form template created successfully")

	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(201), body["statusCode"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Form template created successfully", body["message"])
	assert.Equal(t, "1", body["data"].(map[string]interface{})["id"])
}

func TestErrorEnvelopeCarriesDetails(t *testing.T) {
	c, w := newContext()
	Error(c, appErrors.WithDetails(appErrors.ErrValidation, "invalid submission", []string{"missing required field: Email"}))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "invalid submission", body.Message)
	assert.Equal(t, []string{"missing required field: Email"}, body.Errors)
}

func TestErrorEnvelopeHidesInternalCause(t *testing.T) {
	c, w := newContext()
	Error(c, appErrors.Wrap(stdErrors.New("pq: connection refused"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.NotContains(t, w.Body.String(), "failed to load template")
	assert.Len(t, c.Errors, 1)
}
