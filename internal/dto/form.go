package dto

import (
	"encoding/json"

	"github.com/noah-isme/society-sync-api/internal/models"
)

// FieldInput is one field of a template creation payload. Ids are assigned by the server.
type FieldInput struct {
	FieldType   models.FieldType        `json:"fieldType"`
	Label       string                  `json:"label"`
	Placeholder string                  `json:"placeholder,omitempty"`
	Options     []string                `json:"options,omitempty"`
	Required    bool                    `json:"required"`
	Validation  *models.FieldValidation `json:"validation,omitempty"`
}

// CreateFormTemplateRequest captures POST /formTemplate payload.
type CreateFormTemplateRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Fields      []FieldInput `json:"fields"`
}

// RawFieldResponse is an untyped answer as sent by the client.
type RawFieldResponse struct {
	FieldID string          `json:"fieldId"`
	Value   json.RawMessage `json:"value"`
}

// SubmitFormResponseRequest captures POST /response/submit/:templateId payload.
type SubmitFormResponseRequest struct {
	Responses []RawFieldResponse `json:"responses"`
}

// ExportFormat enumerates download encodings for form responses.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
	ExportPDF  ExportFormat = "pdf"
)

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
