package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/noah-isme/society-sync-api/internal/models"
	"github.com/noah-isme/society-sync-api/pkg/export"
)

var exportFixedHeaders = []string{"Response ID", "Submitted At", "Submitted By (Name)", "Submitted By (Email)"}

var (
	filenameSpaces  = regexp.MustCompile(`\s+`)
	filenameIllegal = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// buildExportDataset flattens responses into one row each: identity columns first, then one
// column per field in the template's declared order. Unanswered fields are empty cells.
func buildExportDataset(tmpl *models.FormTemplate, responses []models.FormResponseDetail) export.Dataset {
	headers := make([]string, 0, len(exportFixedHeaders)+len(tmpl.Fields))
	headers = append(headers, exportFixedHeaders...)
	for _, f := range tmpl.Fields {
		headers = append(headers, f.Label)
	}

	rows := make([][]interface{}, 0, len(responses))
	for _, resp := range responses {
		row := make([]interface{}, 0, len(headers))
		row = append(row, resp.ID, resp.CreatedAt.UTC(), resp.Submitter.Name, resp.Submitter.Email)
		answers := resp.Responses.ByField()
		for _, f := range tmpl.Fields {
			if value, ok := answers[strings.ToLower(f.ID)]; ok {
				row = append(row, value.Cell())
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// exportFilename names a download after the template title and the export date.
func exportFilename(title, ext string, now time.Time) string {
	base := filenameSpaces.ReplaceAllString(strings.TrimSpace(title), "_")
	base = filenameIllegal.ReplaceAllString(base, "")
	if base == "" {
		base = "form"
	}
	return fmt.Sprintf("%s_responses_%s.%s", base, now.UTC().Format("2006-01-02"), ext)
}
