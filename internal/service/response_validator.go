package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/society-sync-api/internal/dto"
	"github.com/noah-isme/society-sync-api/internal/models"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
)

// ResponseValidator checks raw answers against a template's field definitions and coerces
// them into typed values. It performs no I/O.
type ResponseValidator struct {
	validator *validator.Validate
}

// NewResponseValidator constructs a validator. A nil validate instance gets a default one.
func NewResponseValidator(validate *validator.Validate) *ResponseValidator {
	if validate == nil {
		validate = validator.New()
	}
	return &ResponseValidator{validator: validate}
}

// Validate accepts or rejects a whole submission. On success every answer carries a
// canonical field id and a typed value; optional fields answered with an empty value are
// dropped. On failure the returned error lists every violation.
func (v *ResponseValidator) Validate(fields []models.FieldDefinition, raw []dto.RawFieldResponse) (models.FieldResponses, error) {
	defs := make(map[string]models.FieldDefinition, len(fields))
	for _, f := range fields {
		defs[strings.ToLower(f.ID)] = f
	}

	var violations []string
	answered := make(map[string]bool, len(raw))
	rejected := make(map[string]bool)
	seen := make(map[string]bool, len(raw))
	out := make(models.FieldResponses, 0, len(raw))

	for _, r := range raw {
		id, err := uuid.Parse(strings.TrimSpace(r.FieldID))
		if err != nil {
			violations = append(violations, fmt.Sprintf("unknown field: %s", r.FieldID))
			continue
		}
		def, ok := defs[id.String()]
		if !ok {
			violations = append(violations, fmt.Sprintf("unknown field: %s", r.FieldID))
			continue
		}
		if seen[id.String()] {
			violations = append(violations, fmt.Sprintf("duplicate answer for field: %s", def.Label))
			continue
		}
		seen[id.String()] = true

		value, empty, problem := v.coerce(def, r.Value)
		if problem != "" {
			violations = append(violations, problem)
			rejected[id.String()] = true
			continue
		}
		if empty {
			continue
		}
		answered[id.String()] = true
		out = append(out, models.FieldResponse{FieldID: id.String(), Value: value})
	}

	// a field that already failed a type check is not also reported as missing
	for _, f := range fields {
		id := strings.ToLower(f.ID)
		if f.Required && !answered[id] && !rejected[id] {
			violations = append(violations, fmt.Sprintf("missing required field: %s", f.Label))
		}
	}

	if len(violations) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "invalid form submission", violations)
	}
	return out, nil
}

func (v *ResponseValidator) coerce(def models.FieldDefinition, raw json.RawMessage) (models.FieldValue, bool, string) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return models.FieldValue{}, true, ""
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var decoded interface{}
	if err := dec.Decode(&decoded); err != nil {
		return models.FieldValue{}, false, fmt.Sprintf("%s has an unreadable value", def.Label)
	}

	switch def.FieldType {
	case models.FieldNumber:
		return coerceNumber(def, decoded)
	case models.FieldEmail:
		return v.coerceEmail(def, decoded)
	case models.FieldCheckbox:
		return coerceCheckbox(def, decoded)
	default:
		return coerceText(def, decoded)
	}
}

func coerceText(def models.FieldDefinition, decoded interface{}) (models.FieldValue, bool, string) {
	var s string
	switch val := decoded.(type) {
	case string:
		s = val
	case json.Number:
		s = val.String()
	case bool:
		s = strconv.FormatBool(val)
	default:
		return models.FieldValue{}, false, fmt.Sprintf("%s must be a single value", def.Label)
	}
	if strings.TrimSpace(s) == "" {
		return models.FieldValue{}, true, ""
	}

	if def.Validation != nil && def.Validation.Pattern != "" &&
		(def.FieldType == models.FieldText || def.FieldType == models.FieldTextarea) {
		re, err := regexp.Compile(def.Validation.Pattern)
		if err != nil || !re.MatchString(s) {
			return models.FieldValue{}, false, fmt.Sprintf("%s does not match the required format", def.Label)
		}
	}
	return models.TextValue(s), false, ""
}

func (v *ResponseValidator) coerceEmail(def models.FieldDefinition, decoded interface{}) (models.FieldValue, bool, string) {
	s, ok := decoded.(string)
	if !ok {
		return models.FieldValue{}, false, fmt.Sprintf("%s must be a valid email address", def.Label)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return models.FieldValue{}, true, ""
	}
	if !v.isEmail(s) {
		return models.FieldValue{}, false, fmt.Sprintf("%s must be a valid email address", def.Label)
	}
	return models.TextValue(s), false, ""
}

// isEmail requires local@domain.tld on top of the RFC 5322 check.
func (v *ResponseValidator) isEmail(s string) bool {
	if err := v.validator.Var(s, "required,email"); err != nil {
		return false
	}
	at := strings.LastIndex(s, "@")
	domain := s[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

func coerceNumber(def models.FieldDefinition, decoded interface{}) (models.FieldValue, bool, string) {
	var (
		n   float64
		err error
	)
	switch val := decoded.(type) {
	case json.Number:
		n, err = val.Float64()
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return models.FieldValue{}, true, ""
		}
		n, err = strconv.ParseFloat(trimmed, 64)
	default:
		err = fmt.Errorf("not a number")
	}
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return models.FieldValue{}, false, fmt.Sprintf("%s must be a number", def.Label)
	}

	if def.Validation != nil {
		if def.Validation.Min != nil && n < *def.Validation.Min {
			return models.FieldValue{}, false, fmt.Sprintf("%s must be at least %s", def.Label, formatNumber(*def.Validation.Min))
		}
		if def.Validation.Max != nil && n > *def.Validation.Max {
			return models.FieldValue{}, false, fmt.Sprintf("%s must be at most %s", def.Label, formatNumber(*def.Validation.Max))
		}
	}
	return models.NumberValue(n), false, ""
}

func coerceCheckbox(def models.FieldDefinition, decoded interface{}) (models.FieldValue, bool, string) {
	switch val := decoded.(type) {
	case bool:
		if !val {
			return models.FieldValue{}, true, ""
		}
		return models.CheckedValue(true), false, ""
	case string:
		if strings.TrimSpace(val) == "" {
			return models.FieldValue{}, true, ""
		}
		return models.MultiValue([]string{val}), false, ""
	case []interface{}:
		selected := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return models.FieldValue{}, false, fmt.Sprintf("%s must be a list of options", def.Label)
			}
			selected = append(selected, s)
		}
		if len(selected) == 0 {
			return models.FieldValue{}, true, ""
		}
		return models.MultiValue(selected), false, ""
	default:
		return models.FieldValue{}, false, fmt.Sprintf("%s must be a list of options", def.Label)
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
