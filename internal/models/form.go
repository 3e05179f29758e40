package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FieldType enumerates the supported input kinds of a form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldFile     FieldType = "file"
)

// Valid reports whether t is one of the recognised field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldEmail, FieldTextarea, FieldSelect, FieldCheckbox, FieldRadio, FieldFile:
		return true
	}
	return false
}

// HasOptions is true for select, checkbox and radio.
func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldCheckbox || t == FieldRadio
}

// FieldValidation holds optional numeric bounds and a regular expression.
type FieldValidation struct {
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
}

// FieldDefinition describes one input slot of a form template.
type FieldDefinition struct {
	ID          string           `json:"id"`
	FieldType   FieldType        `json:"fieldType"`
	Label       string           `json:"label"`
	Placeholder string           `json:"placeholder,omitempty"`
	Options     []string         `json:"options,omitempty"`
	Required    bool             `json:"required"`
	Validation  *FieldValidation `json:"validation,omitempty"`
}

// FieldDefinitions is the ordered field list stored as JSONB.
type FieldDefinitions []FieldDefinition

// Value implements driver.Valuer.
func (f FieldDefinitions) Value() (driver.Value, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *FieldDefinitions) Scan(src interface{}) error {
	return scanJSON(src, f)
}

// FormTemplate is an ordered set of field definitions owned by a society.
type FormTemplate struct {
	ID          string           `db:"id" json:"id"`
	Title       string           `db:"title" json:"title"`
	Description string           `db:"description" json:"description"`
	Fields      FieldDefinitions `db:"fields" json:"fields"`
	SocietyID   string           `db:"society_id" json:"society"`
	CreatedBy   string           `db:"created_by" json:"createdBy"`
	IsActive    bool             `db:"is_active" json:"isActive"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updatedAt"`
}

// Field returns the definition with the given id.
func (t *FormTemplate) Field(id string) (FieldDefinition, bool) {
	for _, f := range t.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported jsonb source %T", src)
	}
}
