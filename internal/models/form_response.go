package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the variant held by a FieldValue.
type ValueKind string

const (
	KindText    ValueKind = "text"
	KindNumber  ValueKind = "number"
	KindChecked ValueKind = "checked"
	KindMulti   ValueKind = "multi"
)

// FieldValue is a typed answer. Exactly one of the payloads is meaningful, selected by Kind.
type FieldValue struct {
	kind    ValueKind
	text    string
	number  float64
	checked bool
	multi   []string
}

// TextValue wraps a string answer.
func TextValue(s string) FieldValue { return FieldValue{kind: KindText, text: s} }

// NumberValue wraps a numeric answer.
func NumberValue(n float64) FieldValue { return FieldValue{kind: KindNumber, number: n} }

// CheckedValue wraps a single checkbox state.
func CheckedValue(b bool) FieldValue { return FieldValue{kind: KindChecked, checked: b} }

// MultiValue wraps the selected options of a checkbox group.
func MultiValue(v []string) FieldValue {
	return FieldValue{kind: KindMulti, multi: append([]string{}, v...)}
}

func (v FieldValue) Kind() ValueKind { return v.kind }
func (v FieldValue) Text() string    { return v.text }
func (v FieldValue) Number() float64 { return v.number }
func (v FieldValue) Checked() bool   { return v.checked }
func (v FieldValue) Multi() []string { return append([]string(nil), v.multi...) }

// Cell renders the value for tabular export. Numbers and booleans keep their type.
func (v FieldValue) Cell() interface{} {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.number
	case KindChecked:
		return v.checked
	case KindMulti:
		return strings.Join(v.multi, "; ")
	default:
		return ""
	}
}

// String renders the value as display text.
func (v FieldValue) String() string {
	switch c := v.Cell().(type) {
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	case string:
		return c
	}
	return ""
}

func (v FieldValue) raw() interface{} {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.number
	case KindChecked:
		return v.checked
	case KindMulti:
		if v.multi == nil {
			return []string{}
		}
		return v.multi
	}
	return nil
}

// FieldResponse is one typed answer tied to a field definition.
type FieldResponse struct {
	FieldID string
	Value   FieldValue
}

type fieldResponseJSON struct {
	FieldID string          `json:"fieldId"`
	Kind    ValueKind       `json:"kind"`
	Value   json.RawMessage `json:"value"`
}

// MarshalJSON writes {"fieldId", "kind", "value"}.
func (r FieldResponse) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(r.Value.raw())
	if err != nil {
		return nil, err
	}
	return json.Marshal(fieldResponseJSON{FieldID: r.FieldID, Kind: r.Value.kind, Value: raw})
}

// UnmarshalJSON restores a stored answer, checking the payload against its kind.
func (r *FieldResponse) UnmarshalJSON(data []byte) error {
	var in fieldResponseJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.FieldID = in.FieldID
	switch in.Kind {
	case KindText:
		var s string
		if err := json.Unmarshal(in.Value, &s); err != nil {
			return fmt.Errorf("field %s: text value: %w", in.FieldID, err)
		}
		r.Value = TextValue(s)
	case KindNumber:
		var n float64
		if err := json.Unmarshal(in.Value, &n); err != nil {
			return fmt.Errorf("field %s: number value: %w", in.FieldID, err)
		}
		r.Value = NumberValue(n)
	case KindChecked:
		var b bool
		if err := json.Unmarshal(in.Value, &b); err != nil {
			return fmt.Errorf("field %s: checked value: %w", in.FieldID, err)
		}
		r.Value = CheckedValue(b)
	case KindMulti:
		var m []string
		if err := json.Unmarshal(in.Value, &m); err != nil {
			return fmt.Errorf("field %s: multi value: %w", in.FieldID, err)
		}
		r.Value = MultiValue(m)
	default:
		return fmt.Errorf("field %s: unknown value kind %q", in.FieldID, in.Kind)
	}
	return nil
}

// FieldResponses is the ordered answer list stored as JSONB.
type FieldResponses []FieldResponse

// Value implements driver.Valuer.
func (f FieldResponses) Value() (driver.Value, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *FieldResponses) Scan(src interface{}) error {
	return scanJSON(src, f)
}

// ByField indexes answers by field id.
func (f FieldResponses) ByField() map[string]FieldValue {
	out := make(map[string]FieldValue, len(f))
	for _, r := range f {
		out[r.FieldID] = r.Value
	}
	return out
}

// FormResponse is one submission against a form template. SocietyID is a snapshot of the
// template's society taken at submission time.
type FormResponse struct {
	ID          string         `db:"id" json:"id"`
	TemplateID  string         `db:"template_id" json:"template"`
	Responses   FieldResponses `db:"responses" json:"responses"`
	SubmittedBy string         `db:"submitted_by" json:"submittedBy"`
	SocietyID   string         `db:"society_id" json:"society"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// Submitter is the public profile of the submitting user.
type Submitter struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TemplateInfo summarises the parent template of a response.
type TemplateInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FormResponseDetail is a response as listed to society admins.
type FormResponseDetail struct {
	FormResponse
	Submitter    Submitter    `json:"submitter"`
	TemplateInfo TemplateInfo `json:"templateInfo"`
}
