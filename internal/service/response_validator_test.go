package service

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/society-sync-api/internal/dto"
	"github.com/noah-isme/society-sync-api/internal/models"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
)

const (
	emailFieldID  = "0b0f9f9e-6c1a-4a7e-9a55-3e1c7a1f0001"
	ageFieldID    = "0b0f9f9e-6c1a-4a7e-9a55-3e1c7a1f0002"
	skillsFieldID = "0b0f9f9e-6c1a-4a7e-9a55-3e1c7a1f0003"
	bioFieldID    = "0b0f9f9e-6c1a-4a7e-9a55-3e1c7a1f0004"
)

func floatPtr(v float64) *float64 { return &v }

func recruitmentFields() []models.FieldDefinition {
	return []models.FieldDefinition{
		{ID: emailFieldID, FieldType: models.FieldEmail, Label: "Email", Required: true},
		{ID: ageFieldID, FieldType: models.FieldNumber, Label: "Age", Validation: &models.FieldValidation{Min: floatPtr(18), Max: floatPtr(100)}},
		{ID: skillsFieldID, FieldType: models.FieldCheckbox, Label: "Skills", Options: []string{"Go", "Design"}},
		{ID: bioFieldID, FieldType: models.FieldText, Label: "Handle", Validation: &models.FieldValidation{Pattern: `^@[a-z0-9_]+$`}},
	}
}

func answer(id string, value interface{}) dto.RawFieldResponse {
	raw, _ := json.Marshal(value)
	return dto.RawFieldResponse{FieldID: id, Value: raw}
}

func violationsOf(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	return appErr.Details
}

func TestResponseValidatorAcceptsValidSubmission(t *testing.T) {
	v := NewResponseValidator(nil)

	out, err := v.Validate(recruitmentFields(), []dto.RawFieldResponse{
		answer(emailFieldID, "x@y.com"),
		answer(ageFieldID, 25),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, emailFieldID, out[0].FieldID)
	assert.Equal(t, models.KindText, out[0].Value.Kind())
	assert.Equal(t, "x@y.com", out[0].Value.Text())
	assert.Equal(t, models.KindNumber, out[1].Value.Kind())
	assert.Equal(t, 25.0, out[1].Value.Number())
}

func TestResponseValidatorRejectsMalformedEmail(t *testing.T) {
	v := NewResponseValidator(nil)

	for _, bad := range []string{"not-an-email", "x@y", "@y.com"} {
		_, err := v.Validate(recruitmentFields(), []dto.RawFieldResponse{answer(emailFieldID, bad)})
		details := violationsOf(t, err)
		assert.Equal(t, []string{"Email must be a valid email address"}, details, bad)
	}
}

func TestResponseValidatorMissingRequiredField(t *testing.T) {
	v := NewResponseValidator(nil)

	_, err := v.Validate(recruitmentFields(), []dto.RawFieldResponse{answer(ageFieldID, 30)})
	assert.Equal(t, []string{"missing required field: Email"}, violationsOf(t, err))

	for _, empty := range []interface{}{"", "   ", nil} {
		_, err = v.Validate(recruitmentFields(), []dto.RawFieldResponse{answer(emailFieldID, empty)})
		assert.Equal(t, []string{"missing required field: Email"}, violationsOf(t, err))
	}
}

func TestResponseValidatorNumberBoundsInclusive(t *testing.T) {
	v := NewResponseValidator(nil)
	email := answer(emailFieldID, "a@b.org")

	for _, ok := range []interface{}{18, 100, "42", 18.5} {
		_, err := v.Validate(recruitmentFields(), []dto.RawFieldResponse{email, answer(ageFieldID, ok)})
		assert.NoError(t, err, ok)
	}

	_, err := v.Validate(recruitmentFields(), []dto.RawFieldResponse{email, answer(ageFieldID, 17)})
	assert.Equal(t, []string{"Age must be at least 18"}, violationsOf(t, err))

	_, err = v.Validate(recruitmentFields(), []dto.RawFieldResponse{email, answer(ageFieldID, 101)})
	assert.Equal(t, []string{"Age must be at most 100"}, violationsOf(t, err))

	_, err = v.Validate(recruitmentFields(), []dto.RawFieldResponse{email, answer(ageFieldID, "twenty")})
	assert.Equal(t, []string{"Age must be a number"}, violationsOf(t, err))
}

func TestResponseValidatorUnknownAndDuplicateFields(t *testing.T) {
	v := NewResponseValidator(nil)

	_, err := v.Validate(recruitmentFields(), []dto.RawFieldResponse{
		answer(emailFieldID, "a@b.org"),
		answer("not-a-uuid", "x"),
		answer("9c7d0e52-1111-4e8a-8f1e-000000000000", "x"),
		answer(emailFieldID, "c@d.org"),
	})
	assert.Equal(t, []string{
		"unknown field: not-a-uuid",
		"unknown field: 9c7d0e52-1111-4e8a-8f1e-000000000000",
		"duplicate answer for field: Email",
	}, violationsOf(t, err))
}

func TestResponseValidatorCollectsEveryViolation(t *testing.T) {
	v := NewResponseValidator(nil)

	_, err := v.Validate(recruitmentFields(), []dto.RawFieldResponse{
		answer(ageFieldID, 5),
		answer(bioFieldID, "no handle"),
	})
	assert.ElementsMatch(t, []string{
		"Age must be at least 18",
		"Handle does not match the required format",
		"missing required field: Email",
	}, violationsOf(t, err))
}

func TestResponseValidatorNormalisesIDsAndCheckboxes(t *testing.T) {
	v := NewResponseValidator(nil)

	out, err := v.Validate(recruitmentFields(), []dto.RawFieldResponse{
		answer("0B0F9F9E-6C1A-4A7E-9A55-3E1C7A1F0001", "a@b.org"),
		answer(skillsFieldID, []string{"Go", "Design"}),
		answer(bioFieldID, "@gopher"),
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, emailFieldID, out[0].FieldID)
	assert.Equal(t, models.KindMulti, out[1].Value.Kind())
	assert.Equal(t, []string{"Go", "Design"}, out[1].Value.Multi())

	out, err = v.Validate(recruitmentFields(), []dto.RawFieldResponse{
		answer(emailFieldID, "a@b.org"),
		answer(skillsFieldID, "Go"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, out[1].Value.Multi())
}

func TestResponseValidatorDropsEmptyOptionalAnswers(t *testing.T) {
	v := NewResponseValidator(nil)

	out, err := v.Validate(recruitmentFields(), []dto.RawFieldResponse{
		answer(emailFieldID, "a@b.org"),
		answer(ageFieldID, ""),
		answer(skillsFieldID, []string{}),
		answer(bioFieldID, nil),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, emailFieldID, out[0].FieldID)
}

func TestResponseValidatorRequiredCheckboxFalseIsEmpty(t *testing.T) {
	v := NewResponseValidator(nil)
	fields := []models.FieldDefinition{
		{ID: skillsFieldID, FieldType: models.FieldCheckbox, Label: "Agree", Options: []string{"Yes"}, Required: true},
	}

	_, err := v.Validate(fields, []dto.RawFieldResponse{answer(skillsFieldID, false)})
	assert.Equal(t, []string{"missing required field: Agree"}, violationsOf(t, err))

	out, err := v.Validate(fields, []dto.RawFieldResponse{answer(skillsFieldID, true)})
	require.NoError(t, err)
	assert.Equal(t, models.KindChecked, out[0].Value.Kind())
	assert.True(t, out[0].Value.Checked())
}

func TestResponseValidatorRejectsArraysForSingleValueFields(t *testing.T) {
	v := NewResponseValidator(nil)
	fields := []models.FieldDefinition{
		{ID: bioFieldID, FieldType: models.FieldRadio, Label: "Year", Options: []string{"1", "2"}},
	}

	_, err := v.Validate(fields, []dto.RawFieldResponse{answer(bioFieldID, []string{"1", "2"})})
	assert.Equal(t, []string{"Year must be a single value"}, violationsOf(t, err))

	out, err := v.Validate(fields, []dto.RawFieldResponse{answer(bioFieldID, 2)})
	require.NoError(t, err)
	assert.Equal(t, "2", out[0].Value.Text())
}
