package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/society-sync-api/internal/models"
)

func TestFormTemplateCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFormTemplateRepository(db)

	mock.ExpectExec("INSERT INTO form_templates").WillReturnResult(sqlmock.NewResult(1, 1))

	tmpl := &models.FormTemplate{
		Title:     "Recruitment",
		Fields:    models.FieldDefinitions{{ID: "f1", FieldType: models.FieldText, Label: "Name"}},
		SocietyID: "s1",
		CreatedBy: "u1",
		IsActive:  true,
	}
	require.NoError(t, repo.Create(context.Background(), tmpl))
	assert.NotEmpty(t, tmpl.ID)
	assert.False(t, tmpl.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormTemplateFindByIDDecodesFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFormTemplateRepository(db)

	now := time.Now()
	fields := []byte(`[{"id":"f1","fieldType":"number","label":"Age","required":false,"validation":{"min":18,"max":100}}]`)
	rows := sqlmock.NewRows([]string{"id", "title", "description", "fields", "society_id", "created_by", "is_active", "created_at", "updated_at"}).
		AddRow("t1", "Recruitment", "", fields, "s1", "u1", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + formTemplateColumns + " FROM form_templates WHERE id = $1")).
		WithArgs("t1").
		WillReturnRows(rows)

	tmpl, err := repo.FindByID(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, tmpl.Fields, 1)
	require.NotNil(t, tmpl.Fields[0].Validation)
	assert.Equal(t, 18.0, *tmpl.Fields[0].Validation.Min)
	assert.Equal(t, models.FieldNumber, tmpl.Fields[0].FieldType)
}

func TestFormResponseListByTemplateAttachesSubmitter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFormResponseRepository(db)

	now := time.Now()
	answers := []byte(`[{"fieldId":"f1","kind":"number","value":25}]`)
	rows := sqlmock.NewRows([]string{"id", "template_id", "responses", "submitted_by", "society_id", "created_at", "submitter_name", "submitter_email", "template_title", "template_description"}).
		AddRow("r1", "t1", answers, "u9", "s1", now, "Grace", "grace@uni.edu", "Recruitment", "Spring intake")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.template_id = $1 ORDER BY r.created_at DESC")).
		WithArgs("t1").
		WillReturnRows(rows)

	list, err := repo.ListByTemplate(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Grace", list[0].Submitter.Name)
	assert.Equal(t, "u9", list[0].Submitter.ID)
	assert.Equal(t, "Recruitment", list[0].TemplateInfo.Title)
	assert.Equal(t, 25.0, list[0].Responses[0].Value.Number())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormResponseCreateKeepsSocietySnapshot(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFormResponseRepository(db)

	mock.ExpectExec("INSERT INTO form_responses").
		WithArgs(sqlmock.AnyArg(), "t1", sqlmock.AnyArg(), "u9", "s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	resp := &models.FormResponse{TemplateID: "t1", SubmittedBy: "u9", SocietyID: "s1", Responses: models.FieldResponses{{FieldID: "f1", Value: models.TextValue("x")}}}
	require.NoError(t, repo.Create(context.Background(), resp))
	assert.NoError(t, mock.ExpectationsWereMet())
}
