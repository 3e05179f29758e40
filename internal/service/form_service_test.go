package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/society-sync-api/internal/dto"
	"github.com/noah-isme/society-sync-api/internal/models"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
	"github.com/noah-isme/society-sync-api/pkg/export"
)

const (
	societyS    = "5a0c3a44-0000-4000-8000-00000000000a"
	societyB    = "5a0c3a44-0000-4000-8000-00000000000b"
	adminAID    = "a0000000-0000-4000-8000-000000000001"
	adminBID    = "b0000000-0000-4000-8000-000000000002"
	studentID   = "c0000000-0000-4000-8000-000000000003"
	student2ID  = "c0000000-0000-4000-8000-000000000004"
	unknownUUID = "d0000000-0000-4000-8000-000000000005"
)

type fakeUsers struct{ byID map[string]*models.User }

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type fakeSocieties struct{ byID map[string]*models.Society }

func (f *fakeSocieties) FindByID(ctx context.Context, id string) (*models.Society, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type fakeTemplates struct {
	byID    map[string]*models.FormTemplate
	created []*models.FormTemplate
	listErr error
}

func (f *fakeTemplates) Create(ctx context.Context, tmpl *models.FormTemplate) error {
	tmpl.ID = "e0000000-0000-4000-8000-00000000000" + string(rune('1'+len(f.created)))
	tmpl.CreatedAt = time.Now().UTC()
	f.created = append(f.created, tmpl)
	f.byID[tmpl.ID] = tmpl
	return nil
}

func (f *fakeTemplates) FindByID(ctx context.Context, id string) (*models.FormTemplate, error) {
	if t, ok := f.byID[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTemplates) List(ctx context.Context) ([]models.FormTemplate, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.FormTemplate, 0, len(f.byID))
	for _, t := range f.byID {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTemplates) ListBySociety(ctx context.Context, societyID string) ([]models.FormTemplate, error) {
	out := make([]models.FormTemplate, 0)
	for _, t := range f.byID {
		if t.SocietyID == societyID {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeResponses struct {
	stored []models.FormResponse
	users  *fakeUsers
	tmpls  *fakeTemplates
}

func (f *fakeResponses) Create(ctx context.Context, resp *models.FormResponse) error {
	resp.ID = "f0000000-0000-4000-8000-00000000000" + string(rune('1'+len(f.stored)))
	f.stored = append(f.stored, *resp)
	return nil
}

func (f *fakeResponses) list(match func(models.FormResponse) bool) []models.FormResponseDetail {
	out := make([]models.FormResponseDetail, 0)
	for _, r := range f.stored {
		if !match(r) {
			continue
		}
		u := f.users.byID[r.SubmittedBy]
		t := f.tmpls.byID[r.TemplateID]
		out = append(out, models.FormResponseDetail{
			FormResponse: r,
			Submitter:    models.Submitter{ID: u.ID, Name: u.Name, Email: u.Email},
			TemplateInfo: models.TemplateInfo{ID: t.ID, Title: t.Title, Description: t.Description},
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeResponses) ListBySociety(ctx context.Context, societyID string) ([]models.FormResponseDetail, error) {
	return f.list(func(r models.FormResponse) bool { return r.SocietyID == societyID }), nil
}

func (f *fakeResponses) ListByTemplate(ctx context.Context, templateID string) ([]models.FormResponseDetail, error) {
	return f.list(func(r models.FormResponse) bool { return r.TemplateID == templateID }), nil
}

type formFixture struct {
	users     *fakeUsers
	societies *fakeSocieties
	templates *fakeTemplates
	responses *fakeResponses
	tmplSvc   *FormTemplateService
	respSvc   *FormResponseService
	clock     time.Time
}

func strPtr(value string) *string { return &value }

func newFormFixture() *formFixture {
	users := &fakeUsers{byID: map[string]*models.User{
		adminAID:   {ID: adminAID, Name: "Alice", Email: "alice@uni.edu", Role: models.RoleAdmin, Verified: true, AdminOf: strPtr(societyS)},
		adminBID:   {ID: adminBID, Name: "Bob", Email: "bob@uni.edu", Role: models.RoleAdmin, Verified: true, AdminOf: strPtr(societyB)},
		studentID:  {ID: studentID, Name: "Sam", Email: "sam@uni.edu", Role: models.RoleStudent, Verified: true},
		student2ID: {ID: student2ID, Name: "Kim, \"KJ\"", Email: "kim@uni.edu", Role: models.RoleStudent, Verified: true},
	}}
	societies := &fakeSocieties{byID: map[string]*models.Society{
		societyS: {ID: societyS, Name: "Chess Club", AdminID: strPtr(adminAID)},
		societyB: {ID: societyB, Name: "Drama Society", AdminID: strPtr(adminBID)},
	}}
	templates := &fakeTemplates{byID: map[string]*models.FormTemplate{}}
	responses := &fakeResponses{users: users, tmpls: templates}

	fx := &formFixture{
		users:     users,
		societies: societies,
		templates: templates,
		responses: responses,
		clock:     time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	fx.tmplSvc = NewFormTemplateService(templates, users, societies, nil, NewMetricsService(), zap.NewNop())
	fx.respSvc = NewFormResponseService(responses, templates, societies, nil, NewMetricsService(), zap.NewNop())
	fx.respSvc.now = func() time.Time {
		fx.clock = fx.clock.Add(time.Minute)
		return fx.clock
	}
	return fx
}

func claimsFor(u *models.User) *models.JWTClaims {
	c := &models.JWTClaims{UserID: u.ID, Role: u.Role, Email: u.Email, Name: u.Name}
	if u.AdminOf != nil {
		c.AdminOf = *u.AdminOf
	}
	return c
}

func (fx *formFixture) actor(id string) *models.JWTClaims {
	return claimsFor(fx.users.byID[id])
}

// createTemplateT builds the Email/Age recruitment template owned by society S.
func (fx *formFixture) createTemplateT(t *testing.T) *models.FormTemplate {
	t.Helper()
	tmpl, err := fx.tmplSvc.Create(context.Background(), fx.actor(adminAID), dto.CreateFormTemplateRequest{
		Title: "Spring Recruitment 2024",
		Fields: []dto.FieldInput{
			{Label: "Email", FieldType: models.FieldEmail, Required: true},
			{Label: "Age", FieldType: models.FieldNumber, Validation: &models.FieldValidation{Min: floatPtr(18), Max: floatPtr(100)}},
		},
	})
	require.NoError(t, err)
	return tmpl
}

func assertAppError(t *testing.T, err error, target *appErrors.Error) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, target), "got %v", err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	return appErr
}

func TestFormTemplateCreateTakesOwnershipFromCaller(t *testing.T) {
	fx := newFormFixture()
	tmpl := fx.createTemplateT(t)

	assert.Equal(t, societyS, tmpl.SocietyID)
	assert.Equal(t, adminAID, tmpl.CreatedBy)
	assert.True(t, tmpl.IsActive)
	assert.Equal(t, "", tmpl.Description)
	require.Len(t, tmpl.Fields, 2)
	assert.NotEmpty(t, tmpl.Fields[0].ID)
	assert.NotEqual(t, tmpl.Fields[0].ID, tmpl.Fields[1].ID)
}

func TestFormTemplateCreateValidationOrder(t *testing.T) {
	fx := newFormFixture()
	admin := fx.actor(adminAID)

	cases := []struct {
		name    string
		req     dto.CreateFormTemplateRequest
		message string
		details []string
	}{
		{"missing title", dto.CreateFormTemplateRequest{Fields: []dto.FieldInput{{Label: "A", FieldType: models.FieldText}}}, "title and fields are required", nil},
		{"missing fields", dto.CreateFormTemplateRequest{Title: "T"}, "title and fields are required", nil},
		{"empty fields", dto.CreateFormTemplateRequest{Title: "T", Fields: []dto.FieldInput{}}, "fields must contain at least one field", nil},
		{"bad type before label", dto.CreateFormTemplateRequest{Title: "T", Fields: []dto.FieldInput{
			{Label: "", FieldType: models.FieldText},
			{Label: "When", FieldType: "date"},
		}}, "unrecognized field type", []string{`field 2: unrecognized field type "date"`}},
		{"missing label", dto.CreateFormTemplateRequest{Title: "T", Fields: []dto.FieldInput{{Label: "  ", FieldType: models.FieldText}}}, "every field needs a label", []string{"field 1: label is required"}},
		{"missing options", dto.CreateFormTemplateRequest{Title: "T", Fields: []dto.FieldInput{
			{Label: "Year", FieldType: models.FieldSelect},
			{Label: "Role", FieldType: models.FieldRadio, Options: []string{" "}},
			{Label: "Skills", FieldType: models.FieldCheckbox, Options: []string{"Go"}},
		}}, "options are required", []string{"Year: select fields need at least one option", "Role: radio fields need at least one option"}},
		{"min above max", dto.CreateFormTemplateRequest{Title: "T", Fields: []dto.FieldInput{
			{Label: "Age", FieldType: models.FieldNumber, Validation: &models.FieldValidation{Min: floatPtr(10), Max: floatPtr(5)}},
		}}, "invalid field validation", []string{"Age: validation min must not exceed max"}},
		{"bad pattern", dto.CreateFormTemplateRequest{Title: "T", Fields: []dto.FieldInput{
			{Label: "Handle", FieldType: models.FieldText, Validation: &models.FieldValidation{Pattern: "(["}},
		}}, "invalid field validation", []string{"Handle: validation pattern is not a valid regular expression"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.tmplSvc.Create(context.Background(), admin, tc.req)
			appErr := assertAppError(t, err, appErrors.ErrValidation)
			assert.Equal(t, tc.message, appErr.Message)
			assert.Equal(t, tc.details, appErr.Details)
		})
	}
	assert.Empty(t, fx.templates.created)
}

func TestFormTemplateCreateRequiresAdminWithSociety(t *testing.T) {
	fx := newFormFixture()
	req := dto.CreateFormTemplateRequest{Title: "T", Fields: []dto.FieldInput{{Label: "Name", FieldType: models.FieldText}}}

	_, err := fx.tmplSvc.Create(context.Background(), fx.actor(studentID), req)
	assertAppError(t, err, appErrors.ErrForbidden)

	fx.users.byID[adminBID].AdminOf = nil
	_, err = fx.tmplSvc.Create(context.Background(), fx.actor(adminBID), req)
	assertAppError(t, err, appErrors.ErrForbidden)

	delete(fx.societies.byID, societyS)
	_, err = fx.tmplSvc.Create(context.Background(), fx.actor(adminAID), req)
	assertAppError(t, err, appErrors.ErrNotFound)

	_, err = fx.tmplSvc.Create(context.Background(), nil, req)
	assertAppError(t, err, appErrors.ErrUnauthorized)
}

func TestFormTemplateReads(t *testing.T) {
	fx := newFormFixture()
	tmpl := fx.createTemplateT(t)

	got, err := fx.tmplSvc.Get(context.Background(), tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tmpl.Title, got.Title)

	_, err = fx.tmplSvc.Get(context.Background(), unknownUUID)
	assertAppError(t, err, appErrors.ErrNotFound)

	_, err = fx.tmplSvc.Get(context.Background(), "nope")
	assertAppError(t, err, appErrors.ErrValidation)

	list, err := fx.tmplSvc.ListBySociety(context.Background(), societyB)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	fx.templates.listErr = errors.New("connection reset")
	_, err = fx.tmplSvc.List(context.Background())
	assertAppError(t, err, appErrors.ErrInternal)
}

func TestFormTemplateListUsesCache(t *testing.T) {
	fx := newFormFixture()
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	fx.tmplSvc.cache = cache
	fx.createTemplateT(t)

	first, err := fx.tmplSvc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	fx.templates.listErr = errors.New("should not be called")
	second, err := fx.tmplSvc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 1)

	fx.templates.listErr = nil
	fx.createTemplateT(t)
	third, err := fx.tmplSvc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, third, 2)
}

func submit(fx *formFixture, tmpl *models.FormTemplate, who string, answers ...dto.RawFieldResponse) (*models.FormResponse, error) {
	return fx.respSvc.Submit(context.Background(), fx.actor(who), tmpl.ID, dto.SubmitFormResponseRequest{Responses: answers})
}

func TestScenarioValidSubmission(t *testing.T) {
	fx := newFormFixture()
	tmpl := fx.createTemplateT(t)

	resp, err := submit(fx, tmpl, studentID, answer(tmpl.Fields[0].ID, "x@y.com"), answer(tmpl.Fields[1].ID, 25))
	require.NoError(t, err)
	assert.Equal(t, societyS, resp.SocietyID)
	assert.Equal(t, studentID, resp.SubmittedBy)
	require.Len(t, fx.responses.stored, 1)
	assert.Equal(t, 25.0, fx.responses.stored[0].Responses[1].Value.Number())
}

func TestScenarioMalformedEmailRejected(t *testing.T) {
	fx := newFormFixture()
	tmpl := fx.createTemplateT(t)

	_, err := submit(fx, tmpl, studentID, answer(tmpl.Fields[0].ID, "not-an-email"))
	appErr := assertAppError(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Details, "Email must be a valid email address")
	assert.Empty(t, fx.responses.stored)
}

func TestScenarioMissingRequiredRejected(t *testing.T) {
	fx := newFormFixture()
	tmpl := fx.createTemplateT(t)

	_, err := submit(fx, tmpl, studentID, answer(tmpl.Fields[1].ID, 30))
	appErr := assertAppError(t, err, appErrors.ErrValidation)
	assert.Equal(t, []string{"missing required field: Email"}, appErr.Details)
	assert.Empty(t, fx.responses.stored)
}

func TestScenarioOtherAdminCannotExport(t *testing.T) {
	fx := newFormFixture()
	tmpl := fx.createTemplateT(t)
	_, err := submit(fx, tmpl, studentID, answer(tmpl.Fields[0].ID, "x@y.com"))
	require.NoError(t, err)

	adminB := fx.actor(adminBID)
	for _, format := range []dto.ExportFormat{dto.ExportCSV, dto.ExportXLSX, dto.ExportPDF} {
		file, err := fx.respSvc.Export(context.Background(), adminB, tmpl.ID, format)
		assertAppError(t, err, appErrors.ErrForbidden)
		assert.Nil(t, file)
	}
	_, err = fx.respSvc.ListForTemplate(context.Background(), adminB, tmpl.ID)
	assertAppError(t, err, appErrors.ErrForbidden)
	_, err = fx.respSvc.ListForSociety(context.Background(), adminB, societyS)
	assertAppError(t, err, appErrors.ErrForbidden)
	_, err = fx.respSvc.ListForSociety(context.Background(), fx.actor(studentID), societyS)
	assertAppError(t, err, appErrors.ErrForbidden)
}

func TestScenarioCSVExport(t *testing.T) {
	fx := newFormFixture()
	tmpl := fx.createTemplateT(t)

	_, err := submit(fx, tmpl, studentID, answer(tmpl.Fields[0].ID, "x@y.com"), answer(tmpl.Fields[1].ID, 25))
	require.NoError(t, err)
	_, err = submit(fx, tmpl, student2ID, answer(tmpl.Fields[0].ID, "kim@uni.edu"))
	require.NoError(t, err)

	file, err := fx.respSvc.Export(context.Background(), fx.actor(adminAID), tmpl.ID, dto.ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.Regexp(t, `^Spring_Recruitment_2024_responses_\d{4}-\d{2}-\d{2}\.csv$`, file.Filename)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Response ID", "Submitted At", "Submitted By (Name)", "Submitted By (Email)", "Email", "Age"}, records[0])

	// newest first: the second submission leads and never answered Age
	assert.Equal(t, []string{"Kim, \"KJ\"", "kim@uni.edu", "kim@uni.edu", ""}, records[1][2:])
	assert.Equal(t, []string{"Sam", "sam@uni.edu", "x@y.com", "25"}, records[2][2:])
	assert.Equal(t, "2024-03-10T12:02:00Z", records[1][1])
}

func TestExportIsRepeatable(t *testing.T) {
	fx := newFormFixture()
	tmpl := fx.createTemplateT(t)
	_, err := submit(fx, tmpl, studentID, answer(tmpl.Fields[0].ID, "x@y.com"))
	require.NoError(t, err)

	admin := fx.actor(adminAID)
	first, err := fx.respSvc.Export(context.Background(), admin, tmpl.ID, dto.ExportCSV)
	require.NoError(t, err)
	second, err := fx.respSvc.Export(context.Background(), admin, tmpl.ID, dto.ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)
}

func TestExportXLSXMatchesCSVLayout(t *testing.T) {
	fx := newFormFixture()
	tmpl := fx.createTemplateT(t)
	_, err := submit(fx, tmpl, studentID, answer(tmpl.Fields[0].ID, "x@y.com"), answer(tmpl.Fields[1].ID, 25))
	require.NoError(t, err)

	file, err := fx.respSvc.Export(context.Background(), fx.actor(adminAID), tmpl.ID, dto.ExportXLSX)
	require.NoError(t, err)
	assert.Regexp(t, `\.xlsx$`, file.Filename)

	book, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer book.Close() //nolint:errcheck
	rows, err := book.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Age", rows[0][5])
	assert.Equal(t, "x@y.com", rows[1][4])
	assert.Equal(t, "25", rows[1][5])

	pdf, err := fx.respSvc.Export(context.Background(), fx.actor(adminAID), tmpl.ID, dto.ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
}

func TestSubmissionKeepsSocietySnapshot(t *testing.T) {
	fx := newFormFixture()
	tmpl := fx.createTemplateT(t)
	_, err := submit(fx, tmpl, studentID, answer(tmpl.Fields[0].ID, "x@y.com"))
	require.NoError(t, err)

	fx.templates.byID[tmpl.ID].SocietyID = societyB
	_, err = submit(fx, tmpl, student2ID, answer(tmpl.Fields[0].ID, "kim@uni.edu"))
	require.NoError(t, err)

	assert.Equal(t, societyS, fx.responses.stored[0].SocietyID)
	assert.Equal(t, societyB, fx.responses.stored[1].SocietyID)

	list, err := fx.respSvc.ListForSociety(context.Background(), fx.actor(adminAID), societyS)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Sam", list[0].Submitter.Name)
	assert.Equal(t, "Spring Recruitment 2024", list[0].TemplateInfo.Title)
}

func TestSubmitEdgeCases(t *testing.T) {
	fx := newFormFixture()
	tmpl := fx.createTemplateT(t)

	_, err := fx.respSvc.Submit(context.Background(), fx.actor(studentID), unknownUUID, dto.SubmitFormResponseRequest{})
	assertAppError(t, err, appErrors.ErrNotFound)

	_, err = submit(fx, tmpl, adminAID, answer(tmpl.Fields[0].ID, "x@y.com"))
	assertAppError(t, err, appErrors.ErrForbidden)

	fx.templates.byID[tmpl.ID].IsActive = false
	_, err = submit(fx, tmpl, studentID, answer(tmpl.Fields[0].ID, "x@y.com"))
	appErr := assertAppError(t, err, appErrors.ErrValidation)
	assert.Equal(t, "form is closed", appErr.Message)

	_, err = fx.respSvc.ListForSociety(context.Background(), fx.actor(adminAID), unknownUUID)
	assertAppError(t, err, appErrors.ErrNotFound)
}

func TestExportFilenameSanitised(t *testing.T) {
	now := time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "Chess_Club_QA_responses_2024-01-02.csv", exportFilename("  Chess Club: Q&A ", "csv", now))
	assert.Equal(t, "form_responses_2024-01-02.xlsx", exportFilename("!!!", "xlsx", now))
}
