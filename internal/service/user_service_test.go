package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/society-sync-api/internal/models"
	"github.com/noah-isme/society-sync-api/internal/repository"
	appErrors "github.com/noah-isme/society-sync-api/pkg/errors"
	"github.com/noah-isme/society-sync-api/pkg/storage"
)

const defaultAvatar = "https://cdn.example.com/default.png"

type mockUserRepo struct {
	users      map[string]*models.User
	createErr  error
	pendingFor map[string]bool
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	repo := &mockUserRepo{users: map[string]*models.User{}, pendingFor: map[string]bool{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdateAccount(ctx context.Context, id, name, email string) error {
	for _, u := range m.users {
		if u.Email == email && u.ID != id {
			return repository.ErrDuplicate
		}
	}
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Name, u.Email = name, email
	return nil
}

func (m *mockUserRepo) UpdateAvatar(ctx context.Context, id, avatar string) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Avatar = avatar
	return nil
}

func (m *mockUserRepo) HasPendingAdminFor(ctx context.Context, societyID string) (bool, error) {
	return m.pendingFor[societyID], nil
}

type mockImages struct {
	saved   []string
	deleted []string
	err     error
}

func (m *mockImages) SaveImage(folder string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	url := fmt.Sprintf("/uploads/%s/%d.png", folder, len(m.saved)+1)
	m.saved = append(m.saved, url)
	return url, nil
}

func (m *mockImages) Delete(publicURL string) error {
	m.deleted = append(m.deleted, publicURL)
	return nil
}

func newUserService(repo *mockUserRepo, images *mockImages) *UserService {
	societies := &fakeSocieties{byID: map[string]*models.Society{
		societyS: {ID: societyS, Name: "Chess Club", AdminID: strPtr(adminAID)},
		societyB: {ID: societyB, Name: "Drama Society"},
	}}
	return NewUserService(repo, societies, images, &mockAudit{}, validator.New(), zap.NewNop(), defaultAvatar)
}

func TestUserServiceRegisterStudent(t *testing.T) {
	repo := newMockUserRepo()
	svc := newUserService(repo, &mockImages{})

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: " Sam ", Email: "Sam@Uni.EDU", Password: "secret1", Role: models.RoleStudent, PendingSocietyID: societyB,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sam@uni.edu", user.Email)
	assert.Equal(t, "Sam", user.Name)
	assert.True(t, user.Verified)
	assert.Nil(t, user.PendingSocietyID)
	assert.Equal(t, defaultAvatar, user.Avatar)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = svc.Register(context.Background(), models.RegisterRequest{
		Name: "Sam Again", Email: "sam@uni.edu", Password: "secret1", Role: models.RoleStudent,
	}, nil)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestUserServiceRegisterAdminNeedsFreeSociety(t *testing.T) {
	repo := newMockUserRepo()
	images := &mockImages{}
	svc := newUserService(repo, images)
	base := models.RegisterRequest{Name: "Bob", Email: "bob@uni.edu", Password: "secret1", Role: models.RoleAdmin}

	_, err := svc.Register(context.Background(), base, nil)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	req := base
	req.PendingSocietyID = societyS
	_, err = svc.Register(context.Background(), req, nil)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	req.PendingSocietyID = unknownUUID
	_, err = svc.Register(context.Background(), req, nil)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	repo.pendingFor[societyB] = true
	req.PendingSocietyID = societyB
	_, err = svc.Register(context.Background(), req, nil)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	repo.pendingFor[societyB] = false
	user, err := svc.Register(context.Background(), req, strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.False(t, user.Verified)
	require.NotNil(t, user.PendingSocietyID)
	assert.Equal(t, societyB, *user.PendingSocietyID)
	assert.Equal(t, "/uploads/avatars/1.png", user.Avatar)
}

func TestUserServiceRegisterRejectsBadAvatar(t *testing.T) {
	svc := newUserService(newMockUserRepo(), &mockImages{err: fmt.Errorf("%w: text/plain", storage.ErrUnsupportedType)})
	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Sam", Email: "sam@uni.edu", Password: "secret1", Role: models.RoleStudent,
	}, strings.NewReader("hello"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	svc = newUserService(newMockUserRepo(), &mockImages{err: storage.ErrTooLarge})
	_, err = svc.Register(context.Background(), models.RegisterRequest{
		Name: "Sam", Email: "sam@uni.edu", Password: "secret1", Role: models.RoleStudent,
	}, strings.NewReader("hello"))
	assert.True(t, errors.Is(err, appErrors.ErrPayloadTooLarge))
}

func TestUserServiceRegisterRemovesAvatarWhenInsertFails(t *testing.T) {
	repo := newMockUserRepo()
	repo.createErr = repository.ErrDuplicate
	images := &mockImages{}
	svc := newUserService(repo, images)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Sam", Email: "sam@uni.edu", Password: "secret1", Role: models.RoleStudent,
	}, strings.NewReader("png"))
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, images.saved, images.deleted)
}

func TestUserServiceUpdateAccount(t *testing.T) {
	repo := newMockUserRepo(
		&models.User{ID: "u1", Name: "Sam", Email: "sam@uni.edu", Role: models.RoleStudent},
		&models.User{ID: "u2", Name: "Kim", Email: "kim@uni.edu", Role: models.RoleStudent},
	)
	svc := newUserService(repo, &mockImages{})
	actor := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}

	user, err := svc.UpdateAccount(context.Background(), actor, models.UpdateAccountRequest{Name: "Samuel", Email: "SAMUEL@uni.edu"})
	require.NoError(t, err)
	assert.Equal(t, "Samuel", user.Name)
	assert.Equal(t, "samuel@uni.edu", user.Email)

	_, err = svc.UpdateAccount(context.Background(), actor, models.UpdateAccountRequest{Name: "Samuel", Email: "kim@uni.edu"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.UpdateAccount(context.Background(), actor, models.UpdateAccountRequest{Name: "S", Email: "kim@uni.edu"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestUserServiceUpdateAvatarReplacesUpload(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u1", Name: "Sam", Email: "sam@uni.edu", Avatar: defaultAvatar})
	images := &mockImages{}
	svc := newUserService(repo, images)
	actor := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}

	user, err := svc.UpdateAvatar(context.Background(), actor, strings.NewReader("one"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatars/1.png", user.Avatar)
	assert.Empty(t, images.deleted)

	user, err = svc.UpdateAvatar(context.Background(), actor, strings.NewReader("two"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatars/2.png", user.Avatar)
	assert.Equal(t, []string{"/uploads/avatars/1.png"}, images.deleted)

	_, err = svc.UpdateAvatar(context.Background(), actor, nil)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	me, err := svc.Me(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatars/2.png", me.Avatar)

	_, err = svc.Me(context.Background(), &models.JWTClaims{UserID: "ghost"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
