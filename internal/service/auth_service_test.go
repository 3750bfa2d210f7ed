package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidyalay/school-saas-api/internal/models"
	appErrors "github.com/vidyalay/school-saas-api/pkg/errors"
)

type mockAuthUserRepo struct {
	userByEmail *models.User
	emailTaken  bool
	created     []*models.User
	findErr     error
	existsErr   error
	createErr   error
}

func (m *mockAuthUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthUserRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.emailTaken, nil
}

func (m *mockAuthUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "new-user"
	m.created = append(m.created, user)
	return nil
}

type mockAuthSchoolRepo struct {
	exists bool
	err    error
}

func (m *mockAuthSchoolRepo) Exists(ctx context.Context, id string) (bool, error) {
	return m.exists, m.err
}

func newAuthService(users *mockAuthUserRepo, schools *mockAuthSchoolRepo) *AuthService {
	return NewAuthService(users, schools, validator.New(), zap.NewNop(), AuthConfig{
		TokenSecret: "secret",
		TokenExpiry: time.Hour,
		Issuer:      "school-saas-api",
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	schoolID := "s1"
	repo := &mockAuthUserRepo{userByEmail: &models.User{
		ID: "u1", Email: "admin@example.com", PasswordHash: string(password),
		Name: "Admin", Role: models.RoleAdmin, SchoolID: &schoolID,
	}}
	svc := newAuthService(repo, &mockAuthSchoolRepo{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "u1", res.User.ID)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "s1", claims.Tenant())
}

func TestAuthServiceLoginFailureIsUniform(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	known := &mockAuthUserRepo{userByEmail: &models.User{ID: "u1", Email: "user@example.com", PasswordHash: string(password), Role: models.RoleTeacher}}
	unknown := &mockAuthUserRepo{}

	svcKnown := newAuthService(known, &mockAuthSchoolRepo{})
	svcUnknown := newAuthService(unknown, &mockAuthSchoolRepo{})

	_, errWrongPassword := svcKnown.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "nope"})
	_, errUnknownEmail := svcUnknown.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "nope"})

	require.Error(t, errWrongPassword)
	require.Error(t, errUnknownEmail)

	wrongErr := appErrors.FromError(errWrongPassword)
	unknownErr := appErrors.FromError(errUnknownEmail)
	assert.Equal(t, wrongErr.Code, unknownErr.Code)
	assert.Equal(t, wrongErr.Message, unknownErr.Message)
	assert.Equal(t, 401, wrongErr.Status)
}

func TestAuthServiceRegisterRequiresSchoolForNonAdmin(t *testing.T) {
	svc := newAuthService(&mockAuthUserRepo{}, &mockAuthSchoolRepo{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "t@example.com", Password: "secret123", Name: "T", Role: "teacher",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterUnknownSchool(t *testing.T) {
	schoolID := "missing"
	svc := newAuthService(&mockAuthUserRepo{}, &mockAuthSchoolRepo{exists: false})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "t@example.com", Password: "secret123", Name: "T", Role: "teacher", SchoolID: &schoolID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterEmailConflict(t *testing.T) {
	schoolID := "s1"
	svc := newAuthService(&mockAuthUserRepo{emailTaken: true}, &mockAuthSchoolRepo{exists: true})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "t@example.com", Password: "secret123", Name: "T", Role: "student", SchoolID: &schoolID,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestAuthServiceRegisterHashesPassword(t *testing.T) {
	repo := &mockAuthUserRepo{}
	svc := newAuthService(repo, &mockAuthSchoolRepo{exists: true})

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "Admin@Example.com", Password: "secret123", Name: " Admin ", Role: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", info.Email)
	assert.Equal(t, "Admin", info.Name)

	require.Len(t, repo.created, 1)
	stored := repo.created[0]
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")))
}

func TestAuthServiceRegisterShortPassword(t *testing.T) {
	svc := newAuthService(&mockAuthUserRepo{}, &mockAuthSchoolRepo{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "a@example.com", Password: "short", Name: "A", Role: "admin",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenExpired(t *testing.T) {
	repo := &mockAuthUserRepo{}
	svc := NewAuthService(repo, &mockAuthSchoolRepo{}, validator.New(), zap.NewNop(), AuthConfig{
		TokenSecret: "secret",
		TokenExpiry: -time.Minute,
	})

	token, _, err := svc.issueToken(&models.User{ID: "u1", Email: "u@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
	assert.Equal(t, "token expired", appErr.Message)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := newAuthService(&mockAuthUserRepo{}, &mockAuthSchoolRepo{})
	verifier := NewAuthService(&mockAuthUserRepo{}, &mockAuthSchoolRepo{}, validator.New(), zap.NewNop(), AuthConfig{
		TokenSecret: "other-secret",
		TokenExpiry: time.Hour,
	})

	token, _, err := issuer.issueToken(&models.User{ID: "u1", Email: "u@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
