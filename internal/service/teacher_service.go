package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidyalay/school-saas-api/internal/models"
	"github.com/vidyalay/school-saas-api/internal/policy"
	appErrors "github.com/vidyalay/school-saas-api/pkg/errors"
)

// roleUserRepository is the store surface shared by the teacher and
// student services, both of which manage user records of a single role.
type roleUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	ListBySchoolAndRole(ctx context.Context, schoolID string, role models.UserRole) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// pickerInvalidator drops cached picker projections after writes.
type pickerInvalidator interface {
	InvalidateTeachers(ctx context.Context, schoolID string)
	InvalidateClasses(ctx context.Context, schoolID string)
}

// CreateTeacherRequest represents payload for creating teachers.
type CreateTeacherRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

// UpdateTeacherRequest represents payload for updating teachers. All
// fields are optional but at least one must be supplied.
type UpdateTeacherRequest struct {
	Email *string `json:"email" validate:"omitempty,email"`
	Name  *string `json:"name"`
}

// TeacherService manages teacher accounts scoped to the actor's school.
type TeacherService struct {
	repo      roleUserRepository
	pickers   pickerInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo roleUserRepository, pickers pickerInvalidator, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, pickers: pickers, validator: validate, logger: logger}
}

// List returns the teachers of the actor's school.
func (s *TeacherService) List(ctx context.Context, claims *models.SessionClaims) ([]models.User, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, err
	}
	teachers, err := s.repo.ListBySchoolAndRole(ctx, claims.Tenant(), models.RoleTeacher)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// Create registers a teacher account inside the actor's school.
func (s *TeacherService) Create(ctx context.Context, claims *models.SessionClaims, req CreateTeacherRequest) (*models.User, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	taken, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a user with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	schoolID := claims.Tenant()
	teacher := &models.User{
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Role:         models.RoleTeacher,
		SchoolID:     &schoolID,
	}

	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	s.invalidate(ctx, schoolID)
	return teacher, nil
}

// Update modifies a teacher of the actor's school.
func (s *TeacherService) Update(ctx context.Context, claims *models.SessionClaims, id string, req UpdateTeacherRequest) (*models.User, error) {
	teacher, err := s.load(ctx, claims, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	if req.Email == nil && req.Name == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no updatable fields supplied")
	}

	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		taken, err := s.repo.ExistsByEmail(ctx, email, teacher.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a user with this email already exists")
		}
		teacher.Email = email
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		teacher.Name = strings.TrimSpace(*req.Name)
	}

	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	s.invalidate(ctx, claims.Tenant())
	return teacher, nil
}

// Delete removes a teacher of the actor's school. Classes referencing
// the teacher are left untouched; there is no cascade.
func (s *TeacherService) Delete(ctx context.Context, claims *models.SessionClaims, id string) error {
	teacher, err := s.load(ctx, claims, id, policy.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, teacher.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	s.invalidate(ctx, claims.Tenant())
	return nil
}

// load fetches the target and applies the entitlement rules: out-of-tenant
// or wrong-role targets read as not found, admin targets as forbidden.
func (s *TeacherService) load(ctx context.Context, claims *models.SessionClaims, id string, action policy.Action) (*models.User, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	target := policy.Target{Role: user.Role}
	if user.SchoolID != nil {
		target.SchoolID = *user.SchoolID
	}
	if err := policy.Evaluate(claims, action, target); err != nil {
		return nil, err
	}
	if user.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return user, nil
}

func (s *TeacherService) invalidate(ctx context.Context, schoolID string) {
	if s.pickers != nil {
		s.pickers.InvalidateTeachers(ctx, schoolID)
	}
}
