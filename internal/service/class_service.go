package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vidyalay/school-saas-api/internal/models"
	"github.com/vidyalay/school-saas-api/internal/policy"
	appErrors "github.com/vidyalay/school-saas-api/pkg/errors"
)

type classRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.ClassDetail, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

type classTeacherResolver interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateClassRequest represents payload for creating classes.
type CreateClassRequest struct {
	Name      string `json:"name" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// UpdateClassRequest represents payload for updating classes. At least
// one field must be supplied.
type UpdateClassRequest struct {
	Name      *string `json:"name"`
	TeacherID *string `json:"teacher_id"`
}

// ClassService manages class records scoped to the actor's school. The
// teacher reference is re-validated on every create and update; deleting
// a teacher afterwards intentionally leaves the reference dangling.
type ClassService struct {
	repo      classRepository
	teachers  classTeacherResolver
	pickers   pickerInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, teachers classTeacherResolver, pickers pickerInvalidator, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, teachers: teachers, pickers: pickers, validator: validate, logger: logger}
}

// List returns the classes of the actor's school with teacher names.
func (s *ClassService) List(ctx context.Context, claims *models.SessionClaims) ([]models.ClassDetail, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, err
	}
	classes, err := s.repo.ListBySchool(ctx, claims.Tenant())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Create adds a class to the actor's school.
func (s *ClassService) Create(ctx context.Context, claims *models.SessionClaims, req CreateClassRequest) (*models.Class, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if err := s.checkTeacher(ctx, claims.Tenant(), req.TeacherID); err != nil {
		return nil, err
	}

	class := &models.Class{
		Name:      strings.TrimSpace(req.Name),
		TeacherID: req.TeacherID,
		SchoolID:  claims.Tenant(),
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.invalidate(ctx, claims.Tenant())
	return class, nil
}

// Update modifies a class of the actor's school.
func (s *ClassService) Update(ctx context.Context, claims *models.SessionClaims, id string, req UpdateClassRequest) (*models.Class, error) {
	class, err := s.load(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if req.Name == nil && req.TeacherID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no updatable fields supplied")
	}

	if req.TeacherID != nil {
		if err := s.checkTeacher(ctx, claims.Tenant(), *req.TeacherID); err != nil {
			return nil, err
		}
		class.TeacherID = *req.TeacherID
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		class.Name = strings.TrimSpace(*req.Name)
	}

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	s.invalidate(ctx, claims.Tenant())
	return class, nil
}

// Delete removes a class of the actor's school.
func (s *ClassService) Delete(ctx context.Context, claims *models.SessionClaims, id string) error {
	class, err := s.load(ctx, claims, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, class.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.invalidate(ctx, claims.Tenant())
	return nil
}

func (s *ClassService) load(ctx context.Context, claims *models.SessionClaims, id string) (*models.Class, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, err
	}

	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.SchoolID != claims.Tenant() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return class, nil
}

// checkTeacher verifies the reference resolves to a teacher of the given
// school. A missing or out-of-tenant teacher is a validation failure, not
// a not-found: the class is the resource under edit, not the teacher.
func (s *ClassService) checkTeacher(ctx context.Context, schoolID, teacherID string) error {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "teacher id does not resolve to a teacher of this school")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify teacher")
	}
	if teacher.Role != models.RoleTeacher || !teacher.InSchool(schoolID) {
		return appErrors.Clone(appErrors.ErrValidation, "teacher id does not resolve to a teacher of this school")
	}
	return nil
}

func (s *ClassService) invalidate(ctx context.Context, schoolID string) {
	if s.pickers != nil {
		s.pickers.InvalidateClasses(ctx, schoolID)
	}
}
