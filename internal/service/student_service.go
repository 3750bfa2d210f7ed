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

type classMembershipRepository interface {
	CountInSchool(ctx context.Context, schoolID string, ids []string) (int, error)
}

// CreateStudentRequest represents payload for enrolling students.
type CreateStudentRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=6"`
	Name       string   `json:"name" validate:"required"`
	RollNumber *string  `json:"roll_number"`
	ClassIDs   []string `json:"class_ids"`
}

// UpdateStudentRequest represents payload for updating students. All
// fields are optional but at least one must be supplied. A non-nil empty
// ClassIDs clears the student's class membership.
type UpdateStudentRequest struct {
	Email      *string   `json:"email" validate:"omitempty,email"`
	Name       *string   `json:"name"`
	RollNumber *string   `json:"roll_number"`
	ClassIDs   *[]string `json:"class_ids"`
}

// StudentService manages student accounts scoped to the actor's school.
type StudentService struct {
	repo      roleUserRepository
	classes   classMembershipRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo roleUserRepository, classes classMembershipRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// List returns the students of the actor's school.
func (s *StudentService) List(ctx context.Context, claims *models.SessionClaims) ([]models.User, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, err
	}
	students, err := s.repo.ListBySchoolAndRole(ctx, claims.Tenant(), models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Create enrolls a student in the actor's school. Each assigned class id
// must resolve to a class of the same school.
func (s *StudentService) Create(ctx context.Context, claims *models.SessionClaims, req CreateStudentRequest) (*models.User, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := s.checkClassIDs(ctx, claims.Tenant(), req.ClassIDs); err != nil {
		return nil, err
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
	student := &models.User{
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Role:         models.RoleStudent,
		SchoolID:     &schoolID,
		RollNumber:   req.RollNumber,
		ClassIDs:     req.ClassIDs,
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies a student of the actor's school. Introduced class ids
// are re-validated against the tenant.
func (s *StudentService) Update(ctx context.Context, claims *models.SessionClaims, id string, req UpdateStudentRequest) (*models.User, error) {
	student, err := s.load(ctx, claims, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if req.Email == nil && req.Name == nil && req.RollNumber == nil && req.ClassIDs == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no updatable fields supplied")
	}

	if req.ClassIDs != nil {
		if err := s.checkClassIDs(ctx, claims.Tenant(), *req.ClassIDs); err != nil {
			return nil, err
		}
		student.ClassIDs = *req.ClassIDs
	}
	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		taken, err := s.repo.ExistsByEmail(ctx, email, student.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a user with this email already exists")
		}
		student.Email = email
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		student.Name = strings.TrimSpace(*req.Name)
	}
	if req.RollNumber != nil {
		student.RollNumber = req.RollNumber
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student of the actor's school.
func (s *StudentService) Delete(ctx context.Context, claims *models.SessionClaims, id string) error {
	student, err := s.load(ctx, claims, id, policy.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, student.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

func (s *StudentService) load(ctx context.Context, claims *models.SessionClaims, id string, action policy.Action) (*models.User, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	target := policy.Target{Role: user.Role}
	if user.SchoolID != nil {
		target.SchoolID = *user.SchoolID
	}
	if err := policy.Evaluate(claims, action, target); err != nil {
		return nil, err
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return user, nil
}

func (s *StudentService) checkClassIDs(ctx context.Context, schoolID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return appErrors.Clone(appErrors.ErrValidation, "class ids must be non-empty strings")
		}
		if _, dup := seen[id]; dup {
			return appErrors.Clone(appErrors.ErrValidation, "class ids must be unique")
		}
		seen[id] = struct{}{}
	}
	count, err := s.classes.CountInSchool(ctx, schoolID, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify classes")
	}
	if count != len(ids) {
		return appErrors.Clone(appErrors.ErrValidation, "one or more class ids do not belong to this school")
	}
	return nil
}
