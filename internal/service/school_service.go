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

type schoolRepository interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, school *models.School) error
	Update(ctx context.Context, school *models.School) error
}

type schoolAdminRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// CreateSchoolRequest provisions a tenant for an unbound admin.
type CreateSchoolRequest struct {
	Name        string `json:"name" validate:"required"`
	Address     string `json:"address" validate:"required"`
	ContactInfo string `json:"contact_info" validate:"required"`
}

// UpdateSchoolRequest carries the mutable school fields.
type UpdateSchoolRequest struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	ContactInfo *string `json:"contact_info"`
}

// SchoolService manages the actor's own tenant record.
type SchoolService struct {
	schools   schoolRepository
	admins    schoolAdminRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolService constructs a SchoolService.
func NewSchoolService(schools schoolRepository, admins schoolAdminRepository, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolService{schools: schools, admins: admins, validator: validate, logger: logger}
}

// Get returns the actor's own school record.
func (s *SchoolService) Get(ctx context.Context, claims *models.SessionClaims) (*models.School, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, err
	}

	school, err := s.schools.FindByID(ctx, claims.Tenant())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	return school, nil
}

// Create provisions a school for an admin not yet bound to a tenant and
// binds the admin's account to it. The binding takes effect in tokens
// issued after the next login.
func (s *SchoolService) Create(ctx context.Context, claims *models.SessionClaims, req CreateSchoolRequest) (*models.School, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	if claims.Tenant() != "" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "admin is already bound to a school")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}

	school := &models.School{
		Name:        strings.TrimSpace(req.Name),
		Address:     strings.TrimSpace(req.Address),
		ContactInfo: strings.TrimSpace(req.ContactInfo),
	}
	if err := s.schools.Create(ctx, school); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create school")
	}

	admin, err := s.admins.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin account")
	}
	admin.SchoolID = &school.ID
	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bind admin to school")
	}

	s.logger.Info("school provisioned", zap.String("school_id", school.ID), zap.String("admin_id", admin.ID))
	return school, nil
}

// Update modifies the actor's own school record.
func (s *SchoolService) Update(ctx context.Context, claims *models.SessionClaims, req UpdateSchoolRequest) (*models.School, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, err
	}

	school, err := s.schools.FindByID(ctx, claims.Tenant())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}

	changed := false
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		school.Name = strings.TrimSpace(*req.Name)
		changed = true
	}
	if req.Address != nil && strings.TrimSpace(*req.Address) != "" {
		school.Address = strings.TrimSpace(*req.Address)
		changed = true
	}
	if req.ContactInfo != nil && strings.TrimSpace(*req.ContactInfo) != "" {
		school.ContactInfo = strings.TrimSpace(*req.ContactInfo)
		changed = true
	}
	if !changed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no updatable fields supplied")
	}

	if err := s.schools.Update(ctx, school); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update school")
	}
	return school, nil
}
