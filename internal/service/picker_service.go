package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vidyalay/school-saas-api/internal/models"
	"github.com/vidyalay/school-saas-api/internal/policy"
	appErrors "github.com/vidyalay/school-saas-api/pkg/errors"
)

type pickerUserRepository interface {
	NamesBySchoolAndRole(ctx context.Context, schoolID string, role models.UserRole) ([]models.NameRef, error)
}

type pickerClassRepository interface {
	Names(ctx context.Context, schoolID string) ([]models.NameRef, error)
}

type pickerCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string)
}

// PickerService serves the {id,name} projections that populate selection
// UIs, cached per school with write invalidation.
type PickerService struct {
	users   pickerUserRepository
	classes pickerClassRepository
	cache   pickerCache
	ttl     time.Duration
	logger  *zap.Logger
}

// NewPickerService constructs a PickerService. cache may be nil, in
// which case every read goes to the store.
func NewPickerService(users pickerUserRepository, classes pickerClassRepository, cache pickerCache, ttl time.Duration, logger *zap.Logger) *PickerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PickerService{users: users, classes: classes, cache: cache, ttl: ttl, logger: logger}
}

// Teachers returns the teacher picker projection for the actor's school.
func (s *PickerService) Teachers(ctx context.Context, claims *models.SessionClaims) ([]models.NameRef, bool, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, false, err
	}
	key := teacherPickerKey(claims.Tenant())

	if refs, ok := s.fromCache(ctx, key); ok {
		return refs, true, nil
	}

	refs, err := s.users.NamesBySchoolAndRole(ctx, claims.Tenant(), models.RoleTeacher)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher names")
	}
	s.toCache(ctx, key, refs)
	return refs, false, nil
}

// Classes returns the class picker projection for the actor's school.
func (s *PickerService) Classes(ctx context.Context, claims *models.SessionClaims) ([]models.NameRef, bool, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, false, err
	}
	key := classPickerKey(claims.Tenant())

	if refs, ok := s.fromCache(ctx, key); ok {
		return refs, true, nil
	}

	refs, err := s.classes.Names(ctx, claims.Tenant())
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class names")
	}
	s.toCache(ctx, key, refs)
	return refs, false, nil
}

// InvalidateTeachers drops the cached teacher projection for a school.
func (s *PickerService) InvalidateTeachers(ctx context.Context, schoolID string) {
	if s.cache != nil {
		s.cache.Delete(ctx, teacherPickerKey(schoolID))
	}
}

// InvalidateClasses drops the cached class projection for a school.
func (s *PickerService) InvalidateClasses(ctx context.Context, schoolID string) {
	if s.cache != nil {
		s.cache.Delete(ctx, classPickerKey(schoolID))
	}
}

func (s *PickerService) fromCache(ctx context.Context, key string) ([]models.NameRef, bool) {
	if s.cache == nil {
		return nil, false
	}
	var refs []models.NameRef
	if err := s.cache.Get(ctx, key, &refs); err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("picker cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return refs, true
}

func (s *PickerService) toCache(ctx context.Context, key string, refs []models.NameRef) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, refs, s.ttl); err != nil {
		s.logger.Warn("picker cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func teacherPickerKey(schoolID string) string {
	return fmt.Sprintf("pickers:teachers:%s", schoolID)
}

func classPickerKey(schoolID string) string {
	return fmt.Sprintf("pickers:classes:%s", schoolID)
}
