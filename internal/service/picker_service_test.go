package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vidyalay/school-saas-api/internal/models"
	appErrors "github.com/vidyalay/school-saas-api/pkg/errors"
)

type memoryCache struct {
	entries map[string][]byte
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.sets++
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) {
	for _, key := range keys {
		delete(m.entries, key)
	}
}

func TestPickerServiceCachesTeacherProjection(t *testing.T) {
	users := newMockUserStore(&models.User{ID: "t1", Name: "Teacher", Role: models.RoleTeacher, SchoolID: strPtr("s1")})
	cache := newMemoryCache()
	svc := NewPickerService(pickerUsers{users}, newMockClassStore(), cache, time.Minute, zap.NewNop())
	claims := sessionFor(models.RoleAdmin, "a1", "s1")

	refs, hit, err := svc.Teachers(context.Background(), claims)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, refs, 1)
	assert.Equal(t, 1, cache.sets)

	refs, hit, err = svc.Teachers(context.Background(), claims)
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, refs, 1)
	assert.Equal(t, "t1", refs[0].ID)
}

func TestPickerServiceInvalidation(t *testing.T) {
	users := newMockUserStore(&models.User{ID: "t1", Name: "Teacher", Role: models.RoleTeacher, SchoolID: strPtr("s1")})
	cache := newMemoryCache()
	svc := NewPickerService(pickerUsers{users}, newMockClassStore(), cache, time.Minute, zap.NewNop())
	claims := sessionFor(models.RoleAdmin, "a1", "s1")

	_, _, err := svc.Teachers(context.Background(), claims)
	require.NoError(t, err)

	svc.InvalidateTeachers(context.Background(), "s1")

	_, hit, err := svc.Teachers(context.Background(), claims)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPickerServiceNilCache(t *testing.T) {
	users := newMockUserStore(&models.User{ID: "t1", Name: "Teacher", Role: models.RoleTeacher, SchoolID: strPtr("s1")})
	svc := NewPickerService(pickerUsers{users}, newMockClassStore(), nil, time.Minute, zap.NewNop())

	refs, hit, err := svc.Teachers(context.Background(), sessionFor(models.RoleAdmin, "a1", "s1"))
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, refs, 1)
}

func TestPickerServiceNonAdminForbidden(t *testing.T) {
	svc := NewPickerService(pickerUsers{newMockUserStore()}, newMockClassStore(), nil, time.Minute, zap.NewNop())

	_, _, err := svc.Classes(context.Background(), sessionFor(models.RoleStudent, "st1", "s1"))
	assert.Equal(t, appErrors.ErrForbidden, err)
}

// pickerUsers adapts mockUserStore to the picker name projection.
type pickerUsers struct {
	store *mockUserStore
}

func (p pickerUsers) NamesBySchoolAndRole(ctx context.Context, schoolID string, role models.UserRole) ([]models.NameRef, error) {
	users, err := p.store.ListBySchoolAndRole(ctx, schoolID, role)
	if err != nil {
		return nil, err
	}
	refs := make([]models.NameRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, models.NameRef{ID: u.ID, Name: u.Name})
	}
	return refs, nil
}
