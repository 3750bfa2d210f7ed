package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vidyalay/school-saas-api/internal/models"
	appErrors "github.com/vidyalay/school-saas-api/pkg/errors"
)

type mockClassMembership struct {
	inSchool map[string]bool
}

func (m *mockClassMembership) CountInSchool(ctx context.Context, schoolID string, ids []string) (int, error) {
	count := 0
	for _, id := range ids {
		if m.inSchool[id] {
			count++
		}
	}
	return count, nil
}

func TestStudentServiceCreateWithClasses(t *testing.T) {
	store := newMockUserStore()
	classes := &mockClassMembership{inSchool: map[string]bool{"c1": true, "c2": true}}
	svc := NewStudentService(store, classes, validator.New(), zap.NewNop())

	student, err := svc.Create(context.Background(), sessionFor(models.RoleAdmin, "a1", "s1"), CreateStudentRequest{
		Email: "s@example.com", Password: "secret123", Name: "Student",
		RollNumber: strPtr("42"), ClassIDs: []string{"c1", "c2"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, student.Role)
	assert.Equal(t, "42", *student.RollNumber)
	assert.Len(t, student.ClassIDs, 2)
}

func TestStudentServiceCreateRejectsForeignClass(t *testing.T) {
	store := newMockUserStore()
	classes := &mockClassMembership{inSchool: map[string]bool{"c1": true}}
	svc := NewStudentService(store, classes, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), sessionFor(models.RoleAdmin, "a1", "s1"), CreateStudentRequest{
		Email: "s@example.com", Password: "secret123", Name: "Student",
		ClassIDs: []string{"c1", "other-school-class"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateRejectsDuplicateClassIDs(t *testing.T) {
	svc := NewStudentService(newMockUserStore(), &mockClassMembership{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), sessionFor(models.RoleAdmin, "a1", "s1"), CreateStudentRequest{
		Email: "s@example.com", Password: "secret123", Name: "Student",
		ClassIDs: []string{"c1", "c1"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdateClearsClassMembership(t *testing.T) {
	store := newMockUserStore(&models.User{
		ID: "st1", Role: models.RoleStudent, SchoolID: strPtr("s1"),
		ClassIDs: []string{"c1"},
	})
	svc := NewStudentService(store, &mockClassMembership{}, validator.New(), zap.NewNop())

	empty := []string{}
	student, err := svc.Update(context.Background(), sessionFor(models.RoleAdmin, "a1", "s1"), "st1", UpdateStudentRequest{ClassIDs: &empty})
	require.NoError(t, err)
	assert.Empty(t, student.ClassIDs)
}

func TestStudentServiceUpdateCrossTenantNotFound(t *testing.T) {
	store := newMockUserStore(&models.User{ID: "st1", Role: models.RoleStudent, SchoolID: strPtr("s2")})
	svc := NewStudentService(store, &mockClassMembership{}, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), sessionFor(models.RoleAdmin, "a1", "s1"), "st1", UpdateStudentRequest{Name: strPtr("New")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDeleteAdminTargetForbidden(t *testing.T) {
	store := newMockUserStore(&models.User{ID: "a2", Role: models.RoleAdmin, SchoolID: strPtr("s1")})
	svc := NewStudentService(store, &mockClassMembership{}, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), sessionFor(models.RoleAdmin, "a1", "s1"), "a2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceListScopedToSchool(t *testing.T) {
	store := newMockUserStore(
		&models.User{ID: "st1", Role: models.RoleStudent, SchoolID: strPtr("s1")},
		&models.User{ID: "st2", Role: models.RoleStudent, SchoolID: strPtr("s2")},
		&models.User{ID: "t1", Role: models.RoleTeacher, SchoolID: strPtr("s1")},
	)
	svc := NewStudentService(store, &mockClassMembership{}, validator.New(), zap.NewNop())

	students, err := svc.List(context.Background(), sessionFor(models.RoleAdmin, "a1", "s1"))
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "st1", students[0].ID)
}
