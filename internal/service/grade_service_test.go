package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vidyalay/school-saas-api/internal/models"
	appErrors "github.com/vidyalay/school-saas-api/pkg/errors"
)

// mockGradeStore keys rows by the natural key the way the database
// unique constraint does.
type mockGradeStore struct {
	rows map[string]*models.Grade
}

func newMockGradeStore() *mockGradeStore {
	return &mockGradeStore{rows: make(map[string]*models.Grade)}
}

func gradeKey(g *models.Grade) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", g.StudentID, g.ClassID, g.Subject, g.Term, g.SchoolID)
}

func (m *mockGradeStore) Upsert(ctx context.Context, grade *models.Grade) error {
	key := gradeKey(grade)
	if existing, ok := m.rows[key]; ok {
		existing.Score = grade.Score
		grade.ID = existing.ID
		return nil
	}
	if grade.ID == "" {
		grade.ID = fmt.Sprintf("grade-%d", len(m.rows)+1)
	}
	copied := *grade
	m.rows[key] = &copied
	return nil
}

func (m *mockGradeStore) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error) {
	var out []models.Grade
	for _, g := range m.rows {
		if g.SchoolID != filter.SchoolID {
			continue
		}
		if filter.StudentID != "" && g.StudentID != filter.StudentID {
			continue
		}
		if filter.ClassID != "" && g.ClassID != filter.ClassID {
			continue
		}
		if filter.Subject != "" && g.Subject != filter.Subject {
			continue
		}
		out = append(out, *g)
	}
	return out, nil
}

func rosterFixtures() (*mockUserStore, *mockClassStore) {
	students := newMockUserStore(&models.User{ID: "st1", Role: models.RoleStudent, SchoolID: strPtr("s1")})
	classes := newMockClassStore(&models.Class{ID: "c1", Name: "5A", TeacherID: "t1", SchoolID: "s1"})
	return students, classes
}

func TestGradeServiceRecordUpsertIdempotent(t *testing.T) {
	store := newMockGradeStore()
	students, classes := rosterFixtures()
	svc := NewGradeService(store, students, classes, validator.New(), zap.NewNop(), nil)
	claims := sessionFor(models.RoleTeacher, "t1", "s1")

	first, err := svc.Record(context.Background(), claims, RecordGradeRequest{
		StudentID: "st1", ClassID: "c1", Subject: "Math", Score: "B", Term: "T1",
	})
	require.NoError(t, err)
	assert.Equal(t, "B", first.Score)

	second, err := svc.Record(context.Background(), claims, RecordGradeRequest{
		StudentID: "st1", ClassID: "c1", Subject: "Math", Score: "A", Term: "T1",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	require.Len(t, store.rows, 1)
	for _, g := range store.rows {
		assert.Equal(t, "A", g.Score)
	}
}

func TestGradeServiceRecordStudentForbidden(t *testing.T) {
	store := newMockGradeStore()
	students, classes := rosterFixtures()
	svc := NewGradeService(store, students, classes, validator.New(), zap.NewNop(), nil)

	_, err := svc.Record(context.Background(), sessionFor(models.RoleStudent, "st1", "s1"), RecordGradeRequest{
		StudentID: "st1", ClassID: "c1", Subject: "Math", Score: "A",
	})
	assert.Equal(t, appErrors.ErrForbidden, err)
}

func TestGradeServiceRecordRejectsForeignRoster(t *testing.T) {
	store := newMockGradeStore()
	students := newMockUserStore(&models.User{ID: "st1", Role: models.RoleStudent, SchoolID: strPtr("s2")})
	classes := newMockClassStore(&models.Class{ID: "c1", SchoolID: "s1"})
	svc := NewGradeService(store, students, classes, validator.New(), zap.NewNop(), nil)

	_, err := svc.Record(context.Background(), sessionFor(models.RoleTeacher, "t1", "s1"), RecordGradeRequest{
		StudentID: "st1", ClassID: "c1", Subject: "Math", Score: "A",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.rows)
}

func TestGradeServiceListForcesStudentScope(t *testing.T) {
	store := newMockGradeStore()
	store.rows["a"] = &models.Grade{StudentID: "st1", ClassID: "c1", Subject: "Math", Score: "A", SchoolID: "s1"}
	store.rows["b"] = &models.Grade{StudentID: "st2", ClassID: "c1", Subject: "Math", Score: "C", SchoolID: "s1"}
	students, classes := rosterFixtures()
	svc := NewGradeService(store, students, classes, validator.New(), zap.NewNop(), nil)

	grades, err := svc.List(context.Background(), sessionFor(models.RoleStudent, "st1", "s1"), models.GradeFilter{StudentID: "st2"})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "st1", grades[0].StudentID)
}

func TestGradeServiceRecordObservesQueryDuration(t *testing.T) {
	store := newMockGradeStore()
	students, classes := rosterFixtures()
	metrics := NewMetricsService()
	svc := NewGradeService(store, students, classes, validator.New(), zap.NewNop(), metrics)

	_, err := svc.Record(context.Background(), sessionFor(models.RoleTeacher, "t1", "s1"), RecordGradeRequest{
		StudentID: "st1", ClassID: "c1", Subject: "Math", Score: "A", Term: "T1",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `db_query_duration_seconds_count{query="grade_upsert"} 1`)
}

func TestGradeServiceListScopesTenant(t *testing.T) {
	store := newMockGradeStore()
	store.rows["a"] = &models.Grade{StudentID: "st1", Subject: "Math", Score: "A", SchoolID: "s1"}
	store.rows["b"] = &models.Grade{StudentID: "st9", Subject: "Math", Score: "F", SchoolID: "s2"}
	students, classes := rosterFixtures()
	svc := NewGradeService(store, students, classes, validator.New(), zap.NewNop(), nil)

	grades, err := svc.List(context.Background(), sessionFor(models.RoleAdmin, "a1", "s1"), models.GradeFilter{})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "s1", grades[0].SchoolID)
}
