package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vidyalay/school-saas-api/internal/models"
	appErrors "github.com/vidyalay/school-saas-api/pkg/errors"
)

type mockAttendanceStore struct {
	rows map[string]*models.AttendanceRecord
}

func newMockAttendanceStore() *mockAttendanceStore {
	return &mockAttendanceStore{rows: make(map[string]*models.AttendanceRecord)}
}

func attendanceKey(r *models.AttendanceRecord) string {
	return fmt.Sprintf("%s|%s|%s|%s", r.StudentID, r.ClassID, r.Date, r.SchoolID)
}

func (m *mockAttendanceStore) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	key := attendanceKey(record)
	if existing, ok := m.rows[key]; ok {
		existing.Status = record.Status
		record.ID = existing.ID
		return nil
	}
	if record.ID == "" {
		record.ID = fmt.Sprintf("mark-%d", len(m.rows)+1)
	}
	copied := *record
	m.rows[key] = &copied
	return nil
}

func (m *mockAttendanceStore) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, r := range m.rows {
		if r.SchoolID != filter.SchoolID {
			continue
		}
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.ClassID != "" && r.ClassID != filter.ClassID {
			continue
		}
		if filter.Date != "" && r.Date != filter.Date {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func TestAttendanceServiceRecordOverwritesStatus(t *testing.T) {
	store := newMockAttendanceStore()
	students, classes := rosterFixtures()
	svc := NewAttendanceService(store, students, classes, validator.New(), zap.NewNop(), nil)
	claims := sessionFor(models.RoleTeacher, "t1", "s1")

	first, err := svc.Record(context.Background(), claims, RecordAttendanceRequest{
		StudentID: "st1", ClassID: "c1", Date: "2026-08-30", Status: "absent",
	})
	require.NoError(t, err)

	second, err := svc.Record(context.Background(), claims, RecordAttendanceRequest{
		StudentID: "st1", ClassID: "c1", Date: "2026-08-30", Status: "present",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	require.Len(t, store.rows, 1)
	for _, r := range store.rows {
		assert.Equal(t, models.AttendancePresent, r.Status)
	}
}

func TestAttendanceServiceRecordRejectsBadStatus(t *testing.T) {
	students, classes := rosterFixtures()
	svc := NewAttendanceService(newMockAttendanceStore(), students, classes, validator.New(), zap.NewNop(), nil)

	_, err := svc.Record(context.Background(), sessionFor(models.RoleTeacher, "t1", "s1"), RecordAttendanceRequest{
		StudentID: "st1", ClassID: "c1", Date: "2026-08-30", Status: "skipped",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceRecordRejectsBadDate(t *testing.T) {
	students, classes := rosterFixtures()
	svc := NewAttendanceService(newMockAttendanceStore(), students, classes, validator.New(), zap.NewNop(), nil)

	_, err := svc.Record(context.Background(), sessionFor(models.RoleTeacher, "t1", "s1"), RecordAttendanceRequest{
		StudentID: "st1", ClassID: "c1", Date: "30/08/2026", Status: "present",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceListForcesStudentScope(t *testing.T) {
	store := newMockAttendanceStore()
	store.rows["a"] = &models.AttendanceRecord{StudentID: "st1", ClassID: "c1", Date: "2026-08-30", Status: models.AttendancePresent, SchoolID: "s1"}
	store.rows["b"] = &models.AttendanceRecord{StudentID: "st2", ClassID: "c1", Date: "2026-08-30", Status: models.AttendanceAbsent, SchoolID: "s1"}
	students, classes := rosterFixtures()
	svc := NewAttendanceService(store, students, classes, validator.New(), zap.NewNop(), nil)

	records, err := svc.List(context.Background(), sessionFor(models.RoleStudent, "st1", "s1"), models.AttendanceFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "st1", records[0].StudentID)
}

func TestAttendanceServiceRecordStudentForbidden(t *testing.T) {
	students, classes := rosterFixtures()
	svc := NewAttendanceService(newMockAttendanceStore(), students, classes, validator.New(), zap.NewNop(), nil)

	_, err := svc.Record(context.Background(), sessionFor(models.RoleStudent, "st1", "s1"), RecordAttendanceRequest{
		StudentID: "st1", ClassID: "c1", Date: "2026-08-30", Status: "present",
	})
	assert.Equal(t, appErrors.ErrForbidden, err)
}
