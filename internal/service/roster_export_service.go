package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vidyalay/school-saas-api/internal/models"
	"github.com/vidyalay/school-saas-api/internal/policy"
	appErrors "github.com/vidyalay/school-saas-api/pkg/errors"
	"github.com/vidyalay/school-saas-api/pkg/export"
)

type exportUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListBySchoolAndRole(ctx context.Context, schoolID string, role models.UserRole) ([]models.User, error)
}

type exportGradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error)
}

type exportAttendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
}

// RosterExportService renders tenant-scoped CSV rosters and PDF report
// cards. Exports are synchronous; the rendered bytes stream straight
// into the HTTP response.
type RosterExportService struct {
	users      exportUserRepository
	classes    classResolver
	grades     exportGradeRepository
	attendance exportAttendanceRepository
	logger     *zap.Logger
}

// NewRosterExportService constructs a RosterExportService.
func NewRosterExportService(users exportUserRepository, classes classResolver, grades exportGradeRepository, attendance exportAttendanceRepository, logger *zap.Logger) *RosterExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterExportService{
		users:      users,
		classes:    classes,
		grades:     grades,
		attendance: attendance,
		logger:     logger,
	}
}

// ClassRosterCSV renders the roster of one class as CSV.
func (s *RosterExportService) ClassRosterCSV(ctx context.Context, claims *models.SessionClaims, classID string) ([]byte, string, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, "", err
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.SchoolID != claims.Tenant() {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	students, err := s.users.ListBySchoolAndRole(ctx, claims.Tenant(), models.RoleStudent)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	var rows []export.RosterRow
	for _, student := range students {
		if !memberOf(student, class.ID) {
			continue
		}
		roll := ""
		if student.RollNumber != nil {
			roll = *student.RollNumber
		}
		rows = append(rows, export.RosterRow{
			RollNumber: roll,
			Name:       student.Name,
			Email:      student.Email,
		})
	}

	payload, err := export.RosterCSV(rows)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	filename := fmt.Sprintf("roster-%s.csv", class.ID)
	return payload, filename, nil
}

// StudentReportPDF renders a student's grades and attendance summary as
// a PDF report card.
func (s *RosterExportService) StudentReportPDF(ctx context.Context, claims *models.SessionClaims, studentID string) ([]byte, string, error) {
	if err := policy.RequireAdmin(claims); err != nil {
		return nil, "", err
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent || !student.InSchool(claims.Tenant()) {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	grades, err := s.grades.List(ctx, models.GradeFilter{StudentID: student.ID, SchoolID: claims.Tenant()})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	records, err := s.attendance.List(ctx, models.AttendanceFilter{StudentID: student.ID, SchoolID: claims.Tenant()})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}

	var lines []export.ReportCardLine
	for _, grade := range grades {
		lines = append(lines, export.ReportCardLine{
			Subject: grade.Subject,
			Term:    grade.Term,
			Score:   grade.Score,
		})
	}

	var summary export.AttendanceSummary
	for _, record := range records {
		switch record.Status {
		case models.AttendancePresent:
			summary.Present++
		case models.AttendanceAbsent:
			summary.Absent++
		case models.AttendanceLate:
			summary.Late++
		}
	}

	payload, err := export.ReportCardPDF(student.Name, lines, summary)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report card")
	}
	filename := fmt.Sprintf("report-%s.pdf", student.ID)
	return payload, filename, nil
}

func memberOf(student models.User, classID string) bool {
	for _, id := range student.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}
