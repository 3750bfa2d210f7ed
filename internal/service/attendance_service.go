package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vidyalay/school-saas-api/internal/models"
	"github.com/vidyalay/school-saas-api/internal/policy"
	appErrors "github.com/vidyalay/school-saas-api/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
}

// RecordAttendanceRequest upserts an attendance mark on its natural key.
type RecordAttendanceRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

// AttendanceService records and lists attendance within the actor's school.
type AttendanceService struct {
	repo      attendanceRepository
	students  rosterResolver
	classes   classResolver
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, students rosterResolver, classes classResolver, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, students: students, classes: classes, validator: validate, logger: logger, metrics: metrics}
}

// Record upserts an attendance mark. A second write for the same
// (student, class, date) overwrites the stored status.
func (s *AttendanceService) Record(ctx context.Context, claims *models.SessionClaims, req RecordAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := policy.RequireRecorder(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	status := models.AttendanceStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be present, absent or late")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}

	schoolID := claims.Tenant()
	if err := checkRoster(ctx, s.students, s.classes, schoolID, req.StudentID, req.ClassID); err != nil {
		return nil, err
	}

	record := &models.AttendanceRecord{
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		Date:      req.Date,
		Status:    status,
		SchoolID:  schoolID,
	}
	start := time.Now()
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("attendance_upsert", time.Since(start))
	}
	return record, nil
}

// List returns attendance records within the actor's school. Students
// only ever see their own records.
func (s *AttendanceService) List(ctx context.Context, claims *models.SessionClaims, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Tenant() == "" {
		return nil, appErrors.ErrForbidden
	}

	filter.SchoolID = claims.Tenant()
	if claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}

	start := time.Now()
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("attendance_list", time.Since(start))
	}
	return records, nil
}
