package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vidyalay/school-saas-api/internal/models"
	"github.com/vidyalay/school-saas-api/internal/policy"
	appErrors "github.com/vidyalay/school-saas-api/pkg/errors"
)

type gradeRepository interface {
	Upsert(ctx context.Context, grade *models.Grade) error
	List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error)
}

type rosterResolver interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type classResolver interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// RecordGradeRequest upserts a grade on its natural key.
type RecordGradeRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	Score     string `json:"score" validate:"required"`
	Term      string `json:"term"`
}

// GradeService records and lists grades within the actor's school.
type GradeService struct {
	repo      gradeRepository
	students  rosterResolver
	classes   classResolver
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewGradeService constructs a GradeService.
func NewGradeService(repo gradeRepository, students rosterResolver, classes classResolver, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, students: students, classes: classes, validator: validate, logger: logger, metrics: metrics}
}

// Record upserts a grade. Recording the same (student, class, subject,
// term) twice keeps a single row holding the latest score.
func (s *GradeService) Record(ctx context.Context, claims *models.SessionClaims, req RecordGradeRequest) (*models.Grade, error) {
	if err := policy.RequireRecorder(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	schoolID := claims.Tenant()
	if err := checkRoster(ctx, s.students, s.classes, schoolID, req.StudentID, req.ClassID); err != nil {
		return nil, err
	}

	grade := &models.Grade{
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		Subject:   strings.TrimSpace(req.Subject),
		Score:     strings.TrimSpace(req.Score),
		Term:      strings.TrimSpace(req.Term),
		SchoolID:  schoolID,
	}
	start := time.Now()
	if err := s.repo.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("grade_upsert", time.Since(start))
	}
	return grade, nil
}

// List returns grades within the actor's school. Students only ever see
// their own records regardless of the requested filter.
func (s *GradeService) List(ctx context.Context, claims *models.SessionClaims, filter models.GradeFilter) ([]models.Grade, error) {
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
	grades, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("grade_list", time.Since(start))
	}
	return grades, nil
}

// checkRoster verifies the (student, class) pair both belong to the
// school. Shared by the grade and attendance services.
func checkRoster(ctx context.Context, students rosterResolver, classes classResolver, schoolID, studentID, classID string) error {
	student, err := students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "student id does not resolve to a student of this school")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify student")
	}
	if student.Role != models.RoleStudent || !student.InSchool(schoolID) {
		return appErrors.Clone(appErrors.ErrValidation, "student id does not resolve to a student of this school")
	}

	class, err := classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "class id does not resolve to a class of this school")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify class")
	}
	if class.SchoolID != schoolID {
		return appErrors.Clone(appErrors.ErrValidation, "class id does not resolve to a class of this school")
	}
	return nil
}
