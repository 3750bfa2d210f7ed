package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vidyalay/school-saas-api/internal/models"
)

// GradeRepository provides database access for grade records.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new instance of GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Upsert inserts the grade or, when the natural key (student, class,
// subject, term, school) already exists, overwrites the stored score.
// The conflict branch keeps the original row id, so the stored id is
// read back into the model.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now

	const query = `INSERT INTO grades (id, student_id, class_id, subject, score, term, school_id, created_at, updated_at)
		VALUES (:id, :student_id, :class_id, :subject, :score, :term, :school_id, :created_at, :updated_at)
		ON CONFLICT (student_id, class_id, subject, term, school_id)
		DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at
		RETURNING id`
	stmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	defer stmt.Close()

	if err := stmt.GetContext(ctx, &grade.ID, grade); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// List returns grades matching the filter within the filter's school.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error) {
	conditions := []string{"school_id = $1"}
	args := []interface{}{filter.SchoolID}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}

	query := fmt.Sprintf(`SELECT id, student_id, class_id, subject, score, term, school_id, created_at, updated_at
		FROM grades WHERE %s ORDER BY subject ASC, term ASC`, strings.Join(conditions, " AND "))

	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}
