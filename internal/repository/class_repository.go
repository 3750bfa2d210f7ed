package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vidyalay/school-saas-api/internal/models"
)

// ClassRepository provides database access for class records.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new instance of ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID returns a class by identifier.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, teacher_id, school_id, created_at, updated_at FROM classes WHERE id = $1 LIMIT 1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class by id: %w", err)
	}
	return &class, nil
}

// ListBySchool returns a school's classes with the teacher name resolved.
// The join is left outer: a class referencing a deleted teacher still
// lists, with a null teacher name.
func (r *ClassRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.ClassDetail, error) {
	const query = `SELECT c.id, c.name, c.teacher_id, c.school_id, c.created_at, c.updated_at, u.name AS teacher_name
		FROM classes c
		LEFT JOIN users u ON u.id = c.teacher_id
		WHERE c.school_id = $1
		ORDER BY c.name ASC`
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, schoolID); err != nil {
		return nil, fmt.Errorf("list classes by school: %w", err)
	}
	return classes, nil
}

// Names returns the {id,name} projection of a school's classes.
func (r *ClassRepository) Names(ctx context.Context, schoolID string) ([]models.NameRef, error) {
	const query = `SELECT id, name FROM classes WHERE school_id = $1 ORDER BY name ASC`
	var refs []models.NameRef
	if err := r.db.SelectContext(ctx, &refs, query, schoolID); err != nil {
		return nil, fmt.Errorf("list class names: %w", err)
	}
	return refs, nil
}

// CountInSchool returns how many of the given class ids exist in the
// school. Callers compare against len(ids) to validate membership lists.
func (r *ClassRepository) CountInSchool(ctx context.Context, schoolID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `SELECT COUNT(*) FROM classes WHERE school_id = $1 AND id = ANY($2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, schoolID, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("count classes in school: %w", err)
	}
	return count, nil
}

// Create inserts a new class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO classes (id, name, teacher_id, school_id, created_at, updated_at)
		VALUES (:id, :name, :teacher_id, :school_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update persists mutable class fields.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, teacher_id = :teacher_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Delete removes the class record.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM classes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}
