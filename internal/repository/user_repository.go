package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vidyalay/school-saas-api/internal/models"
)

const userColumns = "id, email, password_hash, name, role, school_id, roll_number, class_ids, created_at, updated_at"

// UserRepository provides database access for user records across all
// roles (admins, teachers, students).
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ExistsByEmail reports whether another user already holds the email.
// Email uniqueness is global, not per tenant.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	const query = `SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, email, excludeID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check email existence: %w", err)
	}
	return true, nil
}

// ListBySchoolAndRole returns the users of a school holding the role.
func (r *UserRepository) ListBySchoolAndRole(ctx context.Context, schoolID string, role models.UserRole) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE school_id = $1 AND role = $2 ORDER BY name ASC`, userColumns)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, schoolID, role); err != nil {
		return nil, fmt.Errorf("list users by school and role: %w", err)
	}
	return users, nil
}

// NamesBySchoolAndRole returns the {id,name} projection for pickers.
func (r *UserRepository) NamesBySchoolAndRole(ctx context.Context, schoolID string, role models.UserRole) ([]models.NameRef, error) {
	const query = `SELECT id, name FROM users WHERE school_id = $1 AND role = $2 ORDER BY name ASC`
	var refs []models.NameRef
	if err := r.db.SelectContext(ctx, &refs, query, schoolID, role); err != nil {
		return nil, fmt.Errorf("list user names: %w", err)
	}
	return refs, nil
}

// Create inserts a new user and returns the stored record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, password_hash, name, role, school_id, roll_number, class_ids, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :name, :role, :school_id, :roll_number, :class_ids, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update persists the mutable fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET email = :email, password_hash = :password_hash, name = :name, roll_number = :roll_number, class_ids = :class_ids, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// Delete removes the user record. There is no cascade: classes keep any
// reference to a deleted teacher.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
