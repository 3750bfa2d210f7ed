package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for access control.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
// SchoolID is the tenant binding: optional for admins, required for
// teachers and students. RollNumber and ClassIDs only apply to students.
type User struct {
	ID           string         `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Name         string         `db:"name" json:"name"`
	Role         UserRole       `db:"role" json:"role"`
	SchoolID     *string        `db:"school_id" json:"school_id,omitempty"`
	RollNumber   *string        `db:"roll_number" json:"roll_number,omitempty"`
	ClassIDs     pq.StringArray `db:"class_ids" json:"class_ids,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// InSchool reports whether the user belongs to the given school.
func (u *User) InSchool(schoolID string) bool {
	return u.SchoolID != nil && *u.SchoolID == schoolID
}

// NameRef is a minimal {id,name} projection used to populate selection UIs.
type NameRef struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
