package models

import "time"

// Class represents an academic class or section within a school.
// TeacherID must reference a user with role=teacher in the same school;
// the reference is validated on every create and update. Deleting the
// teacher afterwards does not cascade, so a stored class may hold a
// dangling teacher id.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with the resolved teacher name for responses.
type ClassDetail struct {
	Class
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
}
