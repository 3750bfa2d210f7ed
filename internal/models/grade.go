package models

import "time"

// Grade is a recorded score for a student in a class subject.
// Writes upsert on the natural key (student_id, class_id, subject, term,
// school_id): a second write with the same key overwrites the score in
// place instead of duplicating the row.
type Grade struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Subject   string    `db:"subject" json:"subject"`
	Score     string    `db:"score" json:"score"`
	Term      string    `db:"term" json:"term,omitempty"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GradeFilter narrows grade listings; SchoolID is always set from the
// actor's verified claims, never from client input.
type GradeFilter struct {
	StudentID string
	ClassID   string
	Subject   string
	SchoolID  string
}
