package models

import "time"

// Student represents a learner as seen by the fee engine. Student CRUD is
// owned by the admissions module; this service only reads the directory.
type Student struct {
	ID          string     `db:"id" json:"id"`
	AdmissionNo string     `db:"admission_no" json:"admission_no"`
	FullName    string     `db:"full_name" json:"full_name"`
	ClassID     string     `db:"class_id" json:"class_id"`
	SessionID   string     `db:"session_id" json:"session_id"`
	Active      bool       `db:"active" json:"active"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Eligible reports whether the student participates in fee operations.
// Soft-deleted and inactive students are excluded from every batch.
func (s *Student) Eligible() bool {
	return s.Active && s.DeletedAt == nil
}
