package models

import "time"

// FeeStructure is the annual fee definition for a class within a session.
// Exactly one active structure exists per (class, session); it is maintained
// by the admin workflow and read-only to the fee engine. All amounts are in
// the smallest currency unit.
type FeeStructure struct {
	ID             string    `db:"id" json:"id"`
	ClassID        string    `db:"class_id" json:"class_id"`
	SessionID      string    `db:"session_id" json:"session_id"`
	TuitionFee     int64     `db:"tuition_fee" json:"tuition_fee"`
	DevelopmentFee int64     `db:"development_fee" json:"development_fee"`
	ActivityFee    int64     `db:"activity_fee" json:"activity_fee"`
	TransportFee   int64     `db:"transport_fee" json:"transport_fee"`
	LibraryFee     int64     `db:"library_fee" json:"library_fee"`
	ExamFee        int64     `db:"exam_fee" json:"exam_fee"`
	OtherFee       int64     `db:"other_fee" json:"other_fee"`
	TotalAnnualFee int64     `db:"total_annual_fee" json:"total_annual_fee"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ComponentSum adds up the declared fee components. TotalAnnualFee normally
// equals this sum unless the admin explicitly overrode the total.
func (f *FeeStructure) ComponentSum() int64 {
	return f.TuitionFee + f.DevelopmentFee + f.ActivityFee + f.TransportFee + f.LibraryFee + f.ExamFee + f.OtherFee
}

// FeeStructureFilter narrows fee structure listings.
type FeeStructureFilter struct {
	ClassID   string
	SessionID string
	Active    *bool
}
