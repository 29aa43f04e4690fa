package models

import "time"

// FeeRecord is the per-student, per-session fee aggregate. It is created
// once when tracking is first enabled, snapshotting the total from the fee
// structure active at that moment, and never deleted afterwards.
type FeeRecord struct {
	ID              string    `db:"id" json:"id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	SessionID       string    `db:"session_id" json:"session_id"`
	FeeStructureID  string    `db:"fee_structure_id" json:"fee_structure_id"`
	TotalAmount     int64     `db:"total_amount" json:"total_amount"`
	PaidAmount      int64     `db:"paid_amount" json:"paid_amount"`
	BalanceAmount   int64     `db:"balance_amount" json:"balance_amount"`
	TrackingEnabled bool      `db:"tracking_enabled" json:"tracking_enabled"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// EnablementResult reports the outcome of enabling monthly tracking for a
// single student within a batch request.
type EnablementResult struct {
	StudentID     string `json:"student_id"`
	FeeRecordID   string `json:"fee_record_id,omitempty"`
	RecordCreated bool   `json:"record_created"`
	MonthsCreated int    `json:"months_created"`
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
}
