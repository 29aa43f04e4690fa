package models

import "time"

// MonthlyFeeStatus is one month of the per-student breakdown with its
// derived state attached.
type MonthlyFeeStatus struct {
	MonthlyFee
	StatusLabel PaymentStatus `json:"status"`
}

// FeeSummary is the aggregate fee position of a student for a session.
// Everything here is computed from the fee record and its months; the
// summary itself is never the source of truth.
type FeeSummary struct {
	StudentID            string             `json:"student_id"`
	StudentName          string             `json:"student_name,omitempty"`
	AdmissionNo          string             `json:"admission_no,omitempty"`
	SessionID            string             `json:"session_id"`
	FeeRecordID          string             `json:"fee_record_id"`
	TotalAnnualFee       int64              `json:"total_annual_fee"`
	TotalPaid            int64              `json:"total_paid"`
	TotalBalance         int64              `json:"total_balance"`
	MonthsPaid           int                `json:"months_paid"`
	MonthsPending        int                `json:"months_pending"`
	MonthsPartial        int                `json:"months_partial"`
	MonthsOverdue        int                `json:"months_overdue"`
	CollectionPercentage float64            `json:"collection_percentage"`
	Months               []MonthlyFeeStatus `json:"months,omitempty"`
	ComputedAt           time.Time          `json:"computed_at"`
}

// SummaryFilter narrows bulk summary listings.
type SummaryFilter struct {
	SessionID string
	ClassID   string
	Page      int
	PageSize  int
}
