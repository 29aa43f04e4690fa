package models

import (
	"strconv"
	"time"
)

// PaymentStatus is the derived state of a monthly fee. It is computed at
// read time from the primitive amounts and the due date, never persisted as
// an authoritative column: OVERDUE can be reached purely by time passing.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "PENDING"
	StatusPartial PaymentStatus = "PARTIAL"
	StatusPaid    PaymentStatus = "PAID"
	StatusOverdue PaymentStatus = "OVERDUE"
)

// MonthlyFee is a single month's due within a fee record. Exactly one row
// exists per (fee record, month, year); that uniqueness is the idempotency
// guard for schedule generation.
type MonthlyFee struct {
	ID            string    `db:"id" json:"id"`
	FeeRecordID   string    `db:"fee_record_id" json:"fee_record_id"`
	Month         int       `db:"month" json:"month"`
	Year          int       `db:"year" json:"year"`
	AcademicMonth int       `db:"academic_month" json:"academic_month"`
	MonthlyAmount int64     `db:"monthly_amount" json:"monthly_amount"`
	PaidAmount    int64     `db:"paid_amount" json:"paid_amount"`
	BalanceAmount int64     `db:"balance_amount" json:"balance_amount"`
	DueDate       time.Time `db:"due_date" json:"due_date"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Status derives the payment state of the month as of the given instant.
func (m *MonthlyFee) Status(now time.Time) PaymentStatus {
	switch {
	case m.PaidAmount >= m.MonthlyAmount:
		return StatusPaid
	case m.DueDate.Before(truncateToDay(now)):
		return StatusOverdue
	case m.PaidAmount > 0:
		return StatusPartial
	default:
		return StatusPending
	}
}

// Label renders the month in a human readable form, e.g. "April 2025".
func (m *MonthlyFee) Label() string {
	return MonthLabel(m.Month, m.Year)
}

// MonthKey identifies a calendar month within a fee record's schedule.
type MonthKey struct {
	Month int `json:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" validate:"required,min=2000,max=2100"`
}

// MonthLabel renders a (month, year) pair, e.g. "August 2025".
func MonthLabel(month, year int) string {
	if month < 1 || month > 12 {
		return "unknown"
	}
	return time.Month(month).String() + " " + strconv.Itoa(year)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
