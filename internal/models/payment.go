package models

import "time"

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "CASH"
	MethodCheque PaymentMethod = "CHEQUE"
	MethodOnline PaymentMethod = "ONLINE"
	MethodUPI    PaymentMethod = "UPI"
	MethodCard   PaymentMethod = "CARD"
)

// PaymentTransaction is one payment event against a fee record. Rows are
// append-only: once written they are never mutated or deleted.
type PaymentTransaction struct {
	ID          string        `db:"id" json:"id"`
	FeeRecordID string        `db:"fee_record_id" json:"fee_record_id"`
	Amount      int64         `db:"amount" json:"amount"`
	Method      PaymentMethod `db:"method" json:"method"`
	Reference   *string       `db:"reference" json:"reference,omitempty"`
	Remarks     string        `db:"remarks" json:"remarks,omitempty"`
	PaidAt      time.Time     `db:"paid_at" json:"paid_at"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// PaymentAllocation links part of a transaction to one monthly fee.
// Append-only, like the transaction it belongs to.
type PaymentAllocation struct {
	ID              string    `db:"id" json:"id"`
	TransactionID   string    `db:"transaction_id" json:"transaction_id"`
	MonthlyFeeID    string    `db:"monthly_fee_id" json:"monthly_fee_id"`
	AllocatedAmount int64     `db:"allocated_amount" json:"allocated_amount"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// AllocationLine is one month's share of a payment, reported back to the
// caller as part of the allocation breakdown.
type AllocationLine struct {
	MonthlyFeeID    string `db:"monthly_fee_id" json:"monthly_fee_id"`
	Month           int    `db:"month" json:"month"`
	Year            int    `db:"year" json:"year"`
	AllocatedAmount int64  `db:"allocated_amount" json:"allocated_amount"`
	BalanceAfter    int64  `db:"balance_after" json:"balance_after"`
}

// PaymentResult summarises how a payment was split across months. Any
// remainder that found no open month is reported, never silently dropped.
type PaymentResult struct {
	TransactionID        string           `json:"transaction_id"`
	AllocatedTotal       int64            `json:"allocated_total"`
	RemainingUnallocated int64            `json:"remaining_unallocated"`
	Breakdown            []AllocationLine `json:"breakdown"`
}

// CollectionEntry is one row of a session collection report.
type CollectionEntry struct {
	TransactionID string        `db:"transaction_id" json:"transaction_id"`
	StudentName   string        `db:"student_name" json:"student_name"`
	AdmissionNo   string        `db:"admission_no" json:"admission_no"`
	ClassID       string        `db:"class_id" json:"class_id"`
	Amount        int64         `db:"amount" json:"amount"`
	Method        PaymentMethod `db:"method" json:"method"`
	Reference     *string       `db:"reference" json:"reference,omitempty"`
	PaidAt        time.Time     `db:"paid_at" json:"paid_at"`
}

// ReceiptDetail combines a transaction with its allocations for receipts.
type ReceiptDetail struct {
	Transaction PaymentTransaction `json:"transaction"`
	StudentName string             `json:"student_name"`
	AdmissionNo string             `json:"admission_no"`
	SessionID   string             `json:"session_id"`
	Lines       []AllocationLine   `json:"lines"`
}
