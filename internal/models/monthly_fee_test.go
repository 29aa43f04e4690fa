package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyFeeStatus(t *testing.T) {
	due := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		paid   int64
		now    time.Time
		expect PaymentStatus
	}{
		{"unpaid before due date", 0, due.AddDate(0, 0, -5), StatusPending},
		{"unpaid on due date", 0, due, StatusPending},
		{"unpaid after due date", 0, due.AddDate(0, 0, 1), StatusOverdue},
		{"partial before due date", 400, due.AddDate(0, 0, -5), StatusPartial},
		{"partial after due date", 400, due.AddDate(0, 1, 0), StatusOverdue},
		{"fully paid", 1000, due.AddDate(0, 0, -5), StatusPaid},
		{"fully paid stays paid after due date", 1000, due.AddDate(0, 2, 0), StatusPaid},
		{"overpaid", 1200, due, StatusPaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := MonthlyFee{
				MonthlyAmount: 1000,
				PaidAmount:    tc.paid,
				BalanceAmount: 1000 - tc.paid,
				DueDate:       due,
			}
			assert.Equal(t, tc.expect, m.Status(tc.now))
		})
	}
}

func TestMonthlyFeeStatusIgnoresTimeOfDay(t *testing.T) {
	due := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)
	m := MonthlyFee{MonthlyAmount: 1000, DueDate: due}

	// Late on the due day is still not overdue; the comparison is by day.
	assert.Equal(t, StatusPending, m.Status(time.Date(2025, time.April, 10, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, StatusOverdue, m.Status(time.Date(2025, time.April, 11, 0, 1, 0, 0, time.UTC)))
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "April 2025", MonthLabel(4, 2025))
	assert.Equal(t, "December 2026", MonthLabel(12, 2026))
	assert.Equal(t, "unknown", MonthLabel(0, 2025))
	assert.Equal(t, "unknown", MonthLabel(13, 2025))

	m := MonthlyFee{Month: 8, Year: 2025}
	assert.Equal(t, "August 2025", m.Label())
}
