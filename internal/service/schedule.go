package service

import (
	"time"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
)

// ScheduleParams controls monthly schedule derivation.
type ScheduleParams struct {
	AnnualFee         int64
	StartMonth        int
	StartYear         int
	Count             int
	DueDay            int
	SessionStartMonth int
}

// BuildMonthlySchedule derives the per-month fee rows for a record.
//
// Each month carries annual/12 truncated to the smallest currency unit; the
// truncation residual is added to the final generated month so the schedule
// sums exactly to the record total. The calendar year wraps after December,
// and the academic ordinal counts from the session start month (April = 1
// for an April–March session).
func BuildMonthlySchedule(p ScheduleParams) []models.MonthlyFee {
	if p.Count <= 0 || p.AnnualFee < 0 {
		return nil
	}

	share := p.AnnualFee / 12
	residual := p.AnnualFee - share*12

	months := make([]models.MonthlyFee, 0, p.Count)
	month, year := p.StartMonth, p.StartYear
	for i := 0; i < p.Count; i++ {
		amount := share
		if i == p.Count-1 {
			amount += residual
		}
		months = append(months, models.MonthlyFee{
			Month:         month,
			Year:          year,
			AcademicMonth: academicOrdinal(month, p.SessionStartMonth),
			MonthlyAmount: amount,
			BalanceAmount: amount,
			DueDate:       time.Date(year, time.Month(month), p.DueDay, 0, 0, 0, 0, time.UTC),
		})
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return months
}

// ScheduleTotal is the amount a schedule built with the same parameters
// will sum to. Used to snapshot the record total for partial years.
func ScheduleTotal(annualFee int64, count int) int64 {
	if count <= 0 {
		return 0
	}
	share := annualFee / 12
	return share*int64(count) + (annualFee - share*12)
}

func academicOrdinal(month, sessionStartMonth int) int {
	return (month-sessionStartMonth+12)%12 + 1
}
