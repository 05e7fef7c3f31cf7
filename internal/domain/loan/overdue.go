package loan

import (
	"math"
	"time"
)

// Progress compares elapsed calendar time against recorded repayment
// progress as of a reference date.
type Progress struct {
	ReferenceDate    time.Time
	DaysElapsed      int
	DaysExpectedPaid int

	// UnpaidDays > 0 means the borrower is behind by that many daily
	// payments, < 0 ahead of schedule, 0 on track.
	UnpaidDays int
}

func (p Progress) Behind() bool  { return p.UnpaidDays > 0 }
func (p Progress) Ahead() bool   { return p.UnpaidDays < 0 }
func (p Progress) OnTrack() bool { return p.UnpaidDays == 0 }

// ProgressAt evaluates repayment adherence as of ref. Both endpoints
// are moved to ref's location and truncated to midnight before
// subtraction so day counts stay integral regardless of time-of-day,
// DST or UTC-offset differences. ref may be any past or future date;
// DaysElapsed goes negative when ref precedes the start.
func (l *Loan) ProgressAt(ref time.Time) Progress {
	start := truncateToDay(l.StartDate.In(ref.Location()))
	asOf := truncateToDay(ref)

	// Rounding absorbs the 23h/25h days a DST transition leaves between
	// two midnights.
	daysElapsed := int(math.Round(asOf.Sub(start).Hours() / 24))
	daysExpectedPaid := l.TermDays - l.RemainingDays()

	return Progress{
		ReferenceDate:    asOf,
		DaysElapsed:      daysElapsed,
		DaysExpectedPaid: daysExpectedPaid,
		UnpaidDays:       daysElapsed - daysExpectedPaid,
	}
}

// PaidOn sums approved payment amounts recorded on the same calendar
// date as ref, in ref's location.
func (l *Loan) PaidOn(ref time.Time) Money {
	day := truncateToDay(ref)
	var total Money
	for _, p := range l.Payments {
		if p.Status != PaymentStatusApproved {
			continue
		}
		if truncateToDay(p.PaidAt.In(ref.Location())).Equal(day) {
			total += p.Amount
		}
	}
	return roundTo(total, 2)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
