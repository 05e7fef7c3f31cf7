package loan

import "math"

// Balance is the point-in-time financial view derived from the ledger.
// Nothing in here is ever stored; it is recomputed from the payments on
// every read so it cannot drift from the ledger.
type Balance struct {
	Paid    Money
	Pending Money

	// Outstanding is the authoritative unpaid figure: totalPayable minus
	// approved payments.
	Outstanding Money

	// ScheduleOutstanding is the legacy display figure shown in the loan
	// table: remainingDays x dailyPayment. It only matches Outstanding
	// while payments track the schedule exactly.
	ScheduleOutstanding Money

	Complete bool
}

func (l *Loan) Balance() Balance {
	var paid, pending Money
	for _, p := range l.Payments {
		switch p.Status {
		case PaymentStatusApproved:
			paid += p.Amount
		case PaymentStatusPending:
			pending += p.Amount
		}
	}
	paid = roundTo(paid, 2)
	pending = roundTo(pending, 2)

	outstanding := roundTo(l.TotalPayable-paid, 2)
	if outstanding < 0 {
		outstanding = 0
	}

	return Balance{
		Paid:                paid,
		Pending:             pending,
		Outstanding:         outstanding,
		ScheduleOutstanding: roundTo(float64(l.RemainingDays())*l.DailyPayment, 2),
		Complete:            paid >= l.TotalPayable,
	}
}

// RemainingDays is derived from recorded progress: how many scheduled
// daily payments are not yet covered by approved amounts. It is never
// stored or decremented by a clock.
func (l *Loan) RemainingDays() int {
	if l.DailyPayment <= 0 {
		return l.TermDays
	}
	var paid Money
	for _, p := range l.Payments {
		if p.Status == PaymentStatusApproved {
			paid += p.Amount
		}
	}
	covered := int(math.Floor(paid / l.DailyPayment))
	if covered < 0 {
		covered = 0
	}
	if covered > l.TermDays {
		covered = l.TermDays
	}
	return l.TermDays - covered
}
