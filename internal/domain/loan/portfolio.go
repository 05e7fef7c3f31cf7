package loan

import "time"

// PortfolioSummary is the dashboard rollup for a set of loans.
type PortfolioSummary struct {
	TotalLoans            int
	TotalDailyExpected    Money
	TodayCollected        Money
	PendingApprovalAmount Money
}

// SummarizePortfolio aggregates loans into dashboard statistics as of
// today. When assignedCashierID is non-empty the scope filter is applied
// before any accumulation, so a scoped caller never observes unscoped
// totals, not even transiently.
func SummarizePortfolio(loans []*Loan, assignedCashierID string, today time.Time) PortfolioSummary {
	inScope := loans
	if assignedCashierID != "" {
		inScope = make([]*Loan, 0, len(loans))
		for _, l := range loans {
			if l.AssignedCashierID == assignedCashierID {
				inScope = append(inScope, l)
			}
		}
	}

	var summary PortfolioSummary
	summary.TotalLoans = len(inScope)

	for _, l := range inScope {
		if !l.DerivedStatus(today).Terminal() {
			summary.TotalDailyExpected += l.DailyPayment
		}
		summary.TodayCollected += l.PaidOn(today)

		for _, p := range l.Payments {
			if p.Status == PaymentStatusPending {
				summary.PendingApprovalAmount += p.Amount
			}
		}
	}

	summary.TotalDailyExpected = roundTo(summary.TotalDailyExpected, 2)
	summary.TodayCollected = roundTo(summary.TodayCollected, 2)
	summary.PendingApprovalAmount = roundTo(summary.PendingApprovalAmount, 2)
	return summary
}
