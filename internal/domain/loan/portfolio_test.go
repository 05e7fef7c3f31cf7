package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarizePortfolio(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	today := start.AddDate(0, 0, 5)

	buildLoan := func(cashierID string, amount Money) *Loan {
		l, err := NewLoan("u-"+cashierID, "Borrower", cashierID, amount, DefaultPolicy(), start)
		assert.NoError(t, err)
		l.Status = StatusApproved
		return l
	}

	t.Run("scoped totals exclude every other cashier's loans", func(t *testing.T) {
		loanA1 := buildLoan("cashier-a", 10_000) // daily 100
		loanA2 := buildLoan("cashier-a", 5_000)  // daily 50
		loanB := buildLoan("cashier-b", 20_000)  // daily 200

		addPayment(loanA1, 100, PaymentStatusApproved, today.Add(9*time.Hour))
		addPayment(loanA1, 40, PaymentStatusPending, today.Add(10*time.Hour))
		addPayment(loanA2, 60, PaymentStatusPending, today.Add(11*time.Hour))
		addPayment(loanB, 200, PaymentStatusApproved, today.Add(12*time.Hour))
		addPayment(loanB, 500, PaymentStatusPending, today.Add(13*time.Hour))

		all := []*Loan{loanA1, loanA2, loanB}

		scoped := SummarizePortfolio(all, "cashier-a", today)
		assert.Equal(t, 2, scoped.TotalLoans)
		assert.Equal(t, 150.0, scoped.TotalDailyExpected)
		assert.Equal(t, 100.0, scoped.TodayCollected)
		assert.Equal(t, 100.0, scoped.PendingApprovalAmount)

		unscoped := SummarizePortfolio(all, "", today)
		assert.Equal(t, 3, unscoped.TotalLoans)
		assert.Equal(t, 350.0, unscoped.TotalDailyExpected)
		assert.Equal(t, 300.0, unscoped.TodayCollected)
		assert.Equal(t, 600.0, unscoped.PendingApprovalAmount)
	})

	t.Run("terminal loans drop out of the daily expectation", func(t *testing.T) {
		active := buildLoan("cashier-a", 10_000)
		done := buildLoan("cashier-a", 5_000)
		addPayment(done, 5_250, PaymentStatusApproved, start.AddDate(0, 0, 1))
		denied := buildLoan("cashier-a", 8_000)
		denied.Status = StatusDenied

		summary := SummarizePortfolio([]*Loan{active, done, denied}, "cashier-a", start.AddDate(0, 0, 1))
		assert.Equal(t, 3, summary.TotalLoans)
		assert.Equal(t, 100.0, summary.TotalDailyExpected)
	})

	t.Run("payments from other days never count as today", func(t *testing.T) {
		l := buildLoan("cashier-a", 10_000)
		addPayment(l, 100, PaymentStatusApproved, today.AddDate(0, 0, -1))
		addPayment(l, 200, PaymentStatusApproved, today)

		summary := SummarizePortfolio([]*Loan{l}, "cashier-a", today)
		assert.Equal(t, 200.0, summary.TodayCollected)
	})

	t.Run("empty portfolio", func(t *testing.T) {
		summary := SummarizePortfolio(nil, "cashier-a", today)
		assert.Equal(t, PortfolioSummary{}, summary)
	})
}
