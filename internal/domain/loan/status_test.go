package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lending-engine/internal/pkg/apperrors"
)

func TestDerivedStatus(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("pending and denied are returned as-is", func(t *testing.T) {
		l := testLoan(t, 10_000)
		l.Status = StatusPending
		assert.Equal(t, StatusPending, l.DerivedStatus(start.AddDate(0, 0, 30)))

		l.Status = StatusDenied
		assert.Equal(t, StatusDenied, l.DerivedStatus(start.AddDate(0, 0, 30)))
	})

	t.Run("approved loan behind schedule reads as overdue", func(t *testing.T) {
		l := testLoan(t, 10_000)
		assert.Equal(t, StatusOverdue, l.DerivedStatus(start.AddDate(0, 0, 10)))
	})

	t.Run("overdue clears once repayment catches up", func(t *testing.T) {
		l := testLoan(t, 10_000)
		assert.Equal(t, StatusOverdue, l.DerivedStatus(start.AddDate(0, 0, 10)))

		addPayment(l, 1_000, PaymentStatusApproved, start.AddDate(0, 0, 10))
		assert.Equal(t, StatusApproved, l.DerivedStatus(start.AddDate(0, 0, 10)))
	})

	t.Run("completion wins regardless of elapsed time", func(t *testing.T) {
		l := testLoan(t, 10_000)
		addPayment(l, 10_500, PaymentStatusApproved, start.AddDate(0, 0, 3))
		// Far past the expected end date; paid-off still beats overdue.
		assert.Equal(t, StatusCompleted, l.DerivedStatus(start.AddDate(0, 0, 500)))
	})

	t.Run("terminal statuses are never reclassified", func(t *testing.T) {
		l := testLoan(t, 10_000)
		l.Status = StatusCompleted
		assert.Equal(t, StatusCompleted, l.DerivedStatus(start.AddDate(0, 0, 200)))

		l.Status = StatusDenied
		assert.Equal(t, StatusDenied, l.DerivedStatus(start.AddDate(0, 0, 200)))
	})

	t.Run("not yet started loan is simply approved", func(t *testing.T) {
		l := testLoan(t, 10_000)
		assert.Equal(t, StatusApproved, l.DerivedStatus(start.AddDate(0, 0, -5)))
	})
}

func TestReview(t *testing.T) {
	t.Run("pending can be approved", func(t *testing.T) {
		l := testLoan(t, 10_000)
		l.Status = StatusPending
		assert.NoError(t, l.Review(true))
		assert.Equal(t, StatusApproved, l.Status)
	})

	t.Run("pending can be denied", func(t *testing.T) {
		l := testLoan(t, 10_000)
		l.Status = StatusPending
		assert.NoError(t, l.Review(false))
		assert.Equal(t, StatusDenied, l.Status)
	})

	t.Run("second decision is rejected", func(t *testing.T) {
		l := testLoan(t, 10_000)
		l.Status = StatusPending
		assert.NoError(t, l.Review(true))

		err := l.Review(false)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		assert.Equal(t, StatusApproved, l.Status)
	})
}
