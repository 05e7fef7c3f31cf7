package loan

import (
	"context"
)

// Repository is the persistence boundary for loans and their ledgers.
// Implementations must return apperrors sentinels: ErrNotFound for
// missing rows, ErrAlreadyExists for loan-code collisions and
// ErrInvalidState when a compare-and-set finds the payment no longer
// PENDING.
type Repository interface {
	CreateLoan(ctx context.Context, l *Loan) (*Loan, error)
	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)
	GetLoanByBorrower(ctx context.Context, borrowerID string) (*Loan, error)
	ListLoans(ctx context.Context, assignedCashierID string) ([]*Loan, error)
	ListActiveLoanIDs(ctx context.Context) ([]int64, error)

	InsertPayment(ctx context.Context, p *Payment) (*Payment, error)
	GetPaymentByID(ctx context.Context, paymentID string) (*Payment, error)

	// ApprovePayment flips PENDING -> APPROVED atomically. Exactly one of
	// two concurrent approvals succeeds; the loser sees ErrInvalidState.
	ApprovePayment(ctx context.Context, paymentID string) error

	UpdateLoanStatus(ctx context.Context, loanID int64, status LoanStatus) error

	// UpdateLoanSchedule persists all schedule-derived fields of l in a
	// single statement so readers never observe a partial revision.
	UpdateLoanSchedule(ctx context.Context, l *Loan) error
}
