package loan

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"lending-engine/internal/pkg/apperrors"
)

const (
	DefaultDeductionRate = 0.10
	DefaultDailyRate     = 0.01
	DefaultTermDays      = 105
)

type Money = float64

type LoanStatus string

const (
	StatusPending   LoanStatus = "PENDING"
	StatusApproved  LoanStatus = "APPROVED"
	StatusDenied    LoanStatus = "DENIED"
	StatusCompleted LoanStatus = "COMPLETED"
	StatusOverdue   LoanStatus = "OVERDUE"
)

// Terminal reports whether a loan in this status can never change again.
// OVERDUE is deliberately not terminal: it is an alert view over an
// APPROVED loan and clears once repayment catches up.
func (s LoanStatus) Terminal() bool {
	return s == StatusDenied || s == StatusCompleted
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusApproved PaymentStatus = "APPROVED"
)

// Policy holds the cooperative-wide schedule parameters. The deduction
// rate is configured once and applied to both creation and revision so
// a loan can never see two different rates.
type Policy struct {
	DeductionRate float64
	DailyRate     float64
	TermDays      int
}

func DefaultPolicy() Policy {
	return Policy{
		DeductionRate: DefaultDeductionRate,
		DailyRate:     DefaultDailyRate,
		TermDays:      DefaultTermDays,
	}
}

func (p Policy) Validate() error {
	if p.DeductionRate < 0 || p.DeductionRate >= 1 {
		return fmt.Errorf("%w: deduction rate must be in [0,1)", apperrors.ErrInvalidArgument)
	}
	if p.DailyRate <= 0 {
		return fmt.Errorf("%w: daily rate must be positive", apperrors.ErrInvalidArgument)
	}
	if p.TermDays <= 0 {
		return fmt.Errorf("%w: term days must be positive", apperrors.ErrInvalidArgument)
	}
	return nil
}

type Loan struct {
	ID                int64
	Code              string
	BorrowerID        string
	BorrowerName      string
	AssignedCashierID string
	RequestedAmount   Money
	DeductionRate     float64
	DeductionAmount   Money
	DisbursedAmount   Money
	DailyPayment      Money
	TotalPayable      Money
	TermDays          int
	StartDate         time.Time
	ExpectedEndDate   time.Time
	Status            LoanStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Payments          []Payment
}

type Payment struct {
	ID         string
	LoanID     int64
	Amount     Money
	RecordedBy string
	PaidAt     time.Time
	Status     PaymentStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewLoan computes the full repayment schedule for a requested amount.
// Given identical inputs it always produces identical schedule fields;
// only the generated loan code differs between calls.
func NewLoan(borrowerID, borrowerName, cashierID string, requested Money, policy Policy, startDate time.Time) (*Loan, error) {
	if requested <= 0 {
		return nil, fmt.Errorf("%w: requested amount must be positive", apperrors.ErrValidation)
	}
	if strings.TrimSpace(borrowerID) == "" {
		return nil, fmt.Errorf("%w: borrower id is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(cashierID) == "" {
		return nil, fmt.Errorf("%w: assigned cashier is required", apperrors.ErrValidation)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if startDate.IsZero() {
		startDate = time.Now()
	}

	l := &Loan{
		Code:              NewLoanCode(),
		BorrowerID:        borrowerID,
		BorrowerName:      borrowerName,
		AssignedCashierID: cashierID,
		RequestedAmount:   requested,
		DeductionRate:     policy.DeductionRate,
		TermDays:          policy.TermDays,
		StartDate:         startDate,
		Status:            StatusPending,
	}
	l.applySchedule(policy)

	if math.Abs(l.DeductionAmount+l.DisbursedAmount-l.RequestedAmount) > 0.01 {
		return nil, fmt.Errorf("%w: schedule failed sanity check - deduction %.2f + disbursed %.2f != requested %.2f",
			apperrors.ErrInternalServer, l.DeductionAmount, l.DisbursedAmount, l.RequestedAmount)
	}

	return l, nil
}

// applySchedule recomputes every schedule-derived field from the
// requested amount. Revisions go through here too so the four dependent
// money fields always change as one unit.
func (l *Loan) applySchedule(policy Policy) {
	l.DeductionRate = policy.DeductionRate
	l.TermDays = policy.TermDays
	l.DeductionAmount = roundTo(l.RequestedAmount*policy.DeductionRate, 2)
	l.DisbursedAmount = roundTo(l.RequestedAmount-l.DeductionAmount, 2)
	l.DailyPayment = roundTo(l.RequestedAmount*policy.DailyRate, 2)
	l.TotalPayable = roundTo(l.DailyPayment*float64(policy.TermDays), 2)
	l.ExpectedEndDate = l.StartDate.AddDate(0, 0, policy.TermDays)
}

// Revise replaces the schedule for a new requested amount. Terminal
// loans cannot be revised.
func (l *Loan) Revise(requested Money, policy Policy) error {
	if l.Status.Terminal() {
		return fmt.Errorf("%w: cannot revise a %s loan", apperrors.ErrInvalidState, l.Status)
	}
	if requested <= 0 {
		return fmt.Errorf("%w: requested amount must be positive", apperrors.ErrValidation)
	}
	if err := policy.Validate(); err != nil {
		return err
	}
	l.RequestedAmount = requested
	l.applySchedule(policy)
	return nil
}

// NewLoanCode returns a human-readable LOAN-###### code. Randomness is
// not trusted for uniqueness; the repository's unique constraint is, and
// callers retry on collision.
func NewLoanCode() string {
	return fmt.Sprintf("LOAN-%06d", 100000+rand.IntN(900000))
}

// roundTo rounds through decimal so repeated schedule recomputation
// cannot accumulate binary float drift in the stored money columns.
func roundTo(n float64, decimals int) float64 {
	return decimal.NewFromFloat(n).Round(int32(decimals)).InexactFloat64()
}
