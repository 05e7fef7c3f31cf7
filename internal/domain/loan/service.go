package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

// loanCodeAttempts bounds the collision-retry loop on loan creation.
const loanCodeAttempts = 5

type CreateLoanInput struct {
	BorrowerID        string
	BorrowerName      string
	AssignedCashierID string
	RequestedAmount   Money
	StartDate         time.Time
}

type LoanService interface {
	CreateLoan(ctx context.Context, input CreateLoanInput) (*Loan, error)

	GetLoan(ctx context.Context, loanID int64, asOf time.Time) (*Loan, error)

	GetBorrowerLoan(ctx context.Context, borrowerID string, asOf time.Time) (*Loan, error)

	ListLoans(ctx context.Context, assignedCashierID string, asOf time.Time) ([]*Loan, error)

	RecordPayment(ctx context.Context, loanID int64, amount Money, recordedBy string, role Role) (*Payment, error)

	ApprovePayment(ctx context.Context, paymentID string, role Role) (*Payment, error)

	ReviewLoan(ctx context.Context, loanID int64, approve bool, role Role) (*Loan, error)

	ReviseSchedule(ctx context.Context, loanID int64, requested Money, role Role) (*Loan, error)

	PortfolioSummary(ctx context.Context, assignedCashierID string, asOf time.Time) (PortfolioSummary, error)
}

type loanServiceImpl struct {
	repo   Repository
	policy Policy
	pub    event.Publisher
	logger *slog.Logger
}

func NewLoanService(r Repository, policy Policy, pub event.Publisher, logger *slog.Logger) (LoanService, error) {
	if r == nil {
		panic("loan repository cannot be nil")
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid loan policy: %w", err)
	}
	return &loanServiceImpl{
		repo:   r,
		policy: policy,
		pub:    pub,
		logger: logger.With("component", "LoanService"),
	}, nil
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, input CreateLoanInput) (*Loan, error) {
	s.logger.InfoContext(ctx, "Creating new loan", "borrowerID", input.BorrowerID, "amount", input.RequestedAmount)

	newLoan, err := NewLoan(input.BorrowerID, input.BorrowerName, input.AssignedCashierID,
		input.RequestedAmount, s.policy, input.StartDate)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build loan schedule", "error", err)
		return nil, err
	}

	var created *Loan
	for attempt := 1; ; attempt++ {
		created, err = s.repo.CreateLoan(ctx, newLoan)
		if err == nil {
			break
		}
		if errors.Is(err, apperrors.ErrAlreadyExists) && attempt < loanCodeAttempts {
			s.logger.WarnContext(ctx, "Loan code collision, retrying with a fresh code",
				"code", newLoan.Code, "attempt", attempt)
			newLoan.Code = NewLoanCode()
			continue
		}
		s.logger.ErrorContext(ctx, "Failed to save loan", "error", err)
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}

	monitoring.RecordLoanCreated()
	s.publishLoanCreated(ctx, created)
	s.logger.InfoContext(ctx, "Loan created successfully", "loanID", created.ID, "code", created.Code)
	return created, nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64, asOf time.Time) (*Loan, error) {
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", "loanID", loanID, "error", err)
		return nil, err
	}
	l.Status = l.DerivedStatus(asOf)
	return l, nil
}

func (s *loanServiceImpl) GetBorrowerLoan(ctx context.Context, borrowerID string, asOf time.Time) (*Loan, error) {
	l, err := s.repo.GetLoanByBorrower(ctx, borrowerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Borrower has no loan", "borrowerID", borrowerID)
			return nil, fmt.Errorf("%w: no loan for borrower %s", apperrors.ErrNotFound, borrowerID)
		}
		s.logger.ErrorContext(ctx, "Failed to get borrower loan", "borrowerID", borrowerID, "error", err)
		return nil, err
	}
	l.Status = l.DerivedStatus(asOf)
	return l, nil
}

func (s *loanServiceImpl) ListLoans(ctx context.Context, assignedCashierID string, asOf time.Time) ([]*Loan, error) {
	loans, err := s.repo.ListLoans(ctx, assignedCashierID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans", "error", err)
		return nil, err
	}
	for _, l := range loans {
		l.Status = l.DerivedStatus(asOf)
	}
	return loans, nil
}

func (s *loanServiceImpl) RecordPayment(ctx context.Context, loanID int64, amount Money, recordedBy string, role Role) (p *Payment, err error) {
	defer func() {
		status := "success"
		switch {
		case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInvalidPaymentAmount):
			status = "failure_amount"
		case errors.Is(err, apperrors.ErrNotFound):
			status = "failure_not_found"
		case err != nil:
			status = "failure_internal"
		}
		monitoring.RecordPayment(status)
	}()

	if amount <= 0 {
		s.logger.ErrorContext(ctx, "Invalid payment amount", "loanID", loanID, "amount", amount)
		return nil, fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrValidation)
	}

	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Cannot record payment, loan not found", "loanID", loanID)
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to load loan for payment", "loanID", loanID, "error", err)
		return nil, err
	}

	now := time.Now()
	payment := &Payment{
		ID:         uuid.NewString(),
		LoanID:     l.ID,
		Amount:     amount,
		RecordedBy: recordedBy,
		PaidAt:     now,
		Status:     PaymentStatusPending,
	}
	// Reconciliation staff post pre-approved payments; collection staff
	// submit for review.
	if role.PostsApprovedPayments() {
		payment.Status = PaymentStatusApproved
	}

	created, err := s.repo.InsertPayment(ctx, payment)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert payment", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if created.Status == PaymentStatusApproved {
		s.publishPaymentApproved(ctx, created)
	}
	s.logger.InfoContext(ctx, "Payment recorded", "loanID", loanID,
		"paymentID", created.ID, "amount", amount, "status", created.Status)
	return created, nil
}

func (s *loanServiceImpl) ApprovePayment(ctx context.Context, paymentID string, role Role) (p *Payment, err error) {
	defer func() {
		status := "success"
		switch {
		case errors.Is(err, apperrors.ErrForbidden):
			status = "failure_forbidden"
		case errors.Is(err, apperrors.ErrInvalidState):
			status = "failure_already_approved"
		case errors.Is(err, apperrors.ErrNotFound):
			status = "failure_not_found"
		case err != nil:
			status = "failure_internal"
		}
		monitoring.RecordPaymentApproval(status)
	}()

	if !role.CanApprovePayments() {
		s.logger.WarnContext(ctx, "Actor lacks payment approval capability", "paymentID", paymentID, "role", role)
		return nil, fmt.Errorf("%w: role %s cannot approve payments", apperrors.ErrForbidden, role)
	}

	if err := s.repo.ApprovePayment(ctx, paymentID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			s.logger.WarnContext(ctx, "Payment not found for approval", "paymentID", paymentID)
			return nil, fmt.Errorf("%w: payment %s not found", apperrors.ErrNotFound, paymentID)
		case errors.Is(err, apperrors.ErrInvalidState):
			s.logger.WarnContext(ctx, "Payment already approved", "paymentID", paymentID)
			return nil, fmt.Errorf("%w: payment %s is already approved", apperrors.ErrInvalidState, paymentID)
		}
		s.logger.ErrorContext(ctx, "Failed to approve payment", "paymentID", paymentID, "error", err)
		return nil, err
	}

	approved, err := s.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Approved payment but failed to reload it", "paymentID", paymentID, "error", err)
		return nil, err
	}

	s.publishPaymentApproved(ctx, approved)
	s.logger.InfoContext(ctx, "Payment approved", "paymentID", paymentID, "loanID", approved.LoanID)
	return approved, nil
}

func (s *loanServiceImpl) ReviewLoan(ctx context.Context, loanID int64, approve bool, role Role) (*Loan, error) {
	if !role.CanReviewLoans() {
		s.logger.WarnContext(ctx, "Actor lacks loan review capability", "loanID", loanID, "role", role)
		return nil, fmt.Errorf("%w: role %s cannot review loans", apperrors.ErrForbidden, role)
	}

	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		return nil, err
	}

	oldStatus := l.Status
	if err := l.Review(approve); err != nil {
		s.logger.WarnContext(ctx, "Loan review rejected", "loanID", loanID, "error", err)
		return nil, err
	}

	if err := s.repo.UpdateLoanStatus(ctx, loanID, l.Status); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist review decision", "loanID", loanID, "error", err)
		return nil, err
	}

	s.publishStatusChanged(ctx, l, oldStatus)
	s.logger.InfoContext(ctx, "Loan reviewed", "loanID", loanID, "decision", l.Status)
	return l, nil
}

func (s *loanServiceImpl) ReviseSchedule(ctx context.Context, loanID int64, requested Money, role Role) (*Loan, error) {
	if !role.CanReviseSchedule() {
		s.logger.WarnContext(ctx, "Actor lacks schedule revision capability", "loanID", loanID, "role", role)
		return nil, fmt.Errorf("%w: role %s cannot revise loan schedules", apperrors.ErrForbidden, role)
	}

	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		return nil, err
	}

	if err := l.Revise(requested, s.policy); err != nil {
		s.logger.WarnContext(ctx, "Schedule revision rejected", "loanID", loanID, "error", err)
		return nil, err
	}

	if err := s.repo.UpdateLoanSchedule(ctx, l); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist schedule revision", "loanID", loanID, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Loan schedule revised", "loanID", loanID, "requestedAmount", requested)
	return l, nil
}

func (s *loanServiceImpl) PortfolioSummary(ctx context.Context, assignedCashierID string, asOf time.Time) (PortfolioSummary, error) {
	loans, err := s.repo.ListLoans(ctx, assignedCashierID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load loans for portfolio summary", "error", err)
		return PortfolioSummary{}, err
	}
	// The repository already scoped the query; the aggregator applies the
	// same filter again so an unscoped repository can never leak totals.
	return SummarizePortfolio(loans, assignedCashierID, asOf), nil
}

// Event publication is advisory; a broker outage never fails the
// business operation.
func (s *loanServiceImpl) publishLoanCreated(ctx context.Context, l *Loan) {
	if s.pub == nil {
		return
	}
	e := event.LoanCreatedEvent{
		LoanID:          l.ID,
		LoanCode:        l.Code,
		BorrowerID:      l.BorrowerID,
		RequestedAmount: l.RequestedAmount,
		TotalPayable:    l.TotalPayable,
		Timestamp:       time.Now(),
	}
	if err := s.pub.PublishLoanCreated(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish loan created event", "loanID", l.ID, "error", err)
	}
}

func (s *loanServiceImpl) publishPaymentApproved(ctx context.Context, p *Payment) {
	if s.pub == nil {
		return
	}
	e := event.PaymentApprovedEvent{
		PaymentID: p.ID,
		LoanID:    p.LoanID,
		Amount:    p.Amount,
		Timestamp: time.Now(),
	}
	if err := s.pub.PublishPaymentApproved(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish payment approved event", "paymentID", p.ID, "error", err)
	}
}

func (s *loanServiceImpl) publishStatusChanged(ctx context.Context, l *Loan, oldStatus LoanStatus) {
	if s.pub == nil || oldStatus == l.Status {
		return
	}
	e := event.LoanStatusChangedEvent{
		LoanID:    l.ID,
		LoanCode:  l.Code,
		OldStatus: string(oldStatus),
		NewStatus: string(l.Status),
		Timestamp: time.Now(),
	}
	if err := s.pub.PublishLoanStatusChanged(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish status changed event", "loanID", l.ID, "error", err)
	}
}
