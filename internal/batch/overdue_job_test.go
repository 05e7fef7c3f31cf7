package batch_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lending-engine/internal/batch"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/event"
	"lending-engine/internal/pkg/apperrors"
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) CreateLoan(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	args := m.Called(ctx, l)
	if created, ok := args.Get(0).(*loan.Loan); ok {
		return created, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) GetLoanByBorrower(ctx context.Context, borrowerID string) (*loan.Loan, error) {
	args := m.Called(ctx, borrowerID)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) ListLoans(ctx context.Context, assignedCashierID string) ([]*loan.Loan, error) {
	args := m.Called(ctx, assignedCashierID)
	if loans, ok := args.Get(0).([]*loan.Loan); ok {
		return loans, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) ListActiveLoanIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) InsertPayment(ctx context.Context, p *loan.Payment) (*loan.Payment, error) {
	args := m.Called(ctx, p)
	if created, ok := args.Get(0).(*loan.Payment); ok {
		return created, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) GetPaymentByID(ctx context.Context, paymentID string) (*loan.Payment, error) {
	args := m.Called(ctx, paymentID)
	if p, ok := args.Get(0).(*loan.Payment); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanRepository) ApprovePayment(ctx context.Context, paymentID string) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

func (m *MockLoanRepository) UpdateLoanStatus(ctx context.Context, loanID int64, status loan.LoanStatus) error {
	args := m.Called(ctx, loanID, status)
	return args.Error(0)
}

func (m *MockLoanRepository) UpdateLoanSchedule(ctx context.Context, l *loan.Loan) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishLoanCreated(ctx context.Context, e event.LoanCreatedEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockPublisher) PublishPaymentApproved(ctx context.Context, e event.PaymentApprovedEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockPublisher) PublishLoanStatusChanged(ctx context.Context, e event.LoanStatusChangedEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func buildSweepLoan(t *testing.T, id int64, start time.Time) *loan.Loan {
	t.Helper()
	l, err := loan.NewLoan(fmt.Sprintf("user-%d", id), "Borrower", "cashier-1", 10_000, loan.DefaultPolicy(), start)
	assert.NoError(t, err)
	l.ID = id
	l.Status = loan.StatusApproved
	return l
}

func TestOverdueSweepJobRun(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("flips loans that fell behind and leaves on-track loans alone", func(t *testing.T) {
		mockRepo := new(MockLoanRepository)
		mockPub := new(MockPublisher)
		job := batch.NewOverdueSweepJob(mockRepo, mockPub, logger)

		// Loan 1 started ten days ago with no payments: behind schedule.
		behind := buildSweepLoan(t, 1, time.Now().AddDate(0, 0, -10))

		// Loan 2 started today: nothing expected yet.
		onTrack := buildSweepLoan(t, 2, time.Now())

		mockRepo.On("ListActiveLoanIDs", ctx).Return([]int64{1, 2}, nil)
		mockRepo.On("GetLoanByID", ctx, int64(1)).Return(behind, nil)
		mockRepo.On("GetLoanByID", ctx, int64(2)).Return(onTrack, nil)
		mockRepo.On("UpdateLoanStatus", ctx, int64(1), loan.StatusOverdue).Return(nil)
		mockPub.On("PublishLoanStatusChanged", ctx, mock.MatchedBy(func(e event.LoanStatusChangedEvent) bool {
			return e.LoanID == 1 && e.NewStatus == string(loan.StatusOverdue)
		})).Return(nil)

		err := job.Run(ctx)
		assert.NoError(t, err)

		mockRepo.AssertExpectations(t)
		mockPub.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "UpdateLoanStatus", ctx, int64(2), mock.Anything)
	})

	t.Run("flips an overdue loan back once the ledger caught up", func(t *testing.T) {
		mockRepo := new(MockLoanRepository)
		job := batch.NewOverdueSweepJob(mockRepo, nil, logger)

		caughtUp := buildSweepLoan(t, 3, time.Now().AddDate(0, 0, -10))
		caughtUp.Status = loan.StatusOverdue
		caughtUp.Payments = []loan.Payment{
			{ID: "pay-1", LoanID: 3, Amount: 1_000, RecordedBy: "acct", PaidAt: time.Now(), Status: loan.PaymentStatusApproved},
		}

		mockRepo.On("ListActiveLoanIDs", ctx).Return([]int64{3}, nil)
		mockRepo.On("GetLoanByID", ctx, int64(3)).Return(caughtUp, nil)
		mockRepo.On("UpdateLoanStatus", ctx, int64(3), loan.StatusApproved).Return(nil)

		err := job.Run(ctx)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("handles repository error", func(t *testing.T) {
		mockRepo := new(MockLoanRepository)
		job := batch.NewOverdueSweepJob(mockRepo, nil, logger)
		mockRepo.On("ListActiveLoanIDs", ctx).Return(nil, fmt.Errorf("%w: failed to query active loans", apperrors.ErrDatabase))

		err := job.Run(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database error")

		mockRepo.AssertExpectations(t)
	})

	t.Run("counts load failures as errors but keeps sweeping", func(t *testing.T) {
		mockRepo := new(MockLoanRepository)
		job := batch.NewOverdueSweepJob(mockRepo, nil, logger)

		onTrack := buildSweepLoan(t, 5, time.Now())

		mockRepo.On("ListActiveLoanIDs", ctx).Return([]int64{4, 5}, nil)
		mockRepo.On("GetLoanByID", ctx, int64(4)).Return(nil, fmt.Errorf("%w: connection reset", apperrors.ErrDatabase))
		mockRepo.On("GetLoanByID", ctx, int64(5)).Return(onTrack, nil)

		err := job.Run(ctx)
		assert.Error(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing loan is skipped without failing the job", func(t *testing.T) {
		mockRepo := new(MockLoanRepository)
		job := batch.NewOverdueSweepJob(mockRepo, nil, logger)

		mockRepo.On("ListActiveLoanIDs", ctx).Return([]int64{6}, nil)
		mockRepo.On("GetLoanByID", ctx, int64(6)).Return(nil, apperrors.ErrNotFound)

		err := job.Run(ctx)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("handles no active loans", func(t *testing.T) {
		mockRepo := new(MockLoanRepository)
		job := batch.NewOverdueSweepJob(mockRepo, nil, logger)
		mockRepo.On("ListActiveLoanIDs", ctx).Return([]int64{}, nil)

		err := job.Run(ctx)
		assert.NoError(t, err)

		mockRepo.AssertExpectations(t)
	})
}
