package postgres

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"lending-engine/internal/domain/loan"
	"lending-engine/internal/pkg/apperrors"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

const pgxmockExpectationsNotMetMsg = "there were unfulfilled pgxmock expectations"

var loanRow = []string{
	"id", "loan_code", "borrower_id", "borrower_name", "assigned_cashier_id",
	"requested_amount", "deduction_rate", "deduction_amount", "disbursed_amount",
	"daily_payment", "total_payable", "term_days", "start_date", "expected_end_date",
	"status", "created_at", "updated_at",
}

var paymentRow = []string{
	"id", "loan_id", "amount", "recorded_by", "paid_at", "status", "created_at", "updated_at",
}

func setupLoanRepo(t *testing.T) (context.Context, *LoanRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewLoanRepository(mockPool, logger)

	return ctx, repo, mockPool
}

func testLoanRecord() *loan.Loan {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return &loan.Loan{
		ID:                1,
		Code:              "LOAN-123456",
		BorrowerID:        "user-1",
		BorrowerName:      "Jane Borrower",
		AssignedCashierID: "cashier-1",
		RequestedAmount:   10_000,
		DeductionRate:     0.10,
		DeductionAmount:   1_000,
		DisbursedAmount:   9_000,
		DailyPayment:      100,
		TotalPayable:      10_500,
		TermDays:          105,
		StartDate:         start,
		ExpectedEndDate:   start.AddDate(0, 0, 105),
		Status:            loan.StatusApproved,
		CreatedAt:         start,
		UpdatedAt:         start,
	}
}

func addLoanRow(rows *pgxmock.Rows, l *loan.Loan) *pgxmock.Rows {
	return rows.AddRow(
		l.ID, l.Code, l.BorrowerID, l.BorrowerName, l.AssignedCashierID,
		l.RequestedAmount, l.DeductionRate, l.DeductionAmount, l.DisbursedAmount,
		l.DailyPayment, l.TotalPayable, l.TermDays, l.StartDate, l.ExpectedEndDate,
		l.Status, l.CreatedAt, l.UpdatedAt,
	)
}

func TestCreateLoanWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	l := testLoanRecord()
	l.ID = 0
	returned := testLoanRecord()

	mockPool.ExpectQuery(`INSERT INTO loans`).WithArgs(
		l.Code, l.BorrowerID, l.BorrowerName, l.AssignedCashierID,
		l.RequestedAmount, l.DeductionRate, l.DeductionAmount, l.DisbursedAmount,
		l.DailyPayment, l.TotalPayable, l.TermDays, l.StartDate, l.ExpectedEndDate,
		l.Status,
	).WillReturnRows(addLoanRow(pgxmock.NewRows(loanRow), returned))

	created, err := repo.CreateLoan(ctx, l)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "LOAN-123456", created.Code)
	assert.Empty(t, created.Payments)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCreateLoanWhenCodeCollides(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	l := testLoanRecord()
	l.ID = 0

	mockPool.ExpectQuery(`INSERT INTO loans`).WithArgs(
		l.Code, l.BorrowerID, l.BorrowerName, l.AssignedCashierID,
		l.RequestedAmount, l.DeductionRate, l.DeductionAmount, l.DisbursedAmount,
		l.DailyPayment, l.TotalPayable, l.TermDays, l.StartDate, l.ExpectedEndDate,
		l.Status,
	).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "loans_loan_code_key"})

	_, err := repo.CreateLoan(ctx, l)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestGetLoanByIDReturnsLoanWithPayments(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	l := testLoanRecord()
	paidAt := l.StartDate.AddDate(0, 0, 1)

	mockPool.ExpectQuery(`SELECT (.+) FROM loans WHERE id = \$1`).
		WithArgs(l.ID).
		WillReturnRows(addLoanRow(pgxmock.NewRows(loanRow), l))

	mockPool.ExpectQuery(`SELECT (.+) FROM payments WHERE loan_id = \$1`).
		WithArgs(l.ID).
		WillReturnRows(pgxmock.NewRows(paymentRow).
			AddRow("pay-1", l.ID, 100.0, "cashier-1", paidAt, loan.PaymentStatusApproved, paidAt, paidAt).
			AddRow("pay-2", l.ID, 50.0, "cashier-1", paidAt, loan.PaymentStatusPending, paidAt, paidAt))

	got, err := repo.GetLoanByID(ctx, l.ID)
	assert.NoError(t, err)
	assert.Equal(t, l.Code, got.Code)
	assert.Len(t, got.Payments, 2)
	assert.Equal(t, "pay-1", got.Payments[0].ID)
	assert.Equal(t, loan.PaymentStatusPending, got.Payments[1].Status)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestGetLoanByIDWhenMissing(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(`SELECT (.+) FROM loans WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(loanRow))

	_, err := repo.GetLoanByID(ctx, 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestGetLoanByBorrowerReturnsLatest(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	l := testLoanRecord()

	mockPool.ExpectQuery(`SELECT (.+) FROM loans WHERE borrower_id = \$1 ORDER BY created_at DESC LIMIT 1`).
		WithArgs(l.BorrowerID).
		WillReturnRows(addLoanRow(pgxmock.NewRows(loanRow), l))

	mockPool.ExpectQuery(`SELECT (.+) FROM payments WHERE loan_id = \$1`).
		WithArgs(l.ID).
		WillReturnRows(pgxmock.NewRows(paymentRow))

	got, err := repo.GetLoanByBorrower(ctx, l.BorrowerID)
	assert.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)
	assert.Empty(t, got.Payments)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestListLoansScopedByCashier(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	l := testLoanRecord()

	mockPool.ExpectQuery(`SELECT (.+) FROM loans WHERE assigned_cashier_id = \$1 ORDER BY created_at DESC`).
		WithArgs("cashier-1").
		WillReturnRows(addLoanRow(pgxmock.NewRows(loanRow), l))

	mockPool.ExpectQuery(`SELECT (.+) FROM payments WHERE loan_id = ANY\(\$1\)`).
		WithArgs([]int64{l.ID}).
		WillReturnRows(pgxmock.NewRows(paymentRow).
			AddRow("pay-1", l.ID, 100.0, "cashier-1", l.StartDate, loan.PaymentStatusApproved, l.StartDate, l.StartDate))

	loans, err := repo.ListLoans(ctx, "cashier-1")
	assert.NoError(t, err)
	assert.Len(t, loans, 1)
	assert.Len(t, loans[0].Payments, 1)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestListLoansUnscopedSkipsLedgerWhenEmpty(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(`SELECT (.+) FROM loans ORDER BY created_at DESC`).
		WillReturnRows(pgxmock.NewRows(loanRow))

	loans, err := repo.ListLoans(ctx, "")
	assert.NoError(t, err)
	assert.Empty(t, loans)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestListActiveLoanIDs(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(`SELECT id FROM loans WHERE status IN \(\$1, \$2\)`).
		WithArgs(loan.StatusApproved, loan.StatusOverdue).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(7)))

	ids, err := repo.ListActiveLoanIDs(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 7}, ids)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestInsertPaymentWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	paidAt := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	p := &loan.Payment{
		ID:         "pay-1",
		LoanID:     1,
		Amount:     100,
		RecordedBy: "cashier-1",
		PaidAt:     paidAt,
		Status:     loan.PaymentStatusPending,
	}

	mockPool.ExpectQuery(`INSERT INTO payments`).WithArgs(
		p.ID, p.LoanID, p.Amount, p.RecordedBy, p.PaidAt, p.Status,
	).WillReturnRows(pgxmock.NewRows(paymentRow).
		AddRow(p.ID, p.LoanID, p.Amount, p.RecordedBy, p.PaidAt, p.Status, paidAt, paidAt))

	created, err := repo.InsertPayment(ctx, p)
	assert.NoError(t, err)
	assert.Equal(t, "pay-1", created.ID)
	assert.Equal(t, loan.PaymentStatusPending, created.Status)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestApprovePaymentWhenPending(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(`UPDATE payments`).
		WithArgs(loan.PaymentStatusApproved, "pay-1", loan.PaymentStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.ApprovePayment(ctx, "pay-1")
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestApprovePaymentWhenAlreadyApproved(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(`UPDATE payments`).
		WithArgs(loan.PaymentStatusApproved, "pay-1", loan.PaymentStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	mockPool.ExpectQuery(`SELECT status FROM payments WHERE id = \$1`).
		WithArgs("pay-1").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(loan.PaymentStatusApproved))

	err := repo.ApprovePayment(ctx, "pay-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestApprovePaymentWhenMissing(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(`UPDATE payments`).
		WithArgs(loan.PaymentStatusApproved, "pay-404", loan.PaymentStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	mockPool.ExpectQuery(`SELECT status FROM payments WHERE id = \$1`).
		WithArgs("pay-404").
		WillReturnRows(pgxmock.NewRows([]string{"status"}))

	err := repo.ApprovePayment(ctx, "pay-404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateLoanStatusWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(`UPDATE loans SET status = \$1`).
		WithArgs(loan.StatusOverdue, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateLoanStatus(ctx, 1, loan.StatusOverdue)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateLoanStatusWhenMissing(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(`UPDATE loans SET status = \$1`).
		WithArgs(loan.StatusOverdue, int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateLoanStatus(ctx, 99, loan.StatusOverdue)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateLoanScheduleRewritesAllDerivedColumns(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	l := testLoanRecord()

	mockPool.ExpectExec(`UPDATE loans`).WithArgs(
		l.RequestedAmount, l.DeductionRate, l.DeductionAmount,
		l.DisbursedAmount, l.DailyPayment, l.TotalPayable,
		l.TermDays, l.ExpectedEndDate, l.ID,
	).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateLoanSchedule(ctx, l)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
