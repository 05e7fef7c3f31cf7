package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"

	"lending-engine/internal/domain/loan"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var _ loan.Repository = (*LoanRepository)(nil)

var errMsgFormat = "%w: %w"

const loanColumns = `id, loan_code, borrower_id, borrower_name, assigned_cashier_id,
        requested_amount, deduction_rate, deduction_amount, disbursed_amount,
        daily_payment, total_payable, term_days, start_date, expected_end_date,
        status, created_at, updated_at`

const paymentColumns = `id, loan_id, amount, recorded_by, paid_at, status, created_at, updated_at`

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) CreateLoan(ctx context.Context, newLoan *loan.Loan) (*loan.Loan, error) {
	loanSQL := `
        INSERT INTO loans (loan_code, borrower_id, borrower_name, assigned_cashier_id,
            requested_amount, deduction_rate, deduction_amount, disbursed_amount,
            daily_payment, total_payable, term_days, start_date, expected_end_date,
            status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
        RETURNING ` + loanColumns

	var created loan.Loan
	err := r.db.QueryRow(ctx, loanSQL,
		newLoan.Code, newLoan.BorrowerID, newLoan.BorrowerName, newLoan.AssignedCashierID,
		newLoan.RequestedAmount, newLoan.DeductionRate, newLoan.DeductionAmount, newLoan.DisbursedAmount,
		newLoan.DailyPayment, newLoan.TotalPayable, newLoan.TermDays, newLoan.StartDate, newLoan.ExpectedEndDate,
		newLoan.Status,
	).Scan(scanLoanTargets(&created)...)
	if err != nil {
		translated := translateDBError(err, r.logger)
		if errors.Is(translated, apperrors.ErrAlreadyExists) {
			// loan_code unique constraint; the service retries with a
			// fresh code.
			return nil, translated
		}
		r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
		return nil, fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	created.Payments = make([]loan.Payment, 0)
	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", created.ID, "loan_code", created.Code)
	return &created, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	status := "success"
	startTime := time.Now()

	var l loan.Loan
	err := r.db.QueryRow(ctx, query, loanID).Scan(scanLoanTargets(&l)...)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetLoanByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	payments, err := r.getPaymentsByLoanID(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	l.Payments = payments
	return &l, nil
}

func (r *LoanRepository) GetLoanByBorrower(ctx context.Context, borrowerID string) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE borrower_id = $1 ORDER BY created_at DESC LIMIT 1`

	var l loan.Loan
	err := r.db.QueryRow(ctx, query, borrowerID).Scan(scanLoanTargets(&l)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "No loan for borrower", "borrower_id", borrowerID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by borrower", "borrower_id", borrowerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	payments, err := r.getPaymentsByLoanID(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	l.Payments = payments
	return &l, nil
}

func (r *LoanRepository) ListLoans(ctx context.Context, assignedCashierID string) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY created_at DESC`
	args := []any{}
	if assignedCashierID != "" {
		query = `SELECT ` + loanColumns + ` FROM loans WHERE assigned_cashier_id = $1 ORDER BY created_at DESC`
		args = append(args, assignedCashierID)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loans", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans := make([]*loan.Loan, 0)
	byID := make(map[int64]*loan.Loan)
	ids := make([]int64, 0)
	for rows.Next() {
		var l loan.Loan
		if err := rows.Scan(scanLoanTargets(&l)...); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		l.Payments = make([]loan.Payment, 0)
		loans = append(loans, &l)
		byID[l.ID] = &l
		ids = append(ids, l.ID)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	if len(ids) == 0 {
		return loans, nil
	}

	paymentSQL := `SELECT ` + paymentColumns + ` FROM payments WHERE loan_id = ANY($1) ORDER BY paid_at ASC, created_at ASC`
	payRows, err := r.db.Query(ctx, paymentSQL, ids)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query ledger for loan list", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer payRows.Close()

	for payRows.Next() {
		var p loan.Payment
		if err := payRows.Scan(scanPaymentTargets(&p)...); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan payment row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		if owner, ok := byID[p.LoanID]; ok {
			owner.Payments = append(owner.Payments, p)
		}
	}
	if err = payRows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating payment rows", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return loans, nil
}

func (r *LoanRepository) ListActiveLoanIDs(ctx context.Context) ([]int64, error) {
	logCtx := r.logger.With(slog.String("operation", "ListActiveLoanIDs"))
	logCtx.DebugContext(ctx, "Attempting to get all active loan IDs")

	query := `SELECT id FROM loans WHERE status IN ($1, $2) ORDER BY id`

	rows, err := r.db.Query(ctx, query, loan.StatusApproved, loan.StatusOverdue)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to query active loan IDs", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query active loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loanIDs := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			logCtx.ErrorContext(ctx, "Failed to scan active loan ID row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed scanning active loan ID: %w", apperrors.ErrDatabase, err)
		}
		loanIDs = append(loanIDs, id)
	}

	if err = rows.Err(); err != nil {
		logCtx.ErrorContext(ctx, "Error iterating active loan ID rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating active loan IDs: %w", apperrors.ErrDatabase, err)
	}

	logCtx.DebugContext(ctx, "Finished getting active loan IDs", slog.Int("count", len(loanIDs)))
	return loanIDs, nil
}

func (r *LoanRepository) InsertPayment(ctx context.Context, p *loan.Payment) (*loan.Payment, error) {
	sql := `
        INSERT INTO payments (id, loan_id, amount, recorded_by, paid_at, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING ` + paymentColumns

	var created loan.Payment
	err := r.db.QueryRow(ctx, sql,
		p.ID, p.LoanID, p.Amount, p.RecordedBy, p.PaidAt, p.Status,
	).Scan(scanPaymentTargets(&created)...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert payment", "loan_id", p.LoanID, "error", err)
		return nil, translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Payment inserted", "payment_id", created.ID, "loan_id", created.LoanID, "status", created.Status)
	return &created, nil
}

func (r *LoanRepository) GetPaymentByID(ctx context.Context, paymentID string) (*loan.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var p loan.Payment
	err := r.db.QueryRow(ctx, query, paymentID).Scan(scanPaymentTargets(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Payment not found", "payment_id", paymentID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get payment by ID", "payment_id", paymentID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &p, nil
}

// ApprovePayment is the compare-and-set that makes approval safe under
// concurrency: the status predicate is part of the UPDATE, so of two
// racing approvals only one affects a row.
func (r *LoanRepository) ApprovePayment(ctx context.Context, paymentID string) error {
	sql := `
        UPDATE payments
        SET status = $1, updated_at = NOW()
        WHERE id = $2 AND status = $3`

	cmdTag, err := r.db.Exec(ctx, sql, loan.PaymentStatusApproved, paymentID, loan.PaymentStatusPending)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to approve payment", "payment_id", paymentID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 1 {
		r.logger.InfoContext(ctx, "Payment approved in DB", "payment_id", paymentID)
		return nil
	}

	// Zero rows: either the payment does not exist or it is no longer
	// PENDING. Distinguish so callers can report "already processed".
	var status loan.PaymentStatus
	err = r.db.QueryRow(ctx, `SELECT status FROM payments WHERE id = $1`, paymentID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Payment not found for approval", "payment_id", paymentID)
			return apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to check payment status after approval miss", "payment_id", paymentID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	r.logger.WarnContext(ctx, "Payment approval lost the compare-and-set", "payment_id", paymentID, "status", status)
	return apperrors.ErrInvalidState
}

func (r *LoanRepository) UpdateLoanStatus(ctx context.Context, loanID int64, status loan.LoanStatus) error {
	sql := `UPDATE loans SET status = $1, updated_at = NOW() WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, sql, status, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan status", "loan_id", loanID, "status", status, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() != 1 {
		r.logger.ErrorContext(ctx, "Loan status update affected zero rows", "loan_id", loanID, "status", status)
		return apperrors.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Loan status updated in DB", "loan_id", loanID, "new_status", status)
	return nil
}

// UpdateLoanSchedule rewrites every schedule-derived field in one
// statement so a concurrent reader never sees a half-revised loan.
func (r *LoanRepository) UpdateLoanSchedule(ctx context.Context, l *loan.Loan) error {
	sql := `
        UPDATE loans
        SET requested_amount = $1, deduction_rate = $2, deduction_amount = $3,
            disbursed_amount = $4, daily_payment = $5, total_payable = $6,
            term_days = $7, expected_end_date = $8, updated_at = NOW()
        WHERE id = $9`

	cmdTag, err := r.db.Exec(ctx, sql,
		l.RequestedAmount, l.DeductionRate, l.DeductionAmount,
		l.DisbursedAmount, l.DailyPayment, l.TotalPayable,
		l.TermDays, l.ExpectedEndDate, l.ID,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan schedule", "loan_id", l.ID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() != 1 {
		r.logger.ErrorContext(ctx, "Loan schedule update affected zero rows", "loan_id", l.ID)
		return apperrors.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Loan schedule updated in DB", "loan_id", l.ID)
	return nil
}

func (r *LoanRepository) getPaymentsByLoanID(ctx context.Context, loanID int64) ([]loan.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE loan_id = $1 ORDER BY paid_at ASC, created_at ASC`

	rows, err := r.db.Query(ctx, query, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query payments", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	payments := make([]loan.Payment, 0)
	for rows.Next() {
		var p loan.Payment
		if err := rows.Scan(scanPaymentTargets(&p)...); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan payment row", "loan_id", loanID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		payments = append(payments, p)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating payment rows", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return payments, nil
}

func scanLoanTargets(l *loan.Loan) []any {
	return []any{
		&l.ID, &l.Code, &l.BorrowerID, &l.BorrowerName, &l.AssignedCashierID,
		&l.RequestedAmount, &l.DeductionRate, &l.DeductionAmount, &l.DisbursedAmount,
		&l.DailyPayment, &l.TotalPayable, &l.TermDays, &l.StartDate, &l.ExpectedEndDate,
		&l.Status, &l.CreatedAt, &l.UpdatedAt,
	}
}

func scanPaymentTargets(p *loan.Payment) []any {
	return []any{
		&p.ID, &p.LoanID, &p.Amount, &p.RecordedBy, &p.PaidAt, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	}
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {

		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
