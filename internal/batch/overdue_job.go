package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"lending-engine/internal/domain/loan"
	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

// OverdueSweepJob reconciles the stored status of every active loan with
// the status derived from its ledger. Reads always derive, so the stored
// column is advisory; the sweep keeps it usable for plain SQL reporting
// and emits change events for loans that flipped overnight.
type OverdueSweepJob struct {
	repo   loan.Repository
	pub    event.Publisher
	logger *slog.Logger
}

func NewOverdueSweepJob(repo loan.Repository, pub event.Publisher, logger *slog.Logger) *OverdueSweepJob {
	if repo == nil || logger == nil {
		panic("OverdueSweepJob dependencies cannot be nil")
	}
	return &OverdueSweepJob{
		repo:   repo,
		pub:    pub,
		logger: logger.With("job", "OverdueSweep"),
	}
}

func (j *OverdueSweepJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting overdue status sweep.")

	activeLoanIDs, err := j.repo.ListActiveLoanIDs(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to get active loan IDs, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to get active loans: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched active loan IDs.", slog.Int("count", len(activeLoanIDs)))

	if len(activeLoanIDs) == 0 {
		j.logger.InfoContext(ctx, "No active loans found to process.")
		j.logger.InfoContext(ctx, "Overdue status sweep finished.", slog.Duration("duration", time.Since(startTime)))
		return nil
	}

	now := time.Now()
	var wg sync.WaitGroup
	var processedCount, flippedCount, errorCount atomic.Int32

	for _, loanID := range activeLoanIDs {
		wg.Add(1)
		go func(currentLoanID int64) {
			defer wg.Done()

			logCtx := j.logger.With(slog.Int64("loanID", currentLoanID))

			l, loadErr := j.repo.GetLoanByID(ctx, currentLoanID)
			if loadErr != nil {
				if errors.Is(loadErr, apperrors.ErrNotFound) {
					logCtx.WarnContext(ctx, "Loan disappeared between listing and load.", slog.Any("error", loadErr))
				} else {
					logCtx.ErrorContext(ctx, "Failed to load loan for sweep", slog.Any("error", loadErr))
					errorCount.Add(1)
				}
				return
			}

			derived := l.DerivedStatus(now)
			if derived == l.Status {
				processedCount.Add(1)
				return
			}

			logCtx.InfoContext(ctx, "Persisting derived loan status.",
				slog.String("old_status", string(l.Status)), slog.String("new_status", string(derived)))
			if updateErr := j.repo.UpdateLoanStatus(ctx, currentLoanID, derived); updateErr != nil {
				logCtx.ErrorContext(ctx, "Failed to persist derived loan status", slog.Any("error", updateErr))
				errorCount.Add(1)
				return
			}

			monitoring.RecordOverdueSweepFlip()
			flippedCount.Add(1)
			processedCount.Add(1)
			j.publishStatusChanged(ctx, l, derived)
		}(loanID)
	}

	wg.Wait()
	duration := time.Since(startTime)
	summaryLog := j.logger.With(
		slog.Duration("duration", duration),
		slog.Int("total_active_loans", len(activeLoanIDs)),
		slog.Int("loans_processed", int(processedCount.Load())),
		slog.Int("status_flips", int(flippedCount.Load())),
		slog.Int("errors_encountered", int(errorCount.Load())),
	)
	if errorCount.Load() > 0 {
		summaryLog.WarnContext(ctx, "Overdue status sweep finished with errors.")
		return fmt.Errorf("job completed with %d errors", errorCount.Load())
	}

	summaryLog.InfoContext(ctx, "Overdue status sweep finished successfully.")
	return nil
}

func (j *OverdueSweepJob) publishStatusChanged(ctx context.Context, l *loan.Loan, newStatus loan.LoanStatus) {
	if j.pub == nil {
		return
	}
	e := event.LoanStatusChangedEvent{
		LoanID:    l.ID,
		LoanCode:  l.Code,
		OldStatus: string(l.Status),
		NewStatus: string(newStatus),
		Timestamp: time.Now(),
	}
	if err := j.pub.PublishLoanStatusChanged(ctx, e); err != nil {
		j.logger.WarnContext(ctx, "Failed to publish status changed event", slog.Int64("loanID", l.ID), slog.Any("error", err))
	}
}
