package loan

import (
	"fmt"
	"time"

	"lending-engine/internal/pkg/apperrors"
)

// DerivedStatus computes the lifecycle status as of ref. Status is a
// view over the schedule, the ledger and the calendar: overdue-ness
// changes with the passage of time alone, so it must be recomputed on
// every read rather than advanced by events.
//
// Precedence: terminal states stick, completion beats overdue-ness, and
// a loan still under review is never flagged OVERDUE.
func (l *Loan) DerivedStatus(ref time.Time) LoanStatus {
	switch l.Status {
	case StatusPending, StatusDenied:
		return l.Status
	}
	if l.Status == StatusCompleted || l.Balance().Complete {
		return StatusCompleted
	}
	if l.ProgressAt(ref).Behind() {
		return StatusOverdue
	}
	return StatusApproved
}

// Review settles origination: PENDING -> APPROVED or DENIED. Both
// outcomes end the review; a second decision is rejected.
func (l *Loan) Review(approve bool) error {
	if l.Status != StatusPending {
		return fmt.Errorf("%w: loan %s has already been reviewed (status %s)",
			apperrors.ErrInvalidState, l.Code, l.Status)
	}
	if approve {
		l.Status = StatusApproved
	} else {
		l.Status = StatusDenied
	}
	return nil
}
