package event

import (
	"context"
	"time"
)

type Publisher interface {
	PublishLoanCreated(ctx context.Context, e LoanCreatedEvent) error
	PublishPaymentApproved(ctx context.Context, e PaymentApprovedEvent) error
	PublishLoanStatusChanged(ctx context.Context, e LoanStatusChangedEvent) error
}

type LoanCreatedEvent struct {
	LoanID          int64     `json:"loanId"`
	LoanCode        string    `json:"loanCode"`
	BorrowerID      string    `json:"borrowerId"`
	RequestedAmount float64   `json:"requestedAmount"`
	TotalPayable    float64   `json:"totalPayable"`
	Timestamp       time.Time `json:"timestamp"`
}

type PaymentApprovedEvent struct {
	PaymentID string    `json:"paymentId"`
	LoanID    int64     `json:"loanId"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

type LoanStatusChangedEvent struct {
	LoanID    int64     `json:"loanId"`
	LoanCode  string    `json:"loanCode"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	Timestamp time.Time `json:"timestamp"`
}
