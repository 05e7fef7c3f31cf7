package dto

import (
	"fmt"
	"math"
	"strings"
	"time"

	"lending-engine/internal/domain/loan"
)

type CreateLoanRequest struct {
	UserID          string  `json:"userId"`
	FullName        string  `json:"fullName"`
	AssignedCashier string  `json:"assignedCashier"`
	LoanAmount      float64 `json:"loanAmount"`
	StartDate       string  `json:"startDate,omitempty"`
}

func (r *CreateLoanRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("userId cannot be empty")
	}
	if strings.TrimSpace(r.FullName) == "" {
		return fmt.Errorf("fullName cannot be empty")
	}
	if strings.TrimSpace(r.AssignedCashier) == "" {
		return fmt.Errorf("assignedCashier cannot be empty")
	}
	if r.LoanAmount <= 0 {
		return fmt.Errorf("loanAmount must be a positive number")
	}
	if _, err := r.ParsedStartDate(); err != nil {
		return fmt.Errorf("startDate must be an ISO-8601 timestamp")
	}
	return nil
}

// ParsedStartDate returns the optional start date, zero when absent.
func (r *CreateLoanRequest) ParsedStartDate() (time.Time, error) {
	if r.StartDate == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, r.StartDate)
}

type CreatePaymentRequest struct {
	LoanID int64   `json:"loanId"`
	Amount float64 `json:"amount"`
}

func (r *CreatePaymentRequest) Validate() error {
	if r.LoanID <= 0 {
		return fmt.Errorf("loanId must be a positive number")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be a positive number")
	}
	return nil
}

type PatchPaymentRequest struct {
	Status string `json:"status"`
}

func (r *PatchPaymentRequest) Validate() error {
	if r.Status != string(loan.PaymentStatusApproved) {
		return fmt.Errorf("status must be %s", loan.PaymentStatusApproved)
	}
	return nil
}

// PatchLoanRequest carries either a review decision or a schedule
// revision; exactly one of the two fields must be set.
type PatchLoanRequest struct {
	Status          *string  `json:"status,omitempty"`
	RequestedAmount *float64 `json:"requestedAmount,omitempty"`
}

func (r *PatchLoanRequest) Validate() error {
	if r.Status == nil && r.RequestedAmount == nil {
		return fmt.Errorf("either status or requestedAmount must be provided")
	}
	if r.Status != nil && r.RequestedAmount != nil {
		return fmt.Errorf("status and requestedAmount cannot be combined")
	}
	if r.Status != nil {
		s := loan.LoanStatus(*r.Status)
		if s != loan.StatusApproved && s != loan.StatusDenied {
			return fmt.Errorf("status must be %s or %s", loan.StatusApproved, loan.StatusDenied)
		}
	}
	if r.RequestedAmount != nil && *r.RequestedAmount <= 0 {
		return fmt.Errorf("requestedAmount must be a positive number")
	}
	return nil
}

type TokenRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type PaymentRecord struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	PaymentBy string    `json:"paymentBy"`
	PaidAt    time.Time `json:"paidAt"`
	Status    string    `json:"status"`
}

// LoanRecord is the wire shape consumed by existing clients. Field names
// are load-bearing: unpaidLoan is the schedule-based display balance,
// paidLoan the ledger total of approved payments.
type LoanRecord struct {
	ID              int64           `json:"id"`
	UserID          string          `json:"userId"`
	FullName        string          `json:"fullName"`
	LoanID          string          `json:"loanId"`
	LoanAmount      float64         `json:"loanAmount"`
	DailyPayment    float64         `json:"dailyPayment"`
	StartDate       time.Time       `json:"startDate"`
	ExpectDate      time.Time       `json:"expectDate"`
	RemainingDays   int             `json:"remainingDays"`
	UnpaidLoan      float64         `json:"unpaidLoan"`
	PaidLoan        float64         `json:"paidLoan"`
	Status          string          `json:"status"`
	RequestedAmount float64         `json:"requestedAmount"`
	Deduction       float64         `json:"deduction"`
	ActualAmount    float64         `json:"actualAmount"`
	TotalToPay      float64         `json:"totalToPay"`
	AssignedCashier string          `json:"assignedCashier"`
	Payments        []PaymentRecord `json:"payments"`
}

func NewPaymentRecord(p *loan.Payment) PaymentRecord {
	if p == nil {
		return PaymentRecord{}
	}
	return PaymentRecord{
		ID:        p.ID,
		Amount:    float64(p.Amount),
		PaymentBy: p.RecordedBy,
		PaidAt:    p.PaidAt,
		Status:    string(p.Status),
	}
}

func NewLoanRecord(l *loan.Loan) LoanRecord {
	if l == nil {
		return LoanRecord{}
	}

	balance := l.Balance()
	payments := make([]PaymentRecord, len(l.Payments))
	for i := range l.Payments {
		payments[i] = NewPaymentRecord(&l.Payments[i])
	}

	return LoanRecord{
		ID:              l.ID,
		UserID:          l.BorrowerID,
		FullName:        l.BorrowerName,
		LoanID:          l.Code,
		LoanAmount:      float64(l.RequestedAmount),
		DailyPayment:    float64(l.DailyPayment),
		StartDate:       l.StartDate,
		ExpectDate:      l.ExpectedEndDate,
		RemainingDays:   l.RemainingDays(),
		UnpaidLoan:      float64(balance.ScheduleOutstanding),
		PaidLoan:        float64(balance.Paid),
		Status:          string(l.Status),
		RequestedAmount: float64(l.RequestedAmount),
		Deduction:       float64(l.DeductionAmount),
		ActualAmount:    float64(l.DisbursedAmount),
		TotalToPay:      float64(l.TotalPayable),
		AssignedCashier: l.AssignedCashierID,
		Payments:        payments,
	}
}

// ToDomain rebuilds the domain loan from a wire record. The term length
// is not on the wire; it is recovered from the schedule itself.
func (rec *LoanRecord) ToDomain() *loan.Loan {
	termDays := 0
	if rec.DailyPayment > 0 {
		termDays = int(math.Round(rec.TotalToPay / rec.DailyPayment))
	}
	deductionRate := 0.0
	if rec.RequestedAmount > 0 {
		deductionRate = rec.Deduction / rec.RequestedAmount
	}

	payments := make([]loan.Payment, len(rec.Payments))
	for i, p := range rec.Payments {
		payments[i] = loan.Payment{
			ID:         p.ID,
			LoanID:     rec.ID,
			Amount:     loan.Money(p.Amount),
			RecordedBy: p.PaymentBy,
			PaidAt:     p.PaidAt,
			Status:     loan.PaymentStatus(p.Status),
		}
	}

	return &loan.Loan{
		ID:                rec.ID,
		Code:              rec.LoanID,
		BorrowerID:        rec.UserID,
		BorrowerName:      rec.FullName,
		AssignedCashierID: rec.AssignedCashier,
		RequestedAmount:   loan.Money(rec.RequestedAmount),
		DeductionRate:     deductionRate,
		DeductionAmount:   loan.Money(rec.Deduction),
		DisbursedAmount:   loan.Money(rec.ActualAmount),
		DailyPayment:      loan.Money(rec.DailyPayment),
		TotalPayable:      loan.Money(rec.TotalToPay),
		TermDays:          termDays,
		StartDate:         rec.StartDate,
		ExpectedEndDate:   rec.ExpectDate,
		Status:            loan.LoanStatus(rec.Status),
		Payments:          payments,
	}
}

type PortfolioSummaryResponse struct {
	TotalLoans            int     `json:"totalLoans"`
	TotalDailyExpected    float64 `json:"totalDailyExpected"`
	TodayCollected        float64 `json:"todayCollected"`
	PendingApprovalAmount float64 `json:"pendingApprovalAmount"`
}

func NewPortfolioSummaryResponse(s loan.PortfolioSummary) PortfolioSummaryResponse {
	return PortfolioSummaryResponse{
		TotalLoans:            s.TotalLoans,
		TotalDailyExpected:    float64(s.TotalDailyExpected),
		TodayCollected:        float64(s.TodayCollected),
		PendingApprovalAmount: float64(s.PendingApprovalAmount),
	}
}

type ErrorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
