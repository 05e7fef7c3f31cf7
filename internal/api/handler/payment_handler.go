package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/pkg/apperrors"
)

type PaymentHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewPaymentHandler(s loan.LoanService, l *slog.Logger) *PaymentHandler {
	if s == nil {
		panic("loan service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &PaymentHandler{
		service: s,
		logger:  l.With("component", "PaymentHandler"),
	}
}

// CreatePayment handles POST /payments
// @Summary Record a repayment
// @Description Appends a payment to a loan's ledger. Payments recorded by collection staff enter as PENDING; reconciliation staff post directly as APPROVED.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body dto.CreatePaymentRequest true "Payment payload"
// @Success 201 {object} dto.PaymentRecord "Payment recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments [post]
// @Security BearerAuth
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.CreatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Payment validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), req.LoanID, req.Amount, actor.Username, actor.Role)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrValidation) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to record payment", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.NewPaymentRecord(payment)
	h.logger.InfoContext(r.Context(), "Payment recorded successfully",
		slog.String("paymentID", resp.ID), slog.Int64("loanID", req.LoanID))
	respondJSON(w, http.StatusCreated, resp)
}

// ApprovePayment handles PATCH /payments/{paymentID}
// @Summary Approve a pending payment
// @Description Moves a PENDING payment to APPROVED so it counts toward the loan balance. A second approval of the same payment is rejected as a conflict.
// @Tags Payments
// @Accept json
// @Produce json
// @Param paymentID path string true "Payment ID"
// @Param request body dto.PatchPaymentRequest true "Target status, must be APPROVED"
// @Success 200 {object} dto.PaymentRecord "Payment approved"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 403 {object} dto.ErrorResponse "Actor lacks approval capability"
// @Failure 404 {object} dto.ErrorResponse "Payment not found"
// @Failure 409 {object} dto.ErrorResponse "Payment already processed"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments/{paymentID} [patch]
// @Security BearerAuth
func (h *PaymentHandler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		respondError(w, fmt.Errorf("%w: paymentID not found in URL path", apperrors.ErrInvalidArgument))
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.PatchPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Payment patch validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	approved, err := h.service.ApprovePayment(r.Context(), paymentID, actor.Role)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) &&
			!errors.Is(err, apperrors.ErrForbidden) &&
			!errors.Is(err, apperrors.ErrInvalidState) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to approve payment", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Payment approved successfully", slog.String("paymentID", paymentID))
	respondJSON(w, http.StatusOK, dto.NewPaymentRecord(approved))
}
