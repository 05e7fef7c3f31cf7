package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/api/middleware"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/pkg/apperrors"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	if s == nil {
		panic("loan service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrInvalidPaymentAmount), errors.Is(err, apperrors.ErrLoanCompleted):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized."
	case errors.Is(err, apperrors.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, apperrors.ErrInvalidState), errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrAlreadyExists):
		status, message = http.StatusConflict, err.Error()
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.As(err, &appErr):
		message = appErr.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

func getLoanIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "loanID")
	if idStr == "" {
		return 0, fmt.Errorf("%w: loanID not found in URL path", apperrors.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid loanID format in URL path: %s", apperrors.ErrInvalidArgument, idStr)
	}
	return id, nil
}

// asOfFromQuery reads the optional asOf query parameter; status and
// balances are derived against it, defaulting to now.
func asOfFromQuery(r *http.Request) (time.Time, error) {
	asOfStr := r.URL.Query().Get("asOf")
	if asOfStr == "" {
		return time.Now(), nil
	}
	asOf, err := time.Parse(time.RFC3339, asOfStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: asOf must be an ISO-8601 timestamp: %s", apperrors.ErrInvalidArgument, asOfStr)
	}
	return asOf, nil
}

func actorFromRequest(r *http.Request) (middleware.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return middleware.Actor{}, fmt.Errorf("%w: no authenticated actor on request", apperrors.ErrUnauthorized)
	}
	return actor, nil
}

// CreateLoan handles POST /loans
// @Summary Create a new loan
// @Description Creates a loan for a borrower: withholds the deduction from the requested amount and fixes the daily repayment schedule.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan creation request payload"
// @Success 201 {object} dto.LoanRecord "Loan successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Loan creation validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	// A zero start date means the schedule starts now.
	startDate, err := req.ParsedStartDate()
	if err != nil {
		respondError(w, fmt.Errorf("%w: startDate must be an ISO-8601 timestamp", apperrors.ErrInvalidArgument))
		return
	}

	createdLoan, err := h.service.CreateLoan(r.Context(), loan.CreateLoanInput{
		BorrowerID:        req.UserID,
		BorrowerName:      req.FullName,
		AssignedCashierID: req.AssignedCashier,
		RequestedAmount:   req.LoanAmount,
		StartDate:         startDate,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to create loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.NewLoanRecord(createdLoan)
	h.logger.InfoContext(r.Context(), "Loan created successfully", slog.Int64("loanID", resp.ID))
	respondJSON(w, http.StatusCreated, resp)
}

// GetLoan handles GET /loans/{loanID}
// @Summary Retrieve loan details
// @Description Retrieves a loan with its full payment ledger. Status and balances are derived as of the optional asOf timestamp.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID" Minimum(1)
// @Param asOf query string false "Reference timestamp (ISO-8601), defaults to now"
// @Success 200 {object} dto.LoanRecord "Loan details retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID or asOf format"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}
	asOf, err := asOfFromQuery(r)
	if err != nil {
		respondError(w, err)
		return
	}

	domainLoan, err := h.service.GetLoan(r.Context(), loanID, asOf)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanRecord(domainLoan))
}

// ListLoans handles GET /loans
// @Summary List loans
// @Description Lists loans, optionally scoped to a single cashier's portfolio via assignedCashier.
// @Tags Loans
// @Produce json
// @Param assignedCashier query string false "Limit the list to loans assigned to this cashier"
// @Param asOf query string false "Reference timestamp (ISO-8601), defaults to now"
// @Success 200 {array} dto.LoanRecord "List of loans"
// @Failure 400 {object} dto.ErrorResponse "Invalid asOf format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfFromQuery(r)
	if err != nil {
		respondError(w, err)
		return
	}
	assignedCashier := r.URL.Query().Get("assignedCashier")

	loans, err := h.service.ListLoans(r.Context(), assignedCashier, asOf)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list loans", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.LoanRecord, len(loans))
	for i, l := range loans {
		resp[i] = dto.NewLoanRecord(l)
	}

	h.logger.InfoContext(r.Context(), "Loans listed successfully", slog.Int("count", len(resp)))
	respondJSON(w, http.StatusOK, resp)
}

// PatchLoan handles PATCH /loans/{loanID}
// @Summary Review a loan or revise its schedule
// @Description With a status body field, decides a PENDING loan (APPROVED or DENIED). With a requestedAmount body field, recomputes the whole schedule from the new principal. Both require administrative capability.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID" Minimum(1)
// @Param request body dto.PatchLoanRequest true "Review decision or schedule revision"
// @Success 200 {object} dto.LoanRecord "Updated loan"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID or request payload"
// @Failure 403 {object} dto.ErrorResponse "Actor lacks the required capability"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 409 {object} dto.ErrorResponse "Loan is not in a state that allows the edit"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [patch]
// @Security BearerAuth
func (h *LoanHandler) PatchLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}
	actor, err := actorFromRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.PatchLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Loan patch validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var updated *loan.Loan
	if req.Status != nil {
		approve := loan.LoanStatus(*req.Status) == loan.StatusApproved
		updated, err = h.service.ReviewLoan(r.Context(), loanID, approve, actor.Role)
	} else {
		updated, err = h.service.ReviseSchedule(r.Context(), loanID, *req.RequestedAmount, actor.Role)
	}
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) &&
			!errors.Is(err, apperrors.ErrForbidden) &&
			!errors.Is(err, apperrors.ErrInvalidState) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to patch loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan patched successfully", slog.Int64("loanID", loanID))
	respondJSON(w, http.StatusOK, dto.NewLoanRecord(updated))
}

// GetBorrowerLoan handles GET /loans/borrower/{userID}
// @Summary Retrieve a borrower's loan
// @Description Retrieves the most recent loan for a borrower, with the full ledger.
// @Tags Loans
// @Produce json
// @Param userID path string true "Borrower user ID"
// @Param asOf query string false "Reference timestamp (ISO-8601), defaults to now"
// @Success 200 {object} dto.LoanRecord "Borrower's loan retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid asOf format"
// @Failure 404 {object} dto.ErrorResponse "No loan for this borrower"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/borrower/{userID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetBorrowerLoan(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, fmt.Errorf("%w: userID not found in URL path", apperrors.ErrInvalidArgument))
		return
	}
	asOf, err := asOfFromQuery(r)
	if err != nil {
		respondError(w, err)
		return
	}

	domainLoan, err := h.service.GetBorrowerLoan(r.Context(), userID, asOf)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get borrower loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanRecord(domainLoan))
}
