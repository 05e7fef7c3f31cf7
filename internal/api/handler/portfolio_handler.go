package handler

import (
	"log/slog"
	"net/http"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/loan"
)

type PortfolioHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewPortfolioHandler(s loan.LoanService, l *slog.Logger) *PortfolioHandler {
	if s == nil {
		panic("loan service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &PortfolioHandler{
		service: s,
		logger:  l.With("component", "PortfolioHandler"),
	}
}

// GetSummary handles GET /portfolio/summary
// @Summary Portfolio dashboard statistics
// @Description Aggregates loan counts, expected daily collection, today's approved collections and the pending approval backlog. Scoped to one cashier's portfolio when assignedCashier is given.
// @Tags Portfolio
// @Produce json
// @Param assignedCashier query string false "Limit totals to loans assigned to this cashier"
// @Param asOf query string false "Reference timestamp (ISO-8601), defaults to now"
// @Success 200 {object} dto.PortfolioSummaryResponse "Aggregated portfolio totals"
// @Failure 400 {object} dto.ErrorResponse "Invalid asOf format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /portfolio/summary [get]
// @Security BearerAuth
func (h *PortfolioHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfFromQuery(r)
	if err != nil {
		respondError(w, err)
		return
	}
	assignedCashier := r.URL.Query().Get("assignedCashier")

	summary, err := h.service.PortfolioSummary(r.Context(), assignedCashier, asOf)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to summarize portfolio", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Portfolio summarized",
		slog.String("assignedCashier", assignedCashier), slog.Int("totalLoans", summary.TotalLoans))
	respondJSON(w, http.StatusOK, dto.NewPortfolioSummaryResponse(summary))
}
