package handlers

import (
	"net/http"

	"github.com/advisorkit/portfolio-backend/internal/api/response"
	"github.com/advisorkit/portfolio-backend/internal/apperrors"
	"github.com/advisorkit/portfolio-backend/internal/service"
	"github.com/advisorkit/portfolio-backend/internal/validation"
)

// PortfolioHandler handles HTTP requests for the derived portfolio views:
// current holdings, valuation history, and per-account totals.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler with the provided service dependency.
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// Holdings handles GET requests for the current holdings table.
// The optional "accounts" query parameter restricts the scope to a
// comma-separated set of account IDs; absent means all accounts.
//
// Endpoint: GET /api/portfolio/holdings?accounts=id1,id2
// Response: 200 OK with array of HoldingView
// Error: 400 Bad Request if an account ID is not a valid UUID
// Error: 500 Internal Server Error if computation fails
func (h *PortfolioHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	accountIDs := accountsParam(r)
	if err := validation.ValidateUUIDs(accountIDs); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid account selection", err.Error())
		return
	}

	holdings, err := h.portfolioService.GetHoldings(accountIDs)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveHoldings.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, holdings)
}

// History handles GET requests for the historical valuation series.
// Requires "start" and "end" date parameters in YYYY-MM-DD format; the
// optional "accounts" parameter restricts the scope.
//
// Endpoint: GET /api/portfolio/history?start=2024-01-01&end=2024-12-31&accounts=id1
// Response: 200 OK with array of ValuationPoint
// Error: 400 Bad Request if dates are malformed, start is after end, or an account ID is invalid
// Error: 500 Internal Server Error if reconstruction fails
func (h *PortfolioHandler) History(w http.ResponseWriter, r *http.Request) {
	accountIDs := accountsParam(r)
	if err := validation.ValidateUUIDs(accountIDs); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid account selection", err.Error())
		return
	}

	startDate, endDate, err := validation.ValidateDateRange(
		r.URL.Query().Get("start"),
		r.URL.Query().Get("end"),
	)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date range", err.Error())
		return
	}

	points, err := h.portfolioService.GetValuationHistory(accountIDs, startDate, endDate)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveHistory.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, points)
}

// AccountTotals handles GET requests for the per-account summary table.
// Every stored account appears with its invested amount and market value as
// of today; unassigned transactions are grouped under an empty account ID.
//
// Endpoint: GET /api/portfolio/accounts
// Response: 200 OK with array of AccountTotalsResponse
// Error: 500 Internal Server Error if computation fails
func (h *PortfolioHandler) AccountTotals(w http.ResponseWriter, _ *http.Request) {
	totals, err := h.portfolioService.GetAccountTotals()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveHoldings.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, totals)
}
