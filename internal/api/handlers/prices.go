package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/advisorkit/portfolio-backend/internal/api/request"
	"github.com/advisorkit/portfolio-backend/internal/api/response"
	"github.com/advisorkit/portfolio-backend/internal/apperrors"
	"github.com/advisorkit/portfolio-backend/internal/service"
	"github.com/advisorkit/portfolio-backend/internal/validation"
)

// PriceHandler handles HTTP requests for price and exchange rate endpoints,
// including manual imports and the market data sync trigger.
type PriceHandler struct {
	priceService      *service.PriceService
	marketDataService *service.MarketDataService
}

// NewPriceHandler creates a new PriceHandler with the provided service dependencies.
func NewPriceHandler(priceService *service.PriceService, marketDataService *service.MarketDataService) *PriceHandler {
	return &PriceHandler{
		priceService:      priceService,
		marketDataService: marketDataService,
	}
}

// Prices handles GET requests for one instrument's stored closing prices.
// Requires "start" and "end" date parameters in YYYY-MM-DD format.
//
// Endpoint: GET /api/price/{ticker}?start=2024-01-01&end=2024-12-31
// Response: 200 OK with array of PriceObservation
// Error: 400 Bad Request if the date range is invalid
// Error: 500 Internal Server Error if retrieval fails
func (h *PriceHandler) Prices(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	startDate, endDate, err := validation.ValidateDateRange(
		r.URL.Query().Get("start"),
		r.URL.Query().Get("end"),
	)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date range", err.Error())
		return
	}

	prices, err := h.priceService.GetPrices(ticker, startDate, endDate)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePrices.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, prices)
}

// FxRates handles GET requests for stored exchange rate observations.
//
// Endpoint: GET /api/fx?start=2024-01-01&end=2024-12-31
// Response: 200 OK with array of FxObservation
// Error: 400 Bad Request if the date range is invalid
// Error: 500 Internal Server Error if retrieval fails
func (h *PriceHandler) FxRates(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, err := validation.ValidateDateRange(
		r.URL.Query().Get("start"),
		r.URL.Query().Get("end"),
	)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date range", err.Error())
		return
	}

	rates, err := h.priceService.GetFxRates(startDate, endDate)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveFxRates.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, rates)
}

// ImportPrices handles POST requests to import closing prices manually,
// for instruments the quote provider does not cover.
//
// Endpoint: POST /api/price/import
// Request Body: ImportPricesRequest
// Response: 200 OK with {"imported": n}
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if the import fails
func (h *PriceHandler) ImportPrices(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ImportPricesRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateImportPrices(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	imported, err := h.priceService.ImportPrices(r.Context(), req)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToImportPrices.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]int{"imported": imported})
}

// ImportFxRates handles POST requests to import exchange rates manually.
//
// Endpoint: POST /api/fx/import
// Request Body: ImportFxRatesRequest
// Response: 200 OK with {"imported": n}
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if the import fails
func (h *PriceHandler) ImportFxRates(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ImportFxRatesRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateImportFxRates(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	imported, err := h.priceService.ImportFxRates(r.Context(), req)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToImportPrices.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]int{"imported": imported})
}

// StoreProviderToken handles POST requests to store the quote provider API
// token. The token is encrypted at rest and never returned by any endpoint.
//
// Endpoint: POST /api/price/token
// Request Body: ProviderTokenRequest
// Response: 204 No Content
// Error: 400 Bad Request if the token is missing or the body is invalid
// Error: 500 Internal Server Error if no encryption key is configured or storage fails
func (h *PriceHandler) StoreProviderToken(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ProviderTokenRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.Token == "" {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "token is required")
		return
	}

	if err := h.marketDataService.StoreProviderToken(r.Context(), req.Token); err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to store provider token", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// ProviderStatus handles GET requests for the provider integration state.
//
// Endpoint: GET /api/price/status
// Response: 200 OK with SyncStatus
func (h *PriceHandler) ProviderStatus(w http.ResponseWriter, r *http.Request) {
	response.RespondJSON(w, http.StatusOK, h.marketDataService.Status())
}

// Sync handles POST requests to trigger a market data synchronization run.
// Per-ticker failures are reported in the result without failing the run.
//
// Endpoint: POST /api/price/sync
// Response: 200 OK with SyncResult
// Error: 500 Internal Server Error if the run could not start
func (h *PriceHandler) Sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.marketDataService.Sync(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToSyncPrices.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
