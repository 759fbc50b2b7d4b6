package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/api/request"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/api/response"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/validation"
)

// DashboardHandler handles the dashboard view state and the user intents that change it
type DashboardHandler struct {
	dashboardService *service.DashboardService
	fetchTimeout     time.Duration
}

// NewDashboardHandler creates a new DashboardHandler.
// fetchTimeout bounds how long a fetch-triggering request waits for its cycle.
func NewDashboardHandler(dashboardService *service.DashboardService, fetchTimeout time.Duration) *DashboardHandler {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &DashboardHandler{
		dashboardService: dashboardService,
		fetchTimeout:     fetchTimeout,
	}
}

// fetchContext detaches the fetch from the request so a client disconnect does not
// abort a cycle other callers may share.
func (h *DashboardHandler) fetchContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), h.fetchTimeout)
}

// Dashboard handles GET requests for the current view state.
//
// Endpoint: GET /api/dashboard
// Response: 200 OK with DashboardResponse
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	respondState(w, h.dashboardService.State())
}

// SelectAsset switches the selected coin and fetches its data.
//
// Endpoint: PUT /api/dashboard/asset
// Request: {"id": "ethereum"}
// Response: 200 OK with DashboardResponse (fetch errors are carried in the view state)
// Error: 400 Bad Request if the body is invalid or the coin is unknown
func (h *DashboardHandler) SelectAsset(w http.ResponseWriter, r *http.Request) {
	var req request.SelectAssetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateSelectAsset(req, h.dashboardService.Coins()); err != nil {
		respondServiceError(w, err)
		return
	}

	ctx, cancel := h.fetchContext(r)
	defer cancel()

	state, err := h.dashboardService.SelectAsset(ctx, req.ID)
	respondFetchResult(w, state, err)
}

// SetDateRange changes the historical range and fetches again.
//
// Endpoint: PUT /api/dashboard/range
// Request: {"startDate": "2024-01-01", "endDate": "2024-01-31"} (either may be omitted)
// Response: 200 OK with DashboardResponse
// Error: 400 Bad Request if a date is malformed or the end precedes the start
func (h *DashboardHandler) SetDateRange(w http.ResponseWriter, r *http.Request) {
	var req request.DateRangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	start, end, err := validation.ValidateDateRange(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	ctx, cancel := h.fetchContext(r)
	defer cancel()

	state, err := h.dashboardService.SetDateRange(ctx, start, end)
	respondFetchResult(w, state, err)
}

// Refresh runs a manual fetch cycle for the current selection.
//
// Endpoint: POST /api/dashboard/refresh
// Response: 200 OK with DashboardResponse
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.fetchContext(r)
	defer cancel()

	state, err := h.dashboardService.Refresh(ctx, model.TriggerManual)
	respondFetchResult(w, state, err)
}

// SetAlert sets or clears the alert threshold.
//
// Endpoint: PUT /api/dashboard/alert
// Request: {"threshold": 2000} or {"threshold": null}
// Response: 200 OK with DashboardResponse
// Error: 400 Bad Request if the threshold is negative
func (h *DashboardHandler) SetAlert(w http.ResponseWriter, r *http.Request) {
	var req request.AlertThresholdRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateAlertThreshold(req); err != nil {
		respondServiceError(w, err)
		return
	}

	state, err := h.dashboardService.SetAlertThreshold(req.Threshold)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondState(w, state)
}

// DismissAlert hides the alert.
//
// Endpoint: DELETE /api/dashboard/alert
func (h *DashboardHandler) DismissAlert(w http.ResponseWriter, r *http.Request) {
	respondState(w, h.dashboardService.DismissAlert())
}

// DismissError clears the fetch error banner.
//
// Endpoint: DELETE /api/dashboard/error
func (h *DashboardHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	respondState(w, h.dashboardService.DismissError())
}

// SetConverter updates the converter amount and/or direction.
//
// Endpoint: PUT /api/dashboard/converter
// Request: {"amount": "100", "direction": "usdToCoin"}
// Response: 200 OK with DashboardResponse
// Error: 400 Bad Request if the direction is unknown
func (h *DashboardHandler) SetConverter(w http.ResponseWriter, r *http.Request) {
	var req request.ConverterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateConverter(req); err != nil {
		respondServiceError(w, err)
		return
	}

	var amount *string
	if req.Amount != nil {
		a := string(*req.Amount)
		amount = &a
	}
	var direction *model.ConversionDirection
	if req.Direction != nil {
		d := model.ConversionDirection(*req.Direction)
		direction = &d
	}

	state, err := h.dashboardService.SetConverter(amount, direction)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondState(w, state)
}

// Convert resolves the converter amount against the current price.
// Unusable input yields no result rather than an error.
//
// Endpoint: POST /api/dashboard/converter/convert
func (h *DashboardHandler) Convert(w http.ResponseWriter, r *http.Request) {
	respondState(w, h.dashboardService.Convert())
}

// Coins handles GET requests for the selectable coins.
//
// Endpoint: GET /api/coin
// Response: 200 OK with []model.Coin
func (h *DashboardHandler) Coins(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.dashboardService.Coins())
}

// FetchHistory lists recorded fetch cycles, newest first.
//
// Endpoint: GET /api/dashboard/fetches?asset=bitcoin&limit=20
// Response: 200 OK with []model.FetchCycle
// Error: 400 Bad Request for an invalid limit, 500 if the history cannot be read
func (h *DashboardHandler) FetchHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := request.ParseFetchHistoryFilter(r.URL.Query().Get("asset"), r.URL.Query().Get("limit"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	cycles, err := h.dashboardService.FetchHistory(r.Context(), filter)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveFetchHistory.Error(), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, cycles)
}

// FetchCycle returns one recorded fetch cycle.
//
// Endpoint: GET /api/dashboard/fetches/{uuid}
// Response: 200 OK with model.FetchCycle
// Error: 404 Not Found if no cycle has that ID
func (h *DashboardHandler) FetchCycle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")

	cycle, err := h.dashboardService.FetchCycle(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cycle)
}
