package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/api/response"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/validation"
)

// maxBodyBytes bounds request bodies; every body of this API is a small JSON object.
const maxBodyBytes = 1 << 16

// DashboardResponse is the view state as served to the render layer,
// plus the converter result formatted for display.
type DashboardResponse struct {
	model.ViewState
	ConverterDisplay string `json:"converterDisplay,omitempty"`
}

// NewDashboardResponse wraps a view state for the API.
func NewDashboardResponse(state model.ViewState) DashboardResponse {
	symbol := state.SelectedAsset
	if state.Snapshot != nil && state.Snapshot.Symbol != "" {
		symbol = state.Snapshot.Symbol
	}
	return DashboardResponse{
		ViewState:        state,
		ConverterDisplay: state.Converter.Display(symbol),
	}
}

// decodeJSON decodes a JSON request body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Failed to encode JSON: %v", err)
		}
	}
}

// respondState writes the view state with 200 OK.
func respondState(w http.ResponseWriter, state model.ViewState) {
	respondJSON(w, http.StatusOK, NewDashboardResponse(state))
}

// respondFetchResult writes the view state after a fetch-triggering call.
// A failed or slow provider is reported inside the view state, not as an HTTP error.
func respondFetchResult(w http.ResponseWriter, state model.ViewState, err error) {
	if err != nil && !errors.Is(err, apperrors.ErrFetchFailed) && !errors.Is(err, context.DeadlineExceeded) {
		respondServiceError(w, err)
		return
	}
	respondState(w, state)
}

// respondServiceError maps service and validation errors to HTTP status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, apperrors.ErrUnknownAsset),
		errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrInvalidThreshold),
		errors.Is(err, apperrors.ErrInvalidDirection),
		errors.Is(err, apperrors.ErrInvalidAmount):
		response.RespondError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, apperrors.ErrFetchCycleNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrFetchCycleNotFound.Error(), err.Error())
	default:
		log.Printf("Unhandled service error: %v", err)
		response.RespondError(w, http.StatusInternalServerError, "internal server error", err.Error())
	}
}
