package handlers

import (
	"errors"
	"net/http"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Health checks the health of the system and database connectivity.
// Running without a fetch history database is healthy; the dashboard does not need one.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	err := h.systemService.CheckHealth()
	switch {
	case errors.Is(err, apperrors.ErrDatabaseDisabled):
		respondJSON(w, http.StatusOK, HealthResponse{
			Status:   "healthy",
			Database: "disabled",
		})
		return
	case err != nil:
		response := HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		}
		respondJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	response := HealthResponse{
		Status:   "healthy",
		Database: "connected",
	}
	respondJSON(w, http.StatusOK, response)
}

// Version handles GET requests to retrieve version information and feature availability.
// Returns the application version, schema version, available features, and any pending migrations.
//
// Endpoint: GET /api/system/version
// Response: 200 OK with model.VersionInfo
// Error: 500 Internal Server Error if version check fails
func (h *SystemHandler) Version(w http.ResponseWriter, r *http.Request) {
	version, err := h.systemService.CheckVersion()
	if err != nil {
		errorResponse := map[string]string{
			"error":  apperrors.ErrFailedToGetVersionInfo.Error(),
			"detail": err.Error(),
		}
		respondJSON(w, http.StatusInternalServerError, errorResponse)
		return
	}

	respondJSON(w, http.StatusOK, version)
}
