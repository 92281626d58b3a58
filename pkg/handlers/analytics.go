package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zamcrop/irrigation-engine/pkg/auth"
	"github.com/zamcrop/irrigation-engine/pkg/services"
)

// AnalyticsHandler exposes aggregated water usage and efficiency reports.
type AnalyticsHandler struct {
	analytics  services.AnalyticsService
	windowDays int
	logger     *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler. windowDays is the
// window applied when a request omits ?days=.
func NewAnalyticsHandler(analytics services.AnalyticsService, windowDays int, logger *zap.Logger) *AnalyticsHandler {
	if windowDays < 1 {
		windowDays = 30
	}
	return &AnalyticsHandler{analytics: analytics, windowDays: windowDays, logger: logger}
}

// RegisterRoutes registers analytics routes behind auth middleware.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/analytics/water-usage", authMiddleware.RequireAuth(h.WaterUsage))
	mux.HandleFunc("GET /api/analytics/efficiency", authMiddleware.RequireAuth(h.Efficiency))
	mux.HandleFunc("GET /api/analytics/field/{fieldID}", authMiddleware.RequireAuth(h.FieldAnalytics))
}

// WaterUsage handles GET /api/analytics/water-usage?days=N.
func (h *AnalyticsHandler) WaterUsage(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Missing authentication")
		return
	}

	days, ok := windowDaysParam(w, r, h.windowDays)
	if !ok {
		return
	}

	stats, err := h.analytics.WaterUsageStats(r.Context(), userID, days)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, stats); err != nil {
		h.logger.Error("Failed to write water usage response", zap.Error(err))
	}
}

// Efficiency handles GET /api/analytics/efficiency?days=N.
func (h *AnalyticsHandler) Efficiency(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Missing authentication")
		return
	}

	days, ok := windowDaysParam(w, r, h.windowDays)
	if !ok {
		return
	}

	report, err := h.analytics.EfficiencyReport(r.Context(), userID, days)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to write efficiency response", zap.Error(err))
	}
}

// FieldAnalytics handles GET /api/analytics/field/{fieldID}?days=N.
func (h *AnalyticsHandler) FieldAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Missing authentication")
		return
	}

	fieldID, err := uuid.Parse(r.PathValue("fieldID"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_field_id", "Field id must be a UUID")
		return
	}

	days, ok := windowDaysParam(w, r, services.FieldAnalyticsWindowDays)
	if !ok {
		return
	}

	report, err := h.analytics.FieldAnalytics(r.Context(), userID, fieldID, days)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to write field analytics response", zap.Error(err))
	}
}
