package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zamcrop/irrigation-engine/pkg/auth"
	"github.com/zamcrop/irrigation-engine/pkg/models"
	"github.com/zamcrop/irrigation-engine/pkg/services"
)

// HistoryHandler exposes irrigation history records over HTTP.
type HistoryHandler struct {
	history    services.HistoryService
	windowDays int
	logger     *zap.Logger
}

// NewHistoryHandler creates a new history handler. windowDays is the window
// applied when a request omits ?days=.
func NewHistoryHandler(history services.HistoryService, windowDays int, logger *zap.Logger) *HistoryHandler {
	if windowDays < 1 {
		windowDays = 30
	}
	return &HistoryHandler{history: history, windowDays: windowDays, logger: logger}
}

// RegisterRoutes registers history routes behind auth middleware.
func (h *HistoryHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/history", authMiddleware.RequireAuth(h.Record))
	mux.HandleFunc("GET /api/history", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/history/field/{fieldID}", authMiddleware.RequireAuth(h.ListByField))
	mux.HandleFunc("POST /api/history/{id}/rating", authMiddleware.RequireAuth(h.Rate))
}

type recordHistoryRequest struct {
	FieldID             uuid.UUID `json:"field_id"`
	WaterAmountUsed     float64   `json:"water_amount_used"`
	Method              string    `json:"irrigation_method"`
	IrrigationDate      string    `json:"irrigation_date"`
	IrrigationTime      string    `json:"irrigation_time"`
	DurationMinutes     int       `json:"duration_minutes"`
	SoilMoistureBefore  *float64  `json:"soil_moisture_before,omitempty"`
	SoilMoistureAfter   *float64  `json:"soil_moisture_after,omitempty"`
	EffectivenessRating *int      `json:"effectiveness_rating,omitempty"`
	Notes               string    `json:"notes,omitempty"`
}

// Record handles POST /api/history for events performed outside a schedule.
func (h *HistoryHandler) Record(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Missing authentication")
		return
	}

	var req recordHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Malformed request body")
		return
	}
	if req.FieldID == uuid.Nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "field_id is required")
		return
	}

	date, timeOfDay, err := parseDateAndTime(req.IrrigationDate, req.IrrigationTime)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	record, err := h.history.Record(r.Context(), userID, services.RecordHistoryRequest{
		FieldID:             req.FieldID,
		WaterAmountUsed:     req.WaterAmountUsed,
		Method:              models.IrrigationMethod(req.Method),
		IrrigationDate:      date,
		IrrigationTime:      timeOfDay,
		DurationMinutes:     req.DurationMinutes,
		SoilMoistureBefore:  req.SoilMoistureBefore,
		SoilMoistureAfter:   req.SoilMoistureAfter,
		EffectivenessRating: req.EffectivenessRating,
		Notes:               req.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, record); err != nil {
		h.logger.Error("Failed to write history response", zap.Error(err))
	}
}

// List handles GET /api/history?days=N.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Missing authentication")
		return
	}

	days, ok := windowDaysParam(w, r, h.windowDays)
	if !ok {
		return
	}

	records, err := h.history.List(r.Context(), userID, days)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.writeRecords(w, records)
}

// ListByField handles GET /api/history/field/{fieldID}?days=N.
func (h *HistoryHandler) ListByField(w http.ResponseWriter, r *http.Request) {
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

	days, ok := windowDaysParam(w, r, h.windowDays)
	if !ok {
		return
	}

	records, err := h.history.ListByField(r.Context(), userID, fieldID, days)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.writeRecords(w, records)
}

type rateHistoryRequest struct {
	EffectivenessRating int `json:"effectiveness_rating"`
}

// Rate handles POST /api/history/{id}/rating.
func (h *HistoryHandler) Rate(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Missing authentication")
		return
	}

	recordID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_record_id", "Record id must be a UUID")
		return
	}

	var req rateHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Malformed request body")
		return
	}

	if err := h.history.RateEffectiveness(r.Context(), userID, recordID, req.EffectivenessRating); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"status": "rated"}); err != nil {
		h.logger.Error("Failed to write rating response", zap.Error(err))
	}
}

func (h *HistoryHandler) writeRecords(w http.ResponseWriter, records []*models.IrrigationHistoryRecord) {
	if records == nil {
		records = []*models.IrrigationHistoryRecord{}
	}
	if err := WriteJSON(w, http.StatusOK, records); err != nil {
		h.logger.Error("Failed to write history response", zap.Error(err))
	}
}

// windowDaysParam reads the optional ?days= query parameter, falling back to
// defaultDays when absent. It writes a 400 response and returns false when
// the value is not a positive integer.
func windowDaysParam(w http.ResponseWriter, r *http.Request, defaultDays int) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return defaultDays, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "days must be a positive integer")
		return 0, false
	}
	return days, true
}
