package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zamcrop/irrigation-engine/pkg/auth"
	"github.com/zamcrop/irrigation-engine/pkg/models"
	"github.com/zamcrop/irrigation-engine/pkg/services"
)

var (
	errInvalidDate = errors.New("irrigation_date must be in YYYY-MM-DD format")
	errInvalidTime = errors.New("irrigation_time must be in HH:MM format")
)

// SchedulesHandler exposes the schedule lifecycle over HTTP.
type SchedulesHandler struct {
	schedules services.ScheduleService
	logger    *zap.Logger
}

// NewSchedulesHandler creates a new schedules handler.
func NewSchedulesHandler(schedules services.ScheduleService, logger *zap.Logger) *SchedulesHandler {
	return &SchedulesHandler{schedules: schedules, logger: logger}
}

// RegisterRoutes registers schedule routes behind auth middleware.
func (h *SchedulesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/schedules/generate", authMiddleware.RequireAuth(h.Generate))
	mux.HandleFunc("GET /api/schedules", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/schedules/pending", authMiddleware.RequireAuth(h.ListPending))
	mux.HandleFunc("GET /api/schedules/overdue", authMiddleware.RequireAuth(h.ListOverdue))
	mux.HandleFunc("POST /api/schedules/{id}/confirm", authMiddleware.RequireAuth(h.Confirm))
	mux.HandleFunc("POST /api/schedules/{id}/skip", authMiddleware.RequireAuth(h.Skip))
	mux.HandleFunc("POST /api/schedules/{id}/cancel", authMiddleware.RequireAuth(h.Cancel))
	mux.HandleFunc("POST /api/schedules/{id}/complete", authMiddleware.RequireAuth(h.Complete))
}

type generateScheduleRequest struct {
	FieldID uuid.UUID `json:"field_id"`
}

// Generate handles POST /api/schedules/generate.
func (h *SchedulesHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Missing authentication")
		return
	}

	var req generateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FieldID == uuid.Nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "field_id is required")
		return
	}

	schedule, err := h.schedules.Generate(r.Context(), userID, req.FieldID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, schedule); err != nil {
		h.logger.Error("Failed to write schedule response", zap.Error(err))
	}
}

// Confirm handles POST /api/schedules/{id}/confirm.
func (h *SchedulesHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.schedules.Confirm)
}

// Skip handles POST /api/schedules/{id}/skip.
func (h *SchedulesHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.schedules.Skip)
}

// Cancel handles POST /api/schedules/{id}/cancel.
func (h *SchedulesHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.schedules.Cancel)
}

func (h *SchedulesHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, userID, scheduleID uuid.UUID) (*models.IrrigationSchedule, error),
) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Missing authentication")
		return
	}

	scheduleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_schedule_id", "Schedule id must be a UUID")
		return
	}

	schedule, err := op(r.Context(), userID, scheduleID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, schedule); err != nil {
		h.logger.Error("Failed to write schedule response", zap.Error(err))
	}
}

type completeScheduleRequest struct {
	WaterAmountUsed     float64  `json:"water_amount_used"`
	Method              string   `json:"irrigation_method"`
	IrrigationDate      string   `json:"irrigation_date"` // YYYY-MM-DD
	IrrigationTime      string   `json:"irrigation_time"` // HH:MM
	DurationMinutes     int      `json:"duration_minutes"`
	SoilMoistureBefore  *float64 `json:"soil_moisture_before,omitempty"`
	SoilMoistureAfter   *float64 `json:"soil_moisture_after,omitempty"`
	EffectivenessRating *int     `json:"effectiveness_rating,omitempty"`
	Notes               string   `json:"notes,omitempty"`
}

// Complete handles POST /api/schedules/{id}/complete.
func (h *SchedulesHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Missing authentication")
		return
	}

	scheduleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_schedule_id", "Schedule id must be a UUID")
		return
	}

	var req completeScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Malformed request body")
		return
	}

	date, timeOfDay, err := parseDateAndTime(req.IrrigationDate, req.IrrigationTime)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	schedule, err := h.schedules.Complete(r.Context(), userID, scheduleID, services.CompleteScheduleRequest{
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

	if err := WriteJSON(w, http.StatusOK, schedule); err != nil {
		h.logger.Error("Failed to write schedule response", zap.Error(err))
	}
}

// List handles GET /api/schedules with an optional status filter.
func (h *SchedulesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Missing authentication")
		return
	}

	var schedules []*models.IrrigationSchedule
	if status := r.URL.Query().Get("status"); status != "" {
		schedules, err = h.schedules.ListByStatus(r.Context(), userID, models.ScheduleStatus(status))
	} else {
		schedules, err = h.schedules.ListAll(r.Context(), userID)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.writeList(w, schedules)
}

// ListPending handles GET /api/schedules/pending.
func (h *SchedulesHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, h.schedules.ListPending)
}

// ListOverdue handles GET /api/schedules/overdue.
func (h *SchedulesHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, h.schedules.ListOverdue)
}

func (h *SchedulesHandler) listWith(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, userID uuid.UUID) ([]*models.IrrigationSchedule, error),
) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Missing authentication")
		return
	}

	schedules, err := op(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.writeList(w, schedules)
}

func (h *SchedulesHandler) writeList(w http.ResponseWriter, schedules []*models.IrrigationSchedule) {
	if schedules == nil {
		schedules = []*models.IrrigationSchedule{}
	}
	if err := WriteJSON(w, http.StatusOK, schedules); err != nil {
		h.logger.Error("Failed to write schedules response", zap.Error(err))
	}
}

// parseDateAndTime parses the wire date (YYYY-MM-DD) and time (HH:MM or
// HH:MM:SS) fields shared by completion and ad-hoc history payloads.
func parseDateAndTime(dateStr, timeStr string) (time.Time, time.Time, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidDate
	}

	var timeOfDay time.Time
	if timeStr == "" {
		return date, timeOfDay, nil
	}
	timeOfDay, err = time.Parse("15:04:05", timeStr)
	if err != nil {
		timeOfDay, err = time.Parse("15:04", timeStr)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidTime
		}
	}
	return date, timeOfDay, nil
}
