package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zamcrop/irrigation-engine/pkg/apperrors"
	"github.com/zamcrop/irrigation-engine/pkg/auth"
	"github.com/zamcrop/irrigation-engine/pkg/repositories"
)

// FieldsHandler exposes the field state updates the engine consumes.
type FieldsHandler struct {
	fields repositories.FieldSnapshotRepository
	logger *zap.Logger
}

// NewFieldsHandler creates a new fields handler.
func NewFieldsHandler(fields repositories.FieldSnapshotRepository, logger *zap.Logger) *FieldsHandler {
	return &FieldsHandler{fields: fields, logger: logger}
}

// RegisterRoutes registers field routes behind auth middleware.
func (h *FieldsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/fields/{fieldID}/moisture", authMiddleware.RequireAuth(h.UpdateMoisture))
}

type updateMoistureRequest struct {
	SoilMoisture float64 `json:"soil_moisture"`
}

// UpdateMoisture handles POST /api/fields/{fieldID}/moisture. Subsequent
// predictions see the new reading.
func (h *FieldsHandler) UpdateMoisture(w http.ResponseWriter, r *http.Request) {
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

	var req updateMoistureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Malformed request body")
		return
	}
	if req.SoilMoisture < 0 || req.SoilMoisture > 100 {
		writeError(w, h.logger, &apperrors.ValidationError{
			Field:   "soil_moisture",
			Message: "must be between 0 and 100",
		})
		return
	}

	if err := h.fields.UpdateSoilMoisture(r.Context(), userID, fieldID, req.SoilMoisture); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"field_id":      fieldID,
		"soil_moisture": req.SoilMoisture,
	}); err != nil {
		h.logger.Error("Failed to write moisture response", zap.Error(err))
	}
}
