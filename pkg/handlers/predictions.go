package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zamcrop/irrigation-engine/pkg/auth"
	"github.com/zamcrop/irrigation-engine/pkg/services"
)

// PredictionsHandler exposes on-demand predictions. GET only: predicting
// never persists anything.
type PredictionsHandler struct {
	prediction services.PredictionService
	logger     *zap.Logger
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(prediction services.PredictionService, logger *zap.Logger) *PredictionsHandler {
	return &PredictionsHandler{prediction: prediction, logger: logger}
}

// RegisterRoutes registers prediction routes behind auth middleware.
func (h *PredictionsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/predictions", authMiddleware.RequireAuth(h.PredictAll))
	mux.HandleFunc("GET /api/predictions/{fieldID}", authMiddleware.RequireAuth(h.Predict))
}

// Predict handles GET /api/predictions/{fieldID}.
func (h *PredictionsHandler) Predict(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.prediction.Predict(r.Context(), userID, fieldID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write prediction response", zap.Error(err))
	}
}

// PredictAll handles GET /api/predictions: one prediction per active field.
func (h *PredictionsHandler) PredictAll(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Missing authentication")
		return
	}

	results, err := h.prediction.PredictAll(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, results); err != nil {
		h.logger.Error("Failed to write predictions response", zap.Error(err))
	}
}
