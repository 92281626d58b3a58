// Package handlers contains thin HTTP adapters over the engine services.
// Business rules live in pkg/services; handlers only decode, dispatch, and
// encode.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/zamcrop/irrigation-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeError maps a service error onto the HTTP taxonomy. Every branch
// includes enough structured detail to render an actionable message.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		validationErr *apperrors.ValidationError
		fieldStateErr *apperrors.InvalidFieldStateError
		weatherErr    *apperrors.InvalidWeatherError
		duplicateErr  *apperrors.DuplicateActiveScheduleError
		transitionErr *apperrors.InvalidTransitionError
		predictionErr *apperrors.PredictionError
	)

	switch {
	case errors.As(err, &validationErr):
		writeDetailedError(w, logger, http.StatusBadRequest, "validation_error", validationErr.Error(), map[string]any{
			"field": validationErr.Field,
		})
	case errors.As(err, &fieldStateErr):
		writeDetailedError(w, logger, http.StatusBadRequest, "invalid_field_state", fieldStateErr.Error(), map[string]any{
			"field": fieldStateErr.Field,
		})
	case errors.As(err, &weatherErr):
		writeDetailedError(w, logger, http.StatusBadRequest, "invalid_weather", weatherErr.Error(), map[string]any{
			"field": weatherErr.Field,
		})
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrNotOwned):
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", "Resource not found")
	case errors.As(err, &duplicateErr):
		writeDetailedError(w, logger, http.StatusConflict, "duplicate_active_schedule", duplicateErr.Error(), map[string]any{
			"field_id":             duplicateErr.FieldID.String(),
			"existing_schedule_id": duplicateErr.ExistingID.String(),
		})
	case errors.As(err, &transitionErr):
		writeDetailedError(w, logger, http.StatusConflict, "invalid_transition", transitionErr.Error(), map[string]any{
			"schedule_id":    transitionErr.ScheduleID.String(),
			"current_status": transitionErr.Current,
		})
	case errors.Is(err, apperrors.ErrConcurrentModification):
		writeDetailedError(w, logger, http.StatusConflict, "concurrent_modification",
			"The schedule was modified by another request; retry with fresh state", map[string]any{
				"retryable": true,
			})
	case errors.As(err, &predictionErr), errors.Is(err, apperrors.ErrModelUnavailable):
		logger.Error("Prediction failure", zap.Error(err))
		_ = ErrorResponse(w, http.StatusBadGateway, "prediction_failed", "Prediction is currently unavailable")
	default:
		logger.Error("Unhandled service error", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func writeDetailedError(w http.ResponseWriter, logger *zap.Logger, statusCode int, errorCode, message string, detail map[string]any) {
	body := map[string]any{
		"error":   errorCode,
		"message": message,
	}
	for k, v := range detail {
		body[k] = v
	}
	if err := WriteJSON(w, statusCode, body); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
