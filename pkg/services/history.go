package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zamcrop/irrigation-engine/pkg/apperrors"
	"github.com/zamcrop/irrigation-engine/pkg/models"
	"github.com/zamcrop/irrigation-engine/pkg/repositories"
)

// RecordHistoryRequest is an ad-hoc irrigation event logged outside any
// schedule.
type RecordHistoryRequest struct {
	FieldID             uuid.UUID
	WaterAmountUsed     float64
	Method              models.IrrigationMethod
	IrrigationDate      time.Time
	IrrigationTime      time.Time
	DurationMinutes     int
	SoilMoistureBefore  *float64
	SoilMoistureAfter   *float64
	EffectivenessRating *int
	Notes               string
}

// HistoryService records and lists factual irrigation events.
type HistoryService interface {
	Record(ctx context.Context, userID uuid.UUID, req RecordHistoryRequest) (*models.IrrigationHistoryRecord, error)
	List(ctx context.Context, userID uuid.UUID, windowDays int) ([]*models.IrrigationHistoryRecord, error)
	ListByField(ctx context.Context, userID, fieldID uuid.UUID, windowDays int) ([]*models.IrrigationHistoryRecord, error)
	// RateEffectiveness adds the one mutation history records allow.
	RateEffectiveness(ctx context.Context, userID, recordID uuid.UUID, rating int) error
}

type historyService struct {
	history    repositories.HistoryRepository
	fields     repositories.FieldSnapshotRepository
	windowDays int
	logger     *zap.Logger
}

// NewHistoryService creates a new history service. defaultWindowDays is used
// when a caller passes a non-positive window.
func NewHistoryService(
	history repositories.HistoryRepository,
	fields repositories.FieldSnapshotRepository,
	defaultWindowDays int,
	logger *zap.Logger,
) HistoryService {
	if defaultWindowDays < 1 {
		defaultWindowDays = 30
	}
	return &historyService{
		history:    history,
		fields:     fields,
		windowDays: defaultWindowDays,
		logger:     logger.Named("history-service"),
	}
}

func (s *historyService) Record(ctx context.Context, userID uuid.UUID, req RecordHistoryRequest) (*models.IrrigationHistoryRecord, error) {
	if err := validateCompleteRequest(CompleteScheduleRequest{
		WaterAmountUsed:     req.WaterAmountUsed,
		Method:              req.Method,
		IrrigationDate:      req.IrrigationDate,
		IrrigationTime:      req.IrrigationTime,
		DurationMinutes:     req.DurationMinutes,
		EffectivenessRating: req.EffectivenessRating,
	}); err != nil {
		return nil, err
	}

	// Field ownership check before writing.
	snapshot, err := s.fields.GetSnapshot(ctx, userID, req.FieldID)
	if err != nil {
		return nil, err
	}

	record := &models.IrrigationHistoryRecord{
		FieldID:             snapshot.FieldID,
		UserID:              userID,
		FieldName:           snapshot.Name,
		WaterAmountUsed:     req.WaterAmountUsed,
		Method:              req.Method,
		IrrigationDate:      req.IrrigationDate,
		IrrigationTime:      req.IrrigationTime,
		DurationMinutes:     req.DurationMinutes,
		SoilMoistureBefore:  req.SoilMoistureBefore,
		SoilMoistureAfter:   req.SoilMoistureAfter,
		EffectivenessRating: req.EffectivenessRating,
		Notes:               req.Notes,
	}

	if err := s.history.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("Recorded irrigation event",
		zap.String("record_id", record.ID.String()),
		zap.String("field_id", record.FieldID.String()),
		zap.Float64("water_used", record.WaterAmountUsed))

	return record, nil
}

func (s *historyService) List(ctx context.Context, userID uuid.UUID, windowDays int) ([]*models.IrrigationHistoryRecord, error) {
	return s.history.ListSince(ctx, userID, s.windowStart(windowDays))
}

func (s *historyService) ListByField(ctx context.Context, userID, fieldID uuid.UUID, windowDays int) ([]*models.IrrigationHistoryRecord, error) {
	return s.history.ListByField(ctx, userID, fieldID, s.windowStart(windowDays))
}

func (s *historyService) RateEffectiveness(ctx context.Context, userID, recordID uuid.UUID, rating int) error {
	if rating < 1 || rating > 5 {
		return &apperrors.ValidationError{Field: "effectiveness_rating", Message: "must be between 1 and 5"}
	}
	return s.history.SetEffectivenessRating(ctx, userID, recordID, rating)
}

func (s *historyService) windowStart(windowDays int) time.Time {
	if windowDays < 1 {
		windowDays = s.windowDays
	}
	return time.Now().UTC().AddDate(0, 0, -windowDays)
}

var _ HistoryService = (*historyService)(nil)
