package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zamcrop/irrigation-engine/pkg/apperrors"
	"github.com/zamcrop/irrigation-engine/pkg/metrics"
	"github.com/zamcrop/irrigation-engine/pkg/models"
	"github.com/zamcrop/irrigation-engine/pkg/repositories"
)

// CompleteScheduleRequest carries the history payload recorded when a
// schedule is marked completed.
type CompleteScheduleRequest struct {
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

// ScheduleService owns the irrigation schedule state machine. It is the
// only component that mutates schedules.
type ScheduleService interface {
	Generate(ctx context.Context, userID, fieldID uuid.UUID) (*models.IrrigationSchedule, error)
	Confirm(ctx context.Context, userID, scheduleID uuid.UUID) (*models.IrrigationSchedule, error)
	Skip(ctx context.Context, userID, scheduleID uuid.UUID) (*models.IrrigationSchedule, error)
	Cancel(ctx context.Context, userID, scheduleID uuid.UUID) (*models.IrrigationSchedule, error)
	Complete(ctx context.Context, userID, scheduleID uuid.UUID, req CompleteScheduleRequest) (*models.IrrigationSchedule, error)
	ListPending(ctx context.Context, userID uuid.UUID) ([]*models.IrrigationSchedule, error)
	ListOverdue(ctx context.Context, userID uuid.UUID) ([]*models.IrrigationSchedule, error)
	ListByStatus(ctx context.Context, userID uuid.UUID, status models.ScheduleStatus) ([]*models.IrrigationSchedule, error)
	ListAll(ctx context.Context, userID uuid.UUID) ([]*models.IrrigationSchedule, error)
}

type scheduleService struct {
	schedules  repositories.ScheduleRepository
	prediction PredictionService
	leadDays   int
	now        func() time.Time
	logger     *zap.Logger
}

// NewScheduleService creates the schedule lifecycle manager. leadDays is
// how far ahead a generated schedule is recommended (normally 1: tomorrow).
func NewScheduleService(
	schedules repositories.ScheduleRepository,
	prediction PredictionService,
	leadDays int,
	logger *zap.Logger,
) ScheduleService {
	if leadDays < 1 {
		leadDays = 1
	}
	return &scheduleService{
		schedules:  schedules,
		prediction: prediction,
		leadDays:   leadDays,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.Named("schedule-service"),
	}
}

// irrigationWindows is the optimal start-of-irrigation hour per crop.
// Rice prefers the earliest window; cotton later to avoid dew.
var irrigationWindows = map[models.CropType]int{
	models.CropRice:   5,
	models.CropMaize:  6,
	models.CropCotton: 7,
}

const defaultIrrigationHour = 6

func (s *scheduleService) Generate(ctx context.Context, userID, fieldID uuid.UUID) (*models.IrrigationSchedule, error) {
	// Fail fast when an active schedule exists; the partial unique index is
	// the backstop for two racing generates.
	if existing, err := s.schedules.FindActiveByField(ctx, userID, fieldID); err == nil {
		return nil, &apperrors.DuplicateActiveScheduleError{FieldID: fieldID, ExistingID: existing.ID}
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	prediction, err := s.prediction.Predict(ctx, userID, fieldID)
	if err != nil {
		return nil, err
	}

	hour := defaultIrrigationHour
	if crop, ok := prediction.Input["CropType"].(string); ok {
		if h, ok := irrigationWindows[models.CropType(crop)]; ok {
			hour = h
		}
	}

	now := s.now()
	recommendedDate := now.AddDate(0, 0, s.leadDays).Truncate(24 * time.Hour)

	schedule := &models.IrrigationSchedule{
		FieldID:              fieldID,
		UserID:               userID,
		FieldName:            prediction.FieldName,
		PredictedWaterAmount: prediction.WaterAmount,
		ConfidenceScore:      prediction.Confidence,
		IrrigationReason:     prediction.Reason,
		RecommendedDate:      recommendedDate,
		RecommendedTime:      time.Date(0, time.January, 1, hour, 0, 0, 0, time.UTC),
		Priority:             prediction.Priority,
		Status:               models.StatusPending,
		ModelInput:           prediction.Input,
	}

	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, err
	}

	s.logger.Info("Generated irrigation schedule",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("field_id", fieldID.String()),
		zap.Float64("water_amount", prediction.WaterAmount),
		zap.String("priority", string(prediction.Priority)))
	metrics.ScheduleTransitions.WithLabelValues(string(models.StatusPending)).Inc()

	return schedule, nil
}

func (s *scheduleService) Confirm(ctx context.Context, userID, scheduleID uuid.UUID) (*models.IrrigationSchedule, error) {
	return s.transition(ctx, userID, scheduleID, models.StatusConfirmed)
}

func (s *scheduleService) Skip(ctx context.Context, userID, scheduleID uuid.UUID) (*models.IrrigationSchedule, error) {
	return s.transition(ctx, userID, scheduleID, models.StatusSkipped)
}

func (s *scheduleService) Cancel(ctx context.Context, userID, scheduleID uuid.UUID) (*models.IrrigationSchedule, error) {
	return s.transition(ctx, userID, scheduleID, models.StatusCancelled)
}

// transition performs one state-machine step. Re-applying the target status
// is idempotent and returns the current row; an illegal step returns
// InvalidTransitionError carrying the current status. A CAS loss against a
// concurrent writer is retried once with fresh state before surfacing
// ErrConcurrentModification.
func (s *scheduleService) transition(ctx context.Context, userID, scheduleID uuid.UUID, to models.ScheduleStatus) (*models.IrrigationSchedule, error) {
	var result *models.IrrigationSchedule

	attempt := func() error {
		schedule, err := s.schedules.GetByID(ctx, userID, scheduleID)
		if err != nil {
			return backoff.Permanent(err)
		}

		if schedule.Status == to {
			result = schedule
			return nil
		}
		if !models.CanTransition(schedule.Status, to) {
			return backoff.Permanent(&apperrors.InvalidTransitionError{
				ScheduleID: scheduleID,
				Current:    string(schedule.Status),
				Attempted:  string(to),
			})
		}

		updated, err := s.schedules.UpdateStatus(ctx, userID, scheduleID, schedule.Status, to)
		if err != nil {
			if errors.Is(err, apperrors.ErrConcurrentModification) {
				metrics.TransitionConflicts.Inc()
				return err // retryable: re-read and re-evaluate
			}
			return backoff.Permanent(err)
		}

		metrics.ScheduleTransitions.WithLabelValues(string(to)).Inc()
		result = updated
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(50*time.Millisecond), 1)
	if err := backoff.Retry(attempt, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *scheduleService) Complete(ctx context.Context, userID, scheduleID uuid.UUID, req CompleteScheduleRequest) (*models.IrrigationSchedule, error) {
	if err := validateCompleteRequest(req); err != nil {
		return nil, err
	}

	schedule, err := s.schedules.GetByID(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(schedule.Status, models.StatusCompleted) {
		return nil, &apperrors.InvalidTransitionError{
			ScheduleID: scheduleID,
			Current:    string(schedule.Status),
			Attempted:  string(models.StatusCompleted),
		}
	}

	record := &models.IrrigationHistoryRecord{
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

	completed, err := s.schedules.CompleteWithHistory(ctx, userID, scheduleID, record)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Completed irrigation schedule",
		zap.String("schedule_id", scheduleID.String()),
		zap.Float64("water_used", req.WaterAmountUsed))
	metrics.ScheduleTransitions.WithLabelValues(string(models.StatusCompleted)).Inc()

	return completed, nil
}

func validateCompleteRequest(req CompleteScheduleRequest) error {
	if req.WaterAmountUsed < 0 {
		return &apperrors.ValidationError{Field: "water_amount_used", Message: "must be non-negative"}
	}
	if !models.ValidIrrigationMethod(req.Method) {
		return &apperrors.ValidationError{Field: "irrigation_method", Message: "unknown method"}
	}
	if req.DurationMinutes < 0 {
		return &apperrors.ValidationError{Field: "duration_minutes", Message: "must be non-negative"}
	}
	if req.EffectivenessRating != nil && (*req.EffectivenessRating < 1 || *req.EffectivenessRating > 5) {
		return &apperrors.ValidationError{Field: "effectiveness_rating", Message: "must be between 1 and 5"}
	}
	if req.IrrigationDate.IsZero() {
		return &apperrors.ValidationError{Field: "irrigation_date", Message: "required"}
	}
	return nil
}

func (s *scheduleService) ListPending(ctx context.Context, userID uuid.UUID) ([]*models.IrrigationSchedule, error) {
	return s.schedules.ListByStatus(ctx, userID, models.StatusPending)
}

// ListOverdue computes overdue at read time from wall-clock: active
// schedules whose recommended instant has passed. Nothing is stored, so
// repeated calls are always consistent with the current time.
func (s *scheduleService) ListOverdue(ctx context.Context, userID uuid.UUID) ([]*models.IrrigationSchedule, error) {
	active, err := s.schedules.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	overdue := make([]*models.IrrigationSchedule, 0, len(active))
	for _, schedule := range active {
		if schedule.IsOverdue(now) {
			overdue = append(overdue, schedule)
		}
	}
	return overdue, nil
}

func (s *scheduleService) ListByStatus(ctx context.Context, userID uuid.UUID, status models.ScheduleStatus) ([]*models.IrrigationSchedule, error) {
	if !models.ValidScheduleStatus(status) {
		return nil, &apperrors.ValidationError{Field: "status", Message: "unknown status"}
	}
	return s.schedules.ListByStatus(ctx, userID, status)
}

func (s *scheduleService) ListAll(ctx context.Context, userID uuid.UUID) ([]*models.IrrigationSchedule, error) {
	return s.schedules.ListByUser(ctx, userID)
}

var _ ScheduleService = (*scheduleService)(nil)
