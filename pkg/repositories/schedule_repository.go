// Package repositories implements PostgreSQL data access. Every query is
// scoped by an explicit user id; there are no global reads.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/zamcrop/irrigation-engine/pkg/apperrors"
	"github.com/zamcrop/irrigation-engine/pkg/database"
	"github.com/zamcrop/irrigation-engine/pkg/models"
)

// ScheduleRepository defines data access for irrigation schedules.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *models.IrrigationSchedule) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.IrrigationSchedule, error)
	FindActiveByField(ctx context.Context, userID, fieldID uuid.UUID) (*models.IrrigationSchedule, error)
	// UpdateStatus is a compare-and-swap on (id, expected status). When the
	// row exists but the swap matches zero rows, the caller lost a race and
	// receives apperrors.ErrConcurrentModification.
	UpdateStatus(ctx context.Context, userID, id uuid.UUID, from, to models.ScheduleStatus) (*models.IrrigationSchedule, error)
	// CompleteWithHistory atomically transitions a confirmed schedule to
	// completed and inserts the linked history record in one transaction.
	CompleteWithHistory(ctx context.Context, userID, id uuid.UUID, record *models.IrrigationHistoryRecord) (*models.IrrigationSchedule, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.IrrigationSchedule, error)
	ListByStatus(ctx context.Context, userID uuid.UUID, status models.ScheduleStatus) ([]*models.IrrigationSchedule, error)
	ListActive(ctx context.Context, userID uuid.UUID) ([]*models.IrrigationSchedule, error)
}

type scheduleRepository struct {
	db *database.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *database.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

const scheduleColumns = `s.id, s.field_id, s.user_id, f.name,
	s.predicted_water_amount, s.confidence_score, s.irrigation_reason,
	s.recommended_date, s.recommended_time, s.priority_level, s.status,
	s.model_input_data, s.created_at, s.updated_at, s.scheduled_at`

func (r *scheduleRepository) Create(ctx context.Context, schedule *models.IrrigationSchedule) error {
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	if schedule.Status == "" {
		schedule.Status = models.StatusPending
	}

	input, err := json.Marshal(schedule.ModelInput)
	if err != nil {
		return fmt.Errorf("failed to marshal model input: %w", err)
	}

	query := `
		INSERT INTO irrigation_schedules (
			id, field_id, user_id, predicted_water_amount, confidence_score,
			irrigation_reason, recommended_date, recommended_time,
			priority_level, status, model_input_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.db.Exec(ctx, query,
		schedule.ID,
		schedule.FieldID,
		schedule.UserID,
		schedule.PredictedWaterAmount,
		schedule.ConfidenceScore,
		schedule.IrrigationReason,
		schedule.RecommendedDate,
		timeOfDay(schedule.RecommendedTime),
		schedule.Priority,
		schedule.Status,
		input,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Partial unique index on active schedules per field.
			existing, findErr := r.FindActiveByField(ctx, schedule.UserID, schedule.FieldID)
			if findErr == nil {
				return &apperrors.DuplicateActiveScheduleError{
					FieldID:    schedule.FieldID,
					ExistingID: existing.ID,
				}
			}
			return &apperrors.DuplicateActiveScheduleError{FieldID: schedule.FieldID}
		}
		return fmt.Errorf("failed to create schedule: %w", err)
	}

	return nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.IrrigationSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM irrigation_schedules s
		JOIN fields f ON f.id = s.field_id
		WHERE s.id = $1 AND s.user_id = $2`

	schedule, err := scanSchedule(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return schedule, nil
}

func (r *scheduleRepository) FindActiveByField(ctx context.Context, userID, fieldID uuid.UUID) (*models.IrrigationSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM irrigation_schedules s
		JOIN fields f ON f.id = s.field_id
		WHERE s.field_id = $1 AND s.user_id = $2 AND s.status IN ('pending', 'confirmed')`

	schedule, err := scanSchedule(r.db.QueryRow(ctx, query, fieldID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active schedule: %w", err)
	}
	return schedule, nil
}

func (r *scheduleRepository) UpdateStatus(ctx context.Context, userID, id uuid.UUID, from, to models.ScheduleStatus) (*models.IrrigationSchedule, error) {
	query := `
		UPDATE irrigation_schedules s
		SET status = $4, updated_at = now()
		FROM fields f
		WHERE s.id = $1 AND s.user_id = $2 AND s.status = $3 AND f.id = s.field_id
		RETURNING ` + scheduleColumns

	schedule, err := scanSchedule(r.db.QueryRow(ctx, query, id, userID, from, to))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.resolveCASFailure(ctx, userID, id)
		}
		return nil, fmt.Errorf("failed to update schedule status: %w", err)
	}
	return schedule, nil
}

func (r *scheduleRepository) CompleteWithHistory(ctx context.Context, userID, id uuid.UUID, record *models.IrrigationHistoryRecord) (*models.IrrigationSchedule, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	updateQuery := `
		UPDATE irrigation_schedules s
		SET status = 'completed', scheduled_at = $3, updated_at = $3
		FROM fields f
		WHERE s.id = $1 AND s.user_id = $2 AND s.status = 'confirmed' AND f.id = s.field_id
		RETURNING ` + scheduleColumns

	schedule, err := scanSchedule(tx.QueryRow(ctx, updateQuery, id, userID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.resolveCASFailure(ctx, userID, id)
		}
		return nil, fmt.Errorf("failed to complete schedule: %w", err)
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.FieldID = schedule.FieldID
	record.UserID = userID
	record.ScheduleID = &schedule.ID
	record.CreatedAt = now

	insertQuery := `
		INSERT INTO irrigation_history (
			id, field_id, user_id, water_amount_used, irrigation_method,
			irrigation_date, irrigation_time, duration_minutes,
			soil_moisture_before, soil_moisture_after, effectiveness_rating,
			notes, related_schedule_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = tx.Exec(ctx, insertQuery,
		record.ID,
		record.FieldID,
		record.UserID,
		record.WaterAmountUsed,
		record.Method,
		record.IrrigationDate,
		timeOfDay(record.IrrigationTime),
		record.DurationMinutes,
		record.SoilMoistureBefore,
		record.SoilMoistureAfter,
		record.EffectivenessRating,
		record.Notes,
		record.ScheduleID,
		record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert history record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}
	return schedule, nil
}

// resolveCASFailure distinguishes a missing schedule from one whose status
// changed underneath the caller.
func (r *scheduleRepository) resolveCASFailure(ctx context.Context, userID, id uuid.UUID) error {
	_, err := r.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	return apperrors.ErrConcurrentModification
}

func (r *scheduleRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.IrrigationSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM irrigation_schedules s
		JOIN fields f ON f.id = s.field_id
		WHERE s.user_id = $1
		ORDER BY s.recommended_date DESC, s.recommended_time DESC`
	return r.list(ctx, query, userID)
}

func (r *scheduleRepository) ListByStatus(ctx context.Context, userID uuid.UUID, status models.ScheduleStatus) ([]*models.IrrigationSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM irrigation_schedules s
		JOIN fields f ON f.id = s.field_id
		WHERE s.user_id = $1 AND s.status = $2
		ORDER BY s.recommended_date DESC, s.recommended_time DESC`
	return r.list(ctx, query, userID, status)
}

func (r *scheduleRepository) ListActive(ctx context.Context, userID uuid.UUID) ([]*models.IrrigationSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM irrigation_schedules s
		JOIN fields f ON f.id = s.field_id
		WHERE s.user_id = $1 AND s.status IN ('pending', 'confirmed')
		ORDER BY s.recommended_date, s.recommended_time`
	return r.list(ctx, query, userID)
}

func (r *scheduleRepository) list(ctx context.Context, query string, args ...any) ([]*models.IrrigationSchedule, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*models.IrrigationSchedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}
	return schedules, nil
}

func scanSchedule(row pgx.Row) (*models.IrrigationSchedule, error) {
	var s models.IrrigationSchedule
	var recommendedTime pgtype.Time
	var input []byte

	err := row.Scan(
		&s.ID,
		&s.FieldID,
		&s.UserID,
		&s.FieldName,
		&s.PredictedWaterAmount,
		&s.ConfidenceScore,
		&s.IrrigationReason,
		&s.RecommendedDate,
		&recommendedTime,
		&s.Priority,
		&s.Status,
		&input,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.ScheduledAt,
	)
	if err != nil {
		return nil, err
	}

	s.RecommendedTime = fromTimeOfDay(recommendedTime)
	if len(input) > 0 {
		if err := json.Unmarshal(input, &s.ModelInput); err != nil {
			return nil, fmt.Errorf("failed to unmarshal model input: %w", err)
		}
	}
	return &s, nil
}

// timeOfDay converts the time-of-day component of t into a pgtype.Time for
// a TIME column.
func timeOfDay(t time.Time) pgtype.Time {
	us := int64(t.Hour())*3600_000_000 +
		int64(t.Minute())*60_000_000 +
		int64(t.Second())*1_000_000
	return pgtype.Time{Microseconds: us, Valid: true}
}

// fromTimeOfDay converts a TIME column value back to a wall-clock time on
// the zero date.
func fromTimeOfDay(pt pgtype.Time) time.Time {
	us := pt.Microseconds
	hour := us / 3600_000_000
	us -= hour * 3600_000_000
	minute := us / 60_000_000
	us -= minute * 60_000_000
	second := us / 1_000_000
	return time.Date(0, time.January, 1, int(hour), int(minute), int(second), 0, time.UTC)
}

var _ ScheduleRepository = (*scheduleRepository)(nil)
