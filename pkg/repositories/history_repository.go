package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/zamcrop/irrigation-engine/pkg/apperrors"
	"github.com/zamcrop/irrigation-engine/pkg/database"
	"github.com/zamcrop/irrigation-engine/pkg/models"
)

// HistoryRepository defines data access for irrigation history records.
// Records are immutable once created, except the effectiveness rating.
type HistoryRepository interface {
	Create(ctx context.Context, record *models.IrrigationHistoryRecord) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.IrrigationHistoryRecord, error)
	// ListSince returns the user's records with irrigation_date on or after
	// since, newest first.
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.IrrigationHistoryRecord, error)
	ListByField(ctx context.Context, userID, fieldID uuid.UUID, since time.Time) ([]*models.IrrigationHistoryRecord, error)
	SetEffectivenessRating(ctx context.Context, userID, id uuid.UUID, rating int) error
}

type historyRepository struct {
	db *database.DB
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *database.DB) HistoryRepository {
	return &historyRepository{db: db}
}

const historyColumns = `h.id, h.field_id, h.user_id, f.name,
	h.water_amount_used, h.irrigation_method, h.irrigation_date,
	h.irrigation_time, h.duration_minutes, h.soil_moisture_before,
	h.soil_moisture_after, h.effectiveness_rating, h.notes,
	h.related_schedule_id, h.created_at`

func (r *historyRepository) Create(ctx context.Context, record *models.IrrigationHistoryRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO irrigation_history (
			id, field_id, user_id, water_amount_used, irrigation_method,
			irrigation_date, irrigation_time, duration_minutes,
			soil_moisture_before, soil_moisture_after, effectiveness_rating,
			notes, related_schedule_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
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
		return fmt.Errorf("failed to create history record: %w", err)
	}
	return nil
}

func (r *historyRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.IrrigationHistoryRecord, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM irrigation_history h
		JOIN fields f ON f.id = h.field_id
		WHERE h.id = $1 AND h.user_id = $2`

	record, err := scanHistory(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get history record: %w", err)
	}
	return record, nil
}

func (r *historyRepository) ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.IrrigationHistoryRecord, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM irrigation_history h
		JOIN fields f ON f.id = h.field_id
		WHERE h.user_id = $1 AND h.irrigation_date >= $2
		ORDER BY h.irrigation_date DESC, h.irrigation_time DESC`
	return r.list(ctx, query, userID, since)
}

func (r *historyRepository) ListByField(ctx context.Context, userID, fieldID uuid.UUID, since time.Time) ([]*models.IrrigationHistoryRecord, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM irrigation_history h
		JOIN fields f ON f.id = h.field_id
		WHERE h.user_id = $1 AND h.field_id = $2 AND h.irrigation_date >= $3
		ORDER BY h.irrigation_date DESC, h.irrigation_time DESC`
	return r.list(ctx, query, userID, fieldID, since)
}

func (r *historyRepository) SetEffectivenessRating(ctx context.Context, userID, id uuid.UUID, rating int) error {
	query := `
		UPDATE irrigation_history
		SET effectiveness_rating = $3
		WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query, id, userID, rating)
	if err != nil {
		return fmt.Errorf("failed to set effectiveness rating: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *historyRepository) list(ctx context.Context, query string, args ...any) ([]*models.IrrigationHistoryRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var records []*models.IrrigationHistoryRecord
	for rows.Next() {
		record, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return records, nil
}

func scanHistory(row pgx.Row) (*models.IrrigationHistoryRecord, error) {
	var h models.IrrigationHistoryRecord
	var irrigationTime pgtype.Time

	err := row.Scan(
		&h.ID,
		&h.FieldID,
		&h.UserID,
		&h.FieldName,
		&h.WaterAmountUsed,
		&h.Method,
		&h.IrrigationDate,
		&irrigationTime,
		&h.DurationMinutes,
		&h.SoilMoistureBefore,
		&h.SoilMoistureAfter,
		&h.EffectivenessRating,
		&h.Notes,
		&h.ScheduleID,
		&h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	h.IrrigationTime = fromTimeOfDay(irrigationTime)
	return &h, nil
}

var _ HistoryRepository = (*historyRepository)(nil)
