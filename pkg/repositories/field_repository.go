package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zamcrop/irrigation-engine/pkg/apperrors"
	"github.com/zamcrop/irrigation-engine/pkg/database"
	"github.com/zamcrop/irrigation-engine/pkg/models"
)

// FieldSnapshotRepository adapts the field-management collaborator's table
// into read-only snapshots for prediction. The one mutation it allows,
// soil moisture, feeds the next prediction cycle.
type FieldSnapshotRepository interface {
	GetSnapshot(ctx context.Context, userID, fieldID uuid.UUID) (*models.FieldSnapshot, error)
	ListActiveSnapshots(ctx context.Context, userID uuid.UUID) ([]*models.FieldSnapshot, error)
	UpdateSoilMoisture(ctx context.Context, userID, fieldID uuid.UUID, moisture float64) error
}

type fieldSnapshotRepository struct {
	db *database.DB
}

// NewFieldSnapshotRepository creates a new field snapshot repository.
func NewFieldSnapshotRepository(db *database.DB) FieldSnapshotRepository {
	return &fieldSnapshotRepository{db: db}
}

// crop_days is derived at read time so a snapshot is always consistent with
// the calendar, mirroring the derived overdue rule for schedules.
const snapshotColumns = `id, user_id, name, crop_type, planting_date,
	GREATEST(CURRENT_DATE - planting_date, 0), soil_type,
	current_soil_moisture, region, current_season, area_hectares,
	latitude, longitude`

func (r *fieldSnapshotRepository) GetSnapshot(ctx context.Context, userID, fieldID uuid.UUID) (*models.FieldSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM fields
		WHERE id = $1 AND user_id = $2`

	snapshot, err := scanSnapshot(r.db.QueryRow(ctx, query, fieldID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get field snapshot: %w", err)
	}
	return snapshot, nil
}

func (r *fieldSnapshotRepository) ListActiveSnapshots(ctx context.Context, userID uuid.UUID) ([]*models.FieldSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM fields
		WHERE user_id = $1 AND is_active
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list field snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.FieldSnapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan field snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate field snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *fieldSnapshotRepository) UpdateSoilMoisture(ctx context.Context, userID, fieldID uuid.UUID, moisture float64) error {
	if moisture < 0 || moisture > 100 {
		return &apperrors.ValidationError{Field: "soil_moisture", Message: "must be between 0 and 100"}
	}

	query := `
		UPDATE fields
		SET current_soil_moisture = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query, fieldID, userID, moisture)
	if err != nil {
		return fmt.Errorf("failed to update soil moisture: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanSnapshot(row pgx.Row) (*models.FieldSnapshot, error) {
	var s models.FieldSnapshot
	err := row.Scan(
		&s.FieldID,
		&s.UserID,
		&s.Name,
		&s.CropType,
		&s.PlantingDate,
		&s.CropDays,
		&s.SoilType,
		&s.SoilMoisture,
		&s.Region,
		&s.Season,
		&s.AreaHectares,
		&s.Latitude,
		&s.Longitude,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

var _ FieldSnapshotRepository = (*fieldSnapshotRepository)(nil)
