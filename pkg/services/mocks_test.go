package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zamcrop/irrigation-engine/pkg/apperrors"
	"github.com/zamcrop/irrigation-engine/pkg/models"
)

// mockFieldRepo implements repositories.FieldSnapshotRepository for testing.
type mockFieldRepo struct {
	snapshots []*models.FieldSnapshot
	getErr    error
	listErr   error
}

func (m *mockFieldRepo) GetSnapshot(_ context.Context, userID, fieldID uuid.UUID) (*models.FieldSnapshot, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, s := range m.snapshots {
		if s.FieldID == fieldID && s.UserID == userID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockFieldRepo) ListActiveSnapshots(_ context.Context, userID uuid.UUID) ([]*models.FieldSnapshot, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*models.FieldSnapshot
	for _, s := range m.snapshots {
		if s.UserID == userID {
			copied := *s
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockFieldRepo) UpdateSoilMoisture(_ context.Context, userID, fieldID uuid.UUID, moisture float64) error {
	for _, s := range m.snapshots {
		if s.FieldID == fieldID && s.UserID == userID {
			s.SoilMoisture = moisture
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// mockScheduleRepo implements repositories.ScheduleRepository in memory,
// including the CAS semantics of UpdateStatus.
type mockScheduleRepo struct {
	schedules []*models.IrrigationSchedule
	history   []*models.IrrigationHistoryRecord

	createErr   error
	casFailures int // force this many ErrConcurrentModification results
}

func (m *mockScheduleRepo) Create(_ context.Context, schedule *models.IrrigationSchedule) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, s := range m.schedules {
		if s.FieldID == schedule.FieldID && !s.Status.IsTerminal() {
			return &apperrors.DuplicateActiveScheduleError{FieldID: schedule.FieldID, ExistingID: s.ID}
		}
	}
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	schedule.CreatedAt = time.Now().UTC()
	schedule.UpdatedAt = schedule.CreatedAt
	copied := *schedule
	m.schedules = append(m.schedules, &copied)
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*models.IrrigationSchedule, error) {
	for _, s := range m.schedules {
		if s.ID == id && s.UserID == userID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockScheduleRepo) FindActiveByField(_ context.Context, userID, fieldID uuid.UUID) (*models.IrrigationSchedule, error) {
	for _, s := range m.schedules {
		if s.FieldID == fieldID && s.UserID == userID && !s.Status.IsTerminal() {
			copied := *s
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockScheduleRepo) UpdateStatus(_ context.Context, userID, id uuid.UUID, from, to models.ScheduleStatus) (*models.IrrigationSchedule, error) {
	if m.casFailures > 0 {
		m.casFailures--
		return nil, apperrors.ErrConcurrentModification
	}
	for _, s := range m.schedules {
		if s.ID == id && s.UserID == userID {
			if s.Status != from {
				return nil, apperrors.ErrConcurrentModification
			}
			s.Status = to
			s.UpdatedAt = time.Now().UTC()
			copied := *s
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockScheduleRepo) CompleteWithHistory(_ context.Context, userID, id uuid.UUID, record *models.IrrigationHistoryRecord) (*models.IrrigationSchedule, error) {
	for _, s := range m.schedules {
		if s.ID == id && s.UserID == userID {
			if s.Status != models.StatusConfirmed {
				return nil, apperrors.ErrConcurrentModification
			}
			now := time.Now().UTC()
			s.Status = models.StatusCompleted
			s.ScheduledAt = &now
			s.UpdatedAt = now
			record.ID = uuid.New()
			record.FieldID = s.FieldID
			record.UserID = userID
			record.ScheduleID = &s.ID
			record.CreatedAt = now
			m.history = append(m.history, record)
			copied := *s
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockScheduleRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.IrrigationSchedule, error) {
	var result []*models.IrrigationSchedule
	for _, s := range m.schedules {
		if s.UserID == userID {
			copied := *s
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockScheduleRepo) ListByStatus(_ context.Context, userID uuid.UUID, status models.ScheduleStatus) ([]*models.IrrigationSchedule, error) {
	var result []*models.IrrigationSchedule
	for _, s := range m.schedules {
		if s.UserID == userID && s.Status == status {
			copied := *s
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockScheduleRepo) ListActive(_ context.Context, userID uuid.UUID) ([]*models.IrrigationSchedule, error) {
	var result []*models.IrrigationSchedule
	for _, s := range m.schedules {
		if s.UserID == userID && !s.Status.IsTerminal() {
			copied := *s
			result = append(result, &copied)
		}
	}
	return result, nil
}

// mockHistoryRepo implements repositories.HistoryRepository in memory.
type mockHistoryRepo struct {
	records   []*models.IrrigationHistoryRecord
	createErr error
	listErr   error
	lastSince time.Time
}

func (m *mockHistoryRepo) Create(_ context.Context, record *models.IrrigationHistoryRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now().UTC()
	copied := *record
	m.records = append(m.records, &copied)
	return nil
}

func (m *mockHistoryRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*models.IrrigationHistoryRecord, error) {
	for _, r := range m.records {
		if r.ID == id && r.UserID == userID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockHistoryRepo) ListSince(_ context.Context, userID uuid.UUID, since time.Time) ([]*models.IrrigationHistoryRecord, error) {
	m.lastSince = since
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*models.IrrigationHistoryRecord
	for _, r := range m.records {
		if r.UserID == userID && !r.IrrigationDate.Before(since) {
			copied := *r
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockHistoryRepo) ListByField(_ context.Context, userID, fieldID uuid.UUID, since time.Time) ([]*models.IrrigationHistoryRecord, error) {
	m.lastSince = since
	var result []*models.IrrigationHistoryRecord
	for _, r := range m.records {
		if r.UserID == userID && r.FieldID == fieldID && !r.IrrigationDate.Before(since) {
			copied := *r
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockHistoryRepo) SetEffectivenessRating(_ context.Context, userID, id uuid.UUID, rating int) error {
	for _, r := range m.records {
		if r.ID == id && r.UserID == userID {
			r.EffectivenessRating = &rating
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// mockRegressor is a fixed-output ml.Regressor.
type mockRegressor struct {
	amount     float64
	confidence float64
	err        error
	lastInput  []float64
}

func (m *mockRegressor) Predict(fv models.FeatureVector) (float64, float64, error) {
	m.lastInput = fv.Values()
	if m.err != nil {
		return 0, 0, m.err
	}
	return m.amount, m.confidence, nil
}

func (m *mockRegressor) Version() string { return "test" }

// failingWeatherProvider always errors, exercising the fallback path.
type failingWeatherProvider struct{ err error }

func (p failingWeatherProvider) Current(_ context.Context, _, _ float64) (models.WeatherReading, error) {
	return models.WeatherReading{}, p.err
}

// testSnapshot is a valid Maize field in Lusaka.
func testSnapshot(userID uuid.UUID) *models.FieldSnapshot {
	return &models.FieldSnapshot{
		FieldID:      uuid.New(),
		UserID:       userID,
		Name:         "North Field",
		CropType:     models.CropMaize,
		PlantingDate: time.Now().UTC().AddDate(0, 0, -45),
		CropDays:     45,
		SoilType:     models.SoilLoam,
		SoilMoisture: 18,
		Region:       models.RegionLusaka,
		Season:       models.SeasonDry,
		AreaHectares: 2.5,
	}
}
