package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zamcrop/irrigation-engine/pkg/apperrors"
	"github.com/zamcrop/irrigation-engine/pkg/models"
)

func validHistoryRequest(fieldID uuid.UUID) RecordHistoryRequest {
	return RecordHistoryRequest{
		FieldID:         fieldID,
		WaterAmountUsed: 1500,
		Method:          models.MethodSprinkler,
		IrrigationDate:  time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
		IrrigationTime:  time.Date(0, 1, 1, 7, 0, 0, 0, time.UTC),
		DurationMinutes: 40,
		Notes:           "after moisture probe reading",
	}
}

func TestRecord_Success(t *testing.T) {
	userID := uuid.New()
	snapshot := testSnapshot(userID)
	fields := &mockFieldRepo{snapshots: []*models.FieldSnapshot{snapshot}}
	repo := &mockHistoryRepo{}
	svc := NewHistoryService(repo, fields, 30, zap.NewNop())

	record, err := svc.Record(context.Background(), userID, validHistoryRequest(snapshot.FieldID))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, snapshot.FieldID, record.FieldID)
	assert.Equal(t, userID, record.UserID)
	assert.Equal(t, "North Field", record.FieldName)
	assert.Nil(t, record.ScheduleID) // ad-hoc events are not schedule-linked
	require.Len(t, repo.records, 1)
}

func TestRecord_UnknownFieldRejected(t *testing.T) {
	userID := uuid.New()
	svc := NewHistoryService(&mockHistoryRepo{}, &mockFieldRepo{}, 30, zap.NewNop())

	_, err := svc.Record(context.Background(), userID, validHistoryRequest(uuid.New()))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRecord_OtherUsersFieldRejected(t *testing.T) {
	owner := uuid.New()
	snapshot := testSnapshot(owner)
	fields := &mockFieldRepo{snapshots: []*models.FieldSnapshot{snapshot}}
	svc := NewHistoryService(&mockHistoryRepo{}, fields, 30, zap.NewNop())

	_, err := svc.Record(context.Background(), uuid.New(), validHistoryRequest(snapshot.FieldID))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRecord_ValidatesPayload(t *testing.T) {
	userID := uuid.New()
	snapshot := testSnapshot(userID)
	fields := &mockFieldRepo{snapshots: []*models.FieldSnapshot{snapshot}}
	svc := NewHistoryService(&mockHistoryRepo{}, fields, 30, zap.NewNop())

	req := validHistoryRequest(snapshot.FieldID)
	req.Method = "hosepipe"

	_, err := svc.Record(context.Background(), userID, req)
	var validationErr *apperrors.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "irrigation_method", validationErr.Field)
}

func TestRateEffectiveness(t *testing.T) {
	userID := uuid.New()
	record := &models.IrrigationHistoryRecord{ID: uuid.New(), UserID: userID, FieldID: uuid.New()}
	repo := &mockHistoryRepo{records: []*models.IrrigationHistoryRecord{record}}
	svc := NewHistoryService(repo, &mockFieldRepo{}, 30, zap.NewNop())

	err := svc.RateEffectiveness(context.Background(), userID, record.ID, 4)
	require.NoError(t, err)
	require.NotNil(t, record.EffectivenessRating)
	assert.Equal(t, 4, *record.EffectivenessRating)
}

func TestRateEffectiveness_RangeChecked(t *testing.T) {
	svc := NewHistoryService(&mockHistoryRepo{}, &mockFieldRepo{}, 30, zap.NewNop())

	for _, rating := range []int{0, 6, -1} {
		err := svc.RateEffectiveness(context.Background(), uuid.New(), uuid.New(), rating)
		var validationErr *apperrors.ValidationError
		require.True(t, errors.As(err, &validationErr), "rating %d", rating)
	}
}

func TestRateEffectiveness_UnknownRecord(t *testing.T) {
	svc := NewHistoryService(&mockHistoryRepo{}, &mockFieldRepo{}, 30, zap.NewNop())

	err := svc.RateEffectiveness(context.Background(), uuid.New(), uuid.New(), 3)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestList_DelegatesWindow(t *testing.T) {
	userID := uuid.New()
	fieldID := uuid.New()
	recent := &models.IrrigationHistoryRecord{
		ID: uuid.New(), UserID: userID, FieldID: fieldID,
		IrrigationDate: time.Now().UTC().AddDate(0, 0, -3),
	}
	old := &models.IrrigationHistoryRecord{
		ID: uuid.New(), UserID: userID, FieldID: fieldID,
		IrrigationDate: time.Now().UTC().AddDate(0, 0, -90),
	}
	repo := &mockHistoryRepo{records: []*models.IrrigationHistoryRecord{recent, old}}
	svc := NewHistoryService(repo, &mockFieldRepo{}, 30, zap.NewNop())

	records, err := svc.List(context.Background(), userID, 30)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, recent.ID, records[0].ID)

	records, err = svc.List(context.Background(), userID, 120)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestList_ConfiguredDefaultWindow(t *testing.T) {
	repo := &mockHistoryRepo{}
	svc := NewHistoryService(repo, &mockFieldRepo{}, 10, zap.NewNop())

	_, err := svc.List(context.Background(), uuid.New(), 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, -10), repo.lastSince, time.Minute)
}

func TestListByField_ScopesToField(t *testing.T) {
	userID := uuid.New()
	fieldA := uuid.New()
	fieldB := uuid.New()
	repo := &mockHistoryRepo{records: []*models.IrrigationHistoryRecord{
		{ID: uuid.New(), UserID: userID, FieldID: fieldA, IrrigationDate: time.Now().UTC().AddDate(0, 0, -1)},
		{ID: uuid.New(), UserID: userID, FieldID: fieldB, IrrigationDate: time.Now().UTC().AddDate(0, 0, -1)},
	}}
	svc := NewHistoryService(repo, &mockFieldRepo{}, 30, zap.NewNop())

	records, err := svc.ListByField(context.Background(), userID, fieldA, 30)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, fieldA, records[0].FieldID)
}
