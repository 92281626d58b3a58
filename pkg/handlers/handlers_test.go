package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zamcrop/irrigation-engine/pkg/auth"
	"github.com/zamcrop/irrigation-engine/pkg/models"
	"github.com/zamcrop/irrigation-engine/pkg/services"
)

// testAuth returns middleware in local mode plus a bearer token for userID.
func testAuth(t *testing.T, userID uuid.UUID) (*auth.Middleware, string) {
	t.Helper()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("local"))
	require.NoError(t, err)
	return auth.NewMiddleware("local", true, zap.NewNop()), "Bearer " + token
}

func doRequest(mux *http.ServeMux, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	if token != "" {
		r.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

// mockScheduleService implements services.ScheduleService with canned
// responses per method.
type mockScheduleService struct {
	schedule *models.IrrigationSchedule
	list     []*models.IrrigationSchedule
	err      error

	lastStatus models.ScheduleStatus
	lastReq    *services.CompleteScheduleRequest
}

func (m *mockScheduleService) Generate(_ context.Context, _, _ uuid.UUID) (*models.IrrigationSchedule, error) {
	return m.schedule, m.err
}

func (m *mockScheduleService) Confirm(_ context.Context, _, _ uuid.UUID) (*models.IrrigationSchedule, error) {
	return m.schedule, m.err
}

func (m *mockScheduleService) Skip(_ context.Context, _, _ uuid.UUID) (*models.IrrigationSchedule, error) {
	return m.schedule, m.err
}

func (m *mockScheduleService) Cancel(_ context.Context, _, _ uuid.UUID) (*models.IrrigationSchedule, error) {
	return m.schedule, m.err
}

func (m *mockScheduleService) Complete(_ context.Context, _, _ uuid.UUID, req services.CompleteScheduleRequest) (*models.IrrigationSchedule, error) {
	m.lastReq = &req
	return m.schedule, m.err
}

func (m *mockScheduleService) ListPending(_ context.Context, _ uuid.UUID) ([]*models.IrrigationSchedule, error) {
	return m.list, m.err
}

func (m *mockScheduleService) ListOverdue(_ context.Context, _ uuid.UUID) ([]*models.IrrigationSchedule, error) {
	return m.list, m.err
}

func (m *mockScheduleService) ListByStatus(_ context.Context, _ uuid.UUID, status models.ScheduleStatus) ([]*models.IrrigationSchedule, error) {
	m.lastStatus = status
	return m.list, m.err
}

func (m *mockScheduleService) ListAll(_ context.Context, _ uuid.UUID) ([]*models.IrrigationSchedule, error) {
	return m.list, m.err
}

// mockPredictionService implements services.PredictionService.
type mockPredictionService struct {
	result *models.PredictionResult
	batch  []services.FieldPrediction
	err    error
}

func (m *mockPredictionService) Predict(_ context.Context, _, _ uuid.UUID) (*models.PredictionResult, error) {
	return m.result, m.err
}

func (m *mockPredictionService) PredictAll(_ context.Context, _ uuid.UUID) ([]services.FieldPrediction, error) {
	return m.batch, m.err
}

func sampleSchedule(userID uuid.UUID) *models.IrrigationSchedule {
	return &models.IrrigationSchedule{
		ID:                   uuid.New(),
		FieldID:              uuid.New(),
		UserID:               userID,
		FieldName:            "North Field",
		PredictedWaterAmount: 120,
		ConfidenceScore:      0.9,
		Priority:             models.PriorityCritical,
		Status:               models.StatusPending,
		RecommendedDate:      time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		RecommendedTime:      time.Date(0, 1, 1, 6, 0, 0, 0, time.UTC),
	}
}
