package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zamcrop/irrigation-engine/pkg/metrics"
	"github.com/zamcrop/irrigation-engine/pkg/ml"
	"github.com/zamcrop/irrigation-engine/pkg/models"
	"github.com/zamcrop/irrigation-engine/pkg/repositories"
)

// FieldPrediction pairs a field with its prediction outcome in a batch
// response. Err is set when that field's prediction failed; other fields
// are unaffected.
type FieldPrediction struct {
	FieldID   uuid.UUID                `json:"field_id"`
	FieldName string                   `json:"field_name"`
	Result    *models.PredictionResult `json:"prediction,omitempty"`
	Err       string                   `json:"error,omitempty"`
}

// PredictionService turns field state plus weather into water-amount
// recommendations. Stateless between calls; safe for concurrent use.
type PredictionService interface {
	// Predict scores a single field. No persistence side effect.
	Predict(ctx context.Context, userID, fieldID uuid.UUID) (*models.PredictionResult, error)
	// PredictAll scores every active field the user owns, concurrently,
	// bounded to protect the inference path.
	PredictAll(ctx context.Context, userID uuid.UUID) ([]FieldPrediction, error)
}

type predictionService struct {
	fields      repositories.FieldSnapshotRepository
	weather     WeatherProvider
	fallback    models.WeatherReading
	regressor   ml.Regressor
	concurrency int
	logger      *zap.Logger
}

// NewPredictionService creates the prediction adapter. The regressor must
// already be loaded; a missing model is a startup failure, not a
// per-request concern.
func NewPredictionService(
	fields repositories.FieldSnapshotRepository,
	weather WeatherProvider,
	fallback models.WeatherReading,
	regressor ml.Regressor,
	concurrency int,
	logger *zap.Logger,
) PredictionService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &predictionService{
		fields:      fields,
		weather:     weather,
		fallback:    fallback,
		regressor:   regressor,
		concurrency: concurrency,
		logger:      logger.Named("prediction-service"),
	}
}

func (s *predictionService) Predict(ctx context.Context, userID, fieldID uuid.UUID) (*models.PredictionResult, error) {
	snapshot, err := s.fields.GetSnapshot(ctx, userID, fieldID)
	if err != nil {
		return nil, err
	}
	return s.predictSnapshot(ctx, snapshot)
}

func (s *predictionService) PredictAll(ctx context.Context, userID uuid.UUID) ([]FieldPrediction, error) {
	snapshots, err := s.fields.ListActiveSnapshots(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]FieldPrediction, len(snapshots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, snapshot := range snapshots {
		g.Go(func() error {
			fp := FieldPrediction{FieldID: snapshot.FieldID, FieldName: snapshot.Name}
			result, err := s.predictSnapshot(gctx, snapshot)
			if err != nil {
				// One bad field must not sink the batch.
				fp.Err = err.Error()
			} else {
				fp.Result = result
			}
			results[i] = fp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *predictionService) predictSnapshot(ctx context.Context, snapshot *models.FieldSnapshot) (*models.PredictionResult, error) {
	weather := s.currentWeather(ctx, snapshot)

	fv, err := BuildFeatures(*snapshot, weather)
	if err != nil {
		metrics.PredictionFailures.Inc()
		return nil, err
	}

	start := time.Now()
	amount, confidence, err := s.regressor.Predict(fv)
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PredictionFailures.Inc()
		s.logger.Error("Inference failed",
			zap.String("field_id", snapshot.FieldID.String()),
			zap.Error(err))
		return nil, err
	}

	assignment := ClassifyPriority(amount, confidence, snapshot.SoilMoisture, snapshot.CropDays)

	// 1 hectare = 10,000 m²; the rate is liters per m².
	totalLiters := amount * snapshot.AreaHectares * 10000

	metrics.PredictionsTotal.Inc()

	return &models.PredictionResult{
		FieldID:          snapshot.FieldID,
		FieldName:        snapshot.Name,
		WaterAmount:      amount,
		Confidence:       confidence,
		TotalLiters:      totalLiters,
		TotalCubicMeters: totalLiters / 1000,
		Priority:         assignment.Level,
		Reason:           WeatherReason(assignment.Reason, weather),
		Input:            ModelInputData(*snapshot, weather),
		Weather:          weather,
		GeneratedAt:      time.Now().UTC(),
	}, nil
}

// currentWeather asks the collaborator for the field's weather, falling
// back to the configured defaults when the field has no coordinates or the
// provider fails. A prediction with assumed weather beats no prediction,
// matching the deployed system's behavior.
func (s *predictionService) currentWeather(ctx context.Context, snapshot *models.FieldSnapshot) models.WeatherReading {
	if snapshot.Latitude == nil || snapshot.Longitude == nil {
		return s.fallback
	}

	reading, err := s.weather.Current(ctx, *snapshot.Latitude, *snapshot.Longitude)
	if err != nil {
		s.logger.Warn("Weather lookup failed, using defaults",
			zap.String("field_id", snapshot.FieldID.String()),
			zap.Error(err))
		return s.fallback
	}
	return reading
}

var _ PredictionService = (*predictionService)(nil)
