package services

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamcrop/irrigation-engine/pkg/apperrors"
	"github.com/zamcrop/irrigation-engine/pkg/models"
)

func TestBuildFeatures_ContractOrder(t *testing.T) {
	snapshot := testSnapshot(uuid.New())
	weather := models.WeatherReading{
		TemperatureC: 28,
		HumidityPct:  55,
		RainfallMM:   1.2,
		WindSpeedKMH: 7,
	}

	fv, err := BuildFeatures(*snapshot, weather)
	require.NoError(t, err)

	// Maize=0, Loam=1, Lusaka=0, Dry=0.
	assert.Equal(t, []float64{0, 45, 18, 28, 55, 1.2, 7, 1, 0, 0}, fv.Values())
}

func TestBuildFeatures_Deterministic(t *testing.T) {
	snapshot := testSnapshot(uuid.New())
	weather := models.WeatherReading{TemperatureC: 25, HumidityPct: 60, RainfallMM: 0, WindSpeedKMH: 5}

	a, err := BuildFeatures(*snapshot, weather)
	require.NoError(t, err)
	b, err := BuildFeatures(*snapshot, weather)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildFeatures_UnknownCategoricals(t *testing.T) {
	weather := models.WeatherReading{TemperatureC: 25, HumidityPct: 60, RainfallMM: 0, WindSpeedKMH: 5}

	tests := []struct {
		name   string
		mutate func(*models.FieldSnapshot)
		field  string
	}{
		{"unknown crop", func(s *models.FieldSnapshot) { s.CropType = "Sorghum" }, "crop_type"},
		{"unknown soil", func(s *models.FieldSnapshot) { s.SoilType = "Peat" }, "soil_type"},
		{"unknown region", func(s *models.FieldSnapshot) { s.Region = "Gauteng" }, "region"},
		{"unknown season", func(s *models.FieldSnapshot) { s.Season = "Winter" }, "season"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := testSnapshot(uuid.New())
			tt.mutate(snapshot)

			_, err := BuildFeatures(*snapshot, weather)
			var stateErr *apperrors.InvalidFieldStateError
			require.True(t, errors.As(err, &stateErr))
			assert.Equal(t, tt.field, stateErr.Field)
		})
	}
}

func TestBuildFeatures_NumericRanges(t *testing.T) {
	weather := models.WeatherReading{TemperatureC: 25, HumidityPct: 60, RainfallMM: 0, WindSpeedKMH: 5}

	tests := []struct {
		name   string
		mutate func(*models.FieldSnapshot)
		field  string
	}{
		{"negative crop days", func(s *models.FieldSnapshot) { s.CropDays = -1 }, "crop_days"},
		{"moisture below range", func(s *models.FieldSnapshot) { s.SoilMoisture = -0.1 }, "soil_moisture"},
		{"moisture above range", func(s *models.FieldSnapshot) { s.SoilMoisture = 100.5 }, "soil_moisture"},
		{"zero area", func(s *models.FieldSnapshot) { s.AreaHectares = 0 }, "area_hectares"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := testSnapshot(uuid.New())
			tt.mutate(snapshot)

			_, err := BuildFeatures(*snapshot, weather)
			var stateErr *apperrors.InvalidFieldStateError
			require.True(t, errors.As(err, &stateErr))
			assert.Equal(t, tt.field, stateErr.Field)
		})
	}
}

func TestBuildFeatures_NonFiniteWeather(t *testing.T) {
	snapshot := testSnapshot(uuid.New())

	weather := models.WeatherReading{TemperatureC: math.NaN(), HumidityPct: 60, RainfallMM: 0, WindSpeedKMH: 5}
	_, err := BuildFeatures(*snapshot, weather)
	var weatherErr *apperrors.InvalidWeatherError
	require.True(t, errors.As(err, &weatherErr))
	assert.Equal(t, "temperature", weatherErr.Field)

	weather = models.WeatherReading{TemperatureC: 25, HumidityPct: 60, RainfallMM: math.Inf(1), WindSpeedKMH: 5}
	_, err = BuildFeatures(*snapshot, weather)
	require.True(t, errors.As(err, &weatherErr))
	assert.Equal(t, "rainfall", weatherErr.Field)
}

func TestModelInputData_RawValues(t *testing.T) {
	snapshot := testSnapshot(uuid.New())
	weather := models.WeatherReading{TemperatureC: 25, HumidityPct: 60, RainfallMM: 0, WindSpeedKMH: 5}

	input := ModelInputData(*snapshot, weather)

	assert.Equal(t, "Maize", input["CropType"])
	assert.Equal(t, "Loam", input["soilType"])
	assert.Equal(t, "Lusaka", input["region"])
	assert.Equal(t, "Dry", input["season"])
	assert.Equal(t, 45, input["CropDays"])
	assert.Equal(t, 18.0, input["SoilMoisture"])
	assert.Equal(t, 25.0, input["temperature"])
	assert.Len(t, input, len(models.FeatureNames))
}
