// Package services contains the decision engine: feature building,
// prediction, priority classification, schedule lifecycle, and analytics.
package services

import (
	"math"

	"github.com/zamcrop/irrigation-engine/pkg/apperrors"
	"github.com/zamcrop/irrigation-engine/pkg/models"
)

// BuildFeatures assembles the fixed 10-feature model input from a field
// snapshot and a weather reading. Pure: identical inputs always produce an
// identical vector.
func BuildFeatures(snapshot models.FieldSnapshot, weather models.WeatherReading) (models.FeatureVector, error) {
	var fv models.FeatureVector

	cropCode, ok := snapshot.CropType.Code()
	if !ok {
		return fv, &apperrors.InvalidFieldStateError{Field: "crop_type", Value: snapshot.CropType}
	}
	soilCode, ok := snapshot.SoilType.Code()
	if !ok {
		return fv, &apperrors.InvalidFieldStateError{Field: "soil_type", Value: snapshot.SoilType}
	}
	regionCode, ok := snapshot.Region.Code()
	if !ok {
		return fv, &apperrors.InvalidFieldStateError{Field: "region", Value: snapshot.Region}
	}
	seasonCode, ok := snapshot.Season.Code()
	if !ok {
		return fv, &apperrors.InvalidFieldStateError{Field: "season", Value: snapshot.Season}
	}

	if snapshot.CropDays < 0 {
		return fv, &apperrors.InvalidFieldStateError{Field: "crop_days", Value: snapshot.CropDays}
	}
	if snapshot.SoilMoisture < 0 || snapshot.SoilMoisture > 100 {
		return fv, &apperrors.InvalidFieldStateError{Field: "soil_moisture", Value: snapshot.SoilMoisture}
	}
	if snapshot.AreaHectares <= 0 {
		return fv, &apperrors.InvalidFieldStateError{Field: "area_hectares", Value: snapshot.AreaHectares}
	}

	for _, reading := range []struct {
		name  string
		value float64
	}{
		{"temperature", weather.TemperatureC},
		{"humidity", weather.HumidityPct},
		{"rainfall", weather.RainfallMM},
		{"windspeed", weather.WindSpeedKMH},
	} {
		if math.IsNaN(reading.value) || math.IsInf(reading.value, 0) {
			return fv, &apperrors.InvalidWeatherError{Field: reading.name, Value: reading.value}
		}
	}

	return models.FeatureVector{
		CropType:     float64(cropCode),
		CropDays:     float64(snapshot.CropDays),
		SoilMoisture: snapshot.SoilMoisture,
		Temperature:  weather.TemperatureC,
		Humidity:     weather.HumidityPct,
		Rainfall:     weather.RainfallMM,
		WindSpeed:    weather.WindSpeedKMH,
		SoilType:     float64(soilCode),
		Region:       float64(regionCode),
		Season:       float64(seasonCode),
	}, nil
}

// ModelInputData returns the raw, unencoded model input as key/value pairs
// in contract order. Persisted with a generated schedule so every
// recommendation can be explained after the fact.
func ModelInputData(snapshot models.FieldSnapshot, weather models.WeatherReading) map[string]any {
	return map[string]any{
		"CropType":     string(snapshot.CropType),
		"CropDays":     snapshot.CropDays,
		"SoilMoisture": snapshot.SoilMoisture,
		"temperature":  weather.TemperatureC,
		"humidity":     weather.HumidityPct,
		"rainfall":     weather.RainfallMM,
		"windspeed":    weather.WindSpeedKMH,
		"soilType":     string(snapshot.SoilType),
		"region":       string(snapshot.Region),
		"season":       string(snapshot.Season),
	}
}
