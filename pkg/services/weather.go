package services

import (
	"context"

	"github.com/zamcrop/irrigation-engine/pkg/models"
)

// WeatherProvider supplies the current weather for a field location. The
// weather-integration collaborator owns retrieval and caching; readings are
// already fresh when they reach this engine.
type WeatherProvider interface {
	Current(ctx context.Context, latitude, longitude float64) (models.WeatherReading, error)
}

// FixedWeatherProvider returns a configured reading for every location.
// Used as the fallback when a field has no coordinates or the collaborator
// is unreachable, and as the provider of last resort in development.
type FixedWeatherProvider struct {
	Reading models.WeatherReading
}

func (p FixedWeatherProvider) Current(_ context.Context, _, _ float64) (models.WeatherReading, error) {
	return p.Reading, nil
}

var _ WeatherProvider = FixedWeatherProvider{}
