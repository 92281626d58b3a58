package models

// WeatherReading is the current weather at a field's location, supplied by
// the weather-integration collaborator. The engine does not fetch or cache
// weather itself.
type WeatherReading struct {
	TemperatureC float64 `json:"temperature"`
	HumidityPct  float64 `json:"humidity"`
	RainfallMM   float64 `json:"rainfall"`
	WindSpeedKMH float64 `json:"windspeed"`
}
