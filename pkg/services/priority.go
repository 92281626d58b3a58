package services

import (
	"fmt"
	"strings"

	"github.com/zamcrop/irrigation-engine/pkg/models"
)

// Priority thresholds. Chosen to match the deployed system's rule table and
// monotonic in both soil dryness and predicted amount: drier soil or a
// larger prediction never lowers the tier. Ties break toward the higher
// tier, since a missed irrigation costs more than a redundant reminder.
const (
	criticalMoisturePct = 20.0
	highMoisturePct     = 30.0
	mediumMoisturePct   = 40.0

	criticalAmountLiters = 100.0
	highAmountLiters     = 50.0
	mediumAmountLiters   = 25.0
)

// ClassifyPriority maps prediction output and soil state to an urgency tier
// with a human-readable justification. Deterministic.
func ClassifyPriority(waterAmount, confidence, soilMoisture float64, cropDays int) models.PriorityAssignment {
	var level models.PriorityLevel
	switch {
	case soilMoisture < criticalMoisturePct && waterAmount > criticalAmountLiters:
		level = models.PriorityCritical
	case soilMoisture < highMoisturePct || waterAmount > highAmountLiters:
		level = models.PriorityHigh
	case soilMoisture < mediumMoisturePct || waterAmount > mediumAmountLiters:
		level = models.PriorityMedium
	default:
		level = models.PriorityLow
	}

	return models.PriorityAssignment{
		Level:  level,
		Reason: priorityReason(level, waterAmount, confidence, soilMoisture, cropDays),
	}
}

// priorityReason names the deciding factors. The string is surfaced to the
// farmer as the explanation for the recommendation, so it must carry the
// actual values, not just the tier.
func priorityReason(level models.PriorityLevel, waterAmount, confidence, soilMoisture float64, cropDays int) string {
	var reasons []string

	switch {
	case soilMoisture < criticalMoisturePct:
		reasons = append(reasons, fmt.Sprintf("Soil moisture is critically low at %.0f%%", soilMoisture))
	case soilMoisture < highMoisturePct:
		reasons = append(reasons, fmt.Sprintf("Soil moisture is low at %.0f%%", soilMoisture))
	case soilMoisture < mediumMoisturePct:
		reasons = append(reasons, fmt.Sprintf("Soil moisture is below optimal at %.0f%%", soilMoisture))
	}

	if waterAmount > highAmountLiters {
		reasons = append(reasons, fmt.Sprintf("Model predicts high water requirement (%.1fL/m²)", waterAmount))
	} else if waterAmount > mediumAmountLiters {
		reasons = append(reasons, fmt.Sprintf("Model predicts moderate water requirement (%.1fL/m²)", waterAmount))
	}

	if cropDays < 15 && level != models.PriorityLow {
		reasons = append(reasons, fmt.Sprintf("Crop is in early establishment (%d days since planting)", cropDays))
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Soil moisture is adequate; routine maintenance irrigation only")
	}

	if confidence < 0.5 {
		reasons = append(reasons, fmt.Sprintf("Model confidence is low (%.0f%%); verify field conditions", confidence*100))
	}

	return strings.Join(reasons, ". ")
}

// WeatherReason appends weather-driven factors to a recommendation reason.
// Kept separate from ClassifyPriority so the classifier stays a pure
// function of its four inputs.
func WeatherReason(reason string, weather models.WeatherReading) string {
	var extra []string

	if weather.TemperatureC > 30 {
		extra = append(extra, fmt.Sprintf("High temperature (%.0f°C) increases water needs", weather.TemperatureC))
	}
	if weather.HumidityPct < 40 {
		extra = append(extra, fmt.Sprintf("Low humidity (%.0f%%) increases evaporation", weather.HumidityPct))
	}
	if weather.RainfallMM > 0 {
		extra = append(extra, fmt.Sprintf("Recent rainfall (%.1fmm) partially offsets demand", weather.RainfallMM))
	}

	if len(extra) == 0 {
		return reason
	}
	return reason + ". " + strings.Join(extra, ". ")
}
