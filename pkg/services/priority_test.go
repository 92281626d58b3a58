package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zamcrop/irrigation-engine/pkg/models"
)

func TestClassifyPriority_Tiers(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		moisture float64
		want     models.PriorityLevel
	}{
		{"critical needs both dry soil and large amount", 120, 18, models.PriorityCritical},
		{"dry soil alone is high, not critical", 40, 18, models.PriorityHigh},
		{"large amount alone is high, not critical", 120, 45, models.PriorityHigh},
		{"low moisture", 10, 25, models.PriorityHigh},
		{"moderate moisture", 10, 35, models.PriorityMedium},
		{"moderate amount", 30, 50, models.PriorityMedium},
		{"wet soil small amount", 10, 60, models.PriorityLow},
		{"moisture boundary 20 is not critical", 120, 20, models.PriorityHigh},
		{"amount boundary 100 is not critical", 100, 18, models.PriorityHigh},
		{"moisture boundary 30 is not high", 10, 30, models.PriorityMedium},
		{"amount boundary 50 is not high", 50, 45, models.PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyPriority(tt.amount, 0.9, tt.moisture, 45)
			assert.Equal(t, tt.want, got.Level)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestClassifyPriority_MonotonicInDryness(t *testing.T) {
	prev := -1
	for moisture := 95.0; moisture >= 0; moisture -= 5 {
		got := ClassifyPriority(120, 0.9, moisture, 45)
		rank := got.Level.Rank()
		assert.GreaterOrEqual(t, rank, prev, "drier soil lowered priority at moisture=%v", moisture)
		prev = rank
	}
}

func TestClassifyPriority_MonotonicInAmount(t *testing.T) {
	prev := -1
	for amount := 0.0; amount <= 200; amount += 10 {
		got := ClassifyPriority(amount, 0.9, 18, 45)
		rank := got.Level.Rank()
		assert.GreaterOrEqual(t, rank, prev, "larger amount lowered priority at amount=%v", amount)
		prev = rank
	}
}

func TestClassifyPriority_ReasonCarriesValues(t *testing.T) {
	got := ClassifyPriority(120, 0.9, 18, 45)
	assert.Contains(t, got.Reason, "critically low at 18%")
	assert.Contains(t, got.Reason, "high water requirement (120.0L/m²)")

	got = ClassifyPriority(10, 0.9, 60, 45)
	assert.Contains(t, got.Reason, "adequate")
}

func TestClassifyPriority_EarlyCropNote(t *testing.T) {
	got := ClassifyPriority(120, 0.9, 18, 10)
	assert.Contains(t, got.Reason, "early establishment (10 days since planting)")

	// A low-tier recommendation never warns about crop stage.
	got = ClassifyPriority(5, 0.9, 80, 10)
	assert.Equal(t, models.PriorityLow, got.Level)
	assert.NotContains(t, got.Reason, "early establishment")
}

func TestClassifyPriority_LowConfidenceNote(t *testing.T) {
	got := ClassifyPriority(120, 0.4, 18, 45)
	assert.Contains(t, got.Reason, "confidence is low (40%)")

	got = ClassifyPriority(120, 0.9, 18, 45)
	assert.NotContains(t, got.Reason, "confidence is low")
}

func TestWeatherReason(t *testing.T) {
	base := "Soil moisture is low at 25%"

	hot := models.WeatherReading{TemperatureC: 35, HumidityPct: 30, RainfallMM: 2.5, WindSpeedKMH: 5}
	got := WeatherReason(base, hot)
	assert.Contains(t, got, base)
	assert.Contains(t, got, "High temperature (35°C)")
	assert.Contains(t, got, "Low humidity (30%)")
	assert.Contains(t, got, "Recent rainfall (2.5mm)")

	mild := models.WeatherReading{TemperatureC: 25, HumidityPct: 60, RainfallMM: 0, WindSpeedKMH: 5}
	assert.Equal(t, base, WeatherReason(base, mild))
}
