package models

import (
	"time"

	"github.com/google/uuid"
)

// FeatureNames is the model input contract: exactly these ten features, in
// this order. Renaming or reordering requires a model version bump.
var FeatureNames = [10]string{
	"CropType", "CropDays", "SoilMoisture", "temperature",
	"humidity", "rainfall", "windspeed", "soilType", "region", "season",
}

// FeatureVector is the encoded 10-feature input to the regressor.
// Categorical features carry their training-time integer codes.
type FeatureVector struct {
	CropType     float64
	CropDays     float64
	SoilMoisture float64
	Temperature  float64
	Humidity     float64
	Rainfall     float64
	WindSpeed    float64
	SoilType     float64
	Region       float64
	Season       float64
}

// Values returns the features in model input order.
func (fv FeatureVector) Values() []float64 {
	return []float64{
		fv.CropType, fv.CropDays, fv.SoilMoisture, fv.Temperature,
		fv.Humidity, fv.Rainfall, fv.WindSpeed, fv.SoilType, fv.Region, fv.Season,
	}
}

// PriorityLevel is the urgency tier of an irrigation recommendation.
type PriorityLevel string

const (
	PriorityLow      PriorityLevel = "low"
	PriorityMedium   PriorityLevel = "medium"
	PriorityHigh     PriorityLevel = "high"
	PriorityCritical PriorityLevel = "critical"
)

// rank orders priorities for monotonicity comparisons; higher is more urgent.
var priorityRank = map[PriorityLevel]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// Rank returns the severity rank of the priority, low=0 to critical=3.
func (p PriorityLevel) Rank() int {
	return priorityRank[p]
}

// PriorityAssignment couples a tier with the human-readable justification
// surfaced to the farmer.
type PriorityAssignment struct {
	Level  PriorityLevel `json:"level"`
	Reason string        `json:"reason"`
}

// PredictionResult is the full outcome of one prediction request. It is
// ephemeral: it has no identity and is not persisted unless promoted to a
// schedule.
type PredictionResult struct {
	FieldID          uuid.UUID      `json:"field_id"`
	FieldName        string         `json:"field_name"`
	WaterAmount      float64        `json:"predicted_water_amount"` // liters per m²
	Confidence       float64        `json:"confidence_score"`       // [0,1]
	TotalLiters      float64        `json:"total_liters"`
	TotalCubicMeters float64        `json:"total_cubic_meters"`
	Priority         PriorityLevel  `json:"priority"`
	Reason           string         `json:"reason"`
	Input            map[string]any `json:"input_data"` // raw (unencoded) model input, for auditability
	Weather          WeatherReading `json:"weather_data"`
	GeneratedAt      time.Time      `json:"generated_at"`
}
