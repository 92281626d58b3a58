package models

import (
	"time"

	"github.com/google/uuid"
)

// IrrigationMethod is how the water was applied.
type IrrigationMethod string

const (
	MethodDrip      IrrigationMethod = "drip"
	MethodSprinkler IrrigationMethod = "sprinkler"
	MethodFlood     IrrigationMethod = "flood"
	MethodManual    IrrigationMethod = "manual"
	MethodOther     IrrigationMethod = "other"
)

// ValidIrrigationMethod reports whether m is a known method.
func ValidIrrigationMethod(m IrrigationMethod) bool {
	switch m {
	case MethodDrip, MethodSprinkler, MethodFlood, MethodManual, MethodOther:
		return true
	}
	return false
}

// IrrigationHistoryRecord is the factual log of water actually applied.
// Immutable once created, except for the effectiveness rating which a
// farmer may add after observing the result.
type IrrigationHistoryRecord struct {
	ID                  uuid.UUID        `json:"id"`
	FieldID             uuid.UUID        `json:"field_id"`
	UserID              uuid.UUID        `json:"user_id"`
	FieldName           string           `json:"field_name,omitempty"`
	WaterAmountUsed     float64          `json:"water_amount_used"` // liters
	Method              IrrigationMethod `json:"irrigation_method"`
	IrrigationDate      time.Time        `json:"irrigation_date"` // date component only
	IrrigationTime      time.Time        `json:"irrigation_time"` // time-of-day component only
	DurationMinutes     int              `json:"duration_minutes"`
	SoilMoistureBefore  *float64         `json:"soil_moisture_before,omitempty"`
	SoilMoistureAfter   *float64         `json:"soil_moisture_after,omitempty"`
	EffectivenessRating *int             `json:"effectiveness_rating,omitempty"` // 1-5
	Notes               string           `json:"notes,omitempty"`
	ScheduleID          *uuid.UUID       `json:"related_schedule_id,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}
