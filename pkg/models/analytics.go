package models

import (
	"time"

	"github.com/google/uuid"
)

// FieldUsage is total water applied to one field within the window.
type FieldUsage struct {
	FieldID     uuid.UUID `json:"field_id"`
	FieldName   string    `json:"field_name"`
	TotalLiters float64   `json:"total_liters"`
	EventCount  int       `json:"event_count"`
}

// MethodUsage is total water applied with one irrigation method.
type MethodUsage struct {
	Method      IrrigationMethod `json:"method"`
	TotalLiters float64          `json:"total_liters"`
	EventCount  int              `json:"event_count"`
}

// UsageTrend compares the most recent week against the one before it.
// PercentChange is nil when the previous week had no usage.
type UsageTrend struct {
	RecentWeekLiters   float64  `json:"recent_week_liters"`
	PreviousWeekLiters float64  `json:"previous_week_liters"`
	PercentChange      *float64 `json:"percent_change"`
}

// MonthlyUsage is one calendar month's total in the long-range trend series.
type MonthlyUsage struct {
	Month       string  `json:"month"` // YYYY-MM
	TotalLiters float64 `json:"total_usage"`
	EventCount  int     `json:"irrigation_count"`
}

// EfficiencyMetrics summarizes effectiveness ratings over the window.
type EfficiencyMetrics struct {
	AverageRating      *float64 `json:"average_rating"`
	RatedEventCount    int      `json:"rated_event_count"`
	TotalEventCount    int      `json:"total_event_count"`
	AvgLitersPerMinute float64  `json:"avg_liters_per_minute"`
}

// WaterUsageStats is the on-demand aggregate over a user's history window.
// Never persisted; an empty history yields zeroed values, not an error.
type WaterUsageStats struct {
	PeriodDays        int               `json:"period_days"`
	TotalLiters       float64           `json:"total_water_usage"`
	AverageDailyUsage float64           `json:"average_daily_usage"`
	ByField           []FieldUsage      `json:"usage_by_field"`
	ByMethod          []MethodUsage     `json:"usage_by_method"`
	MonthlyTrends     []MonthlyUsage    `json:"monthly_trends"`
	Trend             UsageTrend        `json:"usage_trend"`
	Efficiency        EfficiencyMetrics `json:"efficiency_metrics"`
}

// MoistureTrendPoint averages the soil moisture readings recorded around one
// day's irrigation events. A nil average means no reading was recorded.
type MoistureTrendPoint struct {
	Date       time.Time `json:"date"`
	AvgBefore  *float64  `json:"avg_before"`
	AvgAfter   *float64  `json:"avg_after"`
	EventCount int       `json:"count"`
}

// RatingTrendPoint averages effectiveness ratings for one day's events.
type RatingTrendPoint struct {
	Date       time.Time `json:"date"`
	AvgRating  float64   `json:"avg_rating"`
	EventCount int       `json:"count"`
}

// WeeklyUsage is total water applied in one calendar week. Weeks start on
// Monday.
type WeeklyUsage struct {
	WeekStart   time.Time `json:"week"`
	TotalLiters float64   `json:"total_usage"`
	EventCount  int       `json:"irrigation_count"`
}

// FieldAnalytics is the drill-down report for a single field.
type FieldAnalytics struct {
	FieldID          uuid.UUID            `json:"field_id"`
	FieldName        string               `json:"field_name"`
	PeriodDays       int                  `json:"period_days"`
	TotalLiters      float64              `json:"total_water_usage"`
	IrrigationCount  int                  `json:"irrigation_count"`
	AvgPerIrrigation float64              `json:"avg_usage_per_irrigation"`
	MoistureTrends   []MoistureTrendPoint `json:"soil_moisture_trends"`
	RatingTrends     []RatingTrendPoint   `json:"effectiveness_trends"`
	WeeklyUsage      []WeeklyUsage        `json:"weekly_usage"`
}

// MethodEfficiency is a per-method efficiency row in the report.
type MethodEfficiency struct {
	Method          IrrigationMethod `json:"method"`
	EventCount      int              `json:"event_count"`
	AverageRating   *float64         `json:"average_rating"`
	TotalLiters     float64          `json:"total_liters"`
	AvgDurationMins float64          `json:"avg_duration_minutes"`
}

// WasteIndicator flags a history record whose volume was high while its
// effectiveness rating was low.
type WasteIndicator struct {
	RecordID        uuid.UUID `json:"record_id"`
	FieldName       string    `json:"field_name"`
	IrrigationDate  time.Time `json:"irrigation_date"`
	WaterAmountUsed float64   `json:"water_amount_used"`
	Rating          int       `json:"effectiveness_rating"`
}

// Recommendation is a ranked suggestion emitted by the efficiency report.
type Recommendation struct {
	Type        string        `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Priority    PriorityLevel `json:"priority"`
}

// EfficiencyReport extends usage stats with waste detection and ranked
// recommendations.
type EfficiencyReport struct {
	PeriodDays           int                `json:"period_days"`
	MethodEfficiency     []MethodEfficiency `json:"efficiency_analysis"`
	BestMethods          []MethodEfficiency `json:"best_performing_methods"`
	PotentialWaste       []WasteIndicator   `json:"potential_water_waste"`
	Recommendations      []Recommendation   `json:"recommendations"`
	TotalEvents          int                `json:"total_irrigation_events"`
	AvgEffectivenessRate *float64           `json:"avg_effectiveness_rating"`
	MostUsedMethod       IrrigationMethod   `json:"most_used_method,omitempty"`
}
