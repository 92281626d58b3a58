package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleStatus is the lifecycle state of an irrigation schedule.
type ScheduleStatus string

const (
	StatusPending   ScheduleStatus = "pending"
	StatusConfirmed ScheduleStatus = "confirmed"
	StatusCompleted ScheduleStatus = "completed"
	StatusSkipped   ScheduleStatus = "skipped"
	StatusCancelled ScheduleStatus = "cancelled"
)

// ActiveStatuses are the non-terminal states. At most one schedule per
// field may be in one of these at any time.
var ActiveStatuses = []ScheduleStatus{StatusPending, StatusConfirmed}

// IsTerminal reports whether no further transitions are allowed.
func (s ScheduleStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusSkipped, StatusCancelled:
		return true
	}
	return false
}

// ValidScheduleStatus reports whether s is a known status value.
func ValidScheduleStatus(s ScheduleStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusSkipped, StatusCancelled:
		return true
	}
	return false
}

// transitions is the schedule state machine. pending is the only initial
// state; completed, skipped, and cancelled are terminal.
var transitions = map[ScheduleStatus][]ScheduleStatus{
	StatusPending:   {StatusConfirmed, StatusSkipped, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusSkipped, StatusCancelled},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to ScheduleStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IrrigationSchedule is a persisted recommendation to irrigate a specific
// field at a specific time. Only the lifecycle manager mutates it, and only
// along the state machine above.
type IrrigationSchedule struct {
	ID                   uuid.UUID      `json:"id"`
	FieldID              uuid.UUID      `json:"field_id"`
	UserID               uuid.UUID      `json:"user_id"`
	FieldName            string         `json:"field_name,omitempty"`
	PredictedWaterAmount float64        `json:"predicted_water_amount"`
	ConfidenceScore      float64        `json:"confidence_score"`
	IrrigationReason     string         `json:"irrigation_reason"`
	RecommendedDate      time.Time      `json:"recommended_date"` // date component only
	RecommendedTime      time.Time      `json:"recommended_time"` // time-of-day component only
	Priority             PriorityLevel  `json:"priority_level"`
	Status               ScheduleStatus `json:"status"`
	ModelInput           map[string]any `json:"model_input_data,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	ScheduledAt          *time.Time     `json:"scheduled_at,omitempty"` // when irrigation was performed
}

// RecommendedAt combines the recommended date and time-of-day into a single
// instant in UTC.
func (s *IrrigationSchedule) RecommendedAt() time.Time {
	d := s.RecommendedDate
	t := s.RecommendedTime
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// IsOverdue reports whether the schedule is still actionable but its
// recommended instant has passed. Overdue is derived at read time and never
// stored, so it cannot drift out of sync with the clock.
func (s *IrrigationSchedule) IsOverdue(now time.Time) bool {
	if s.Status != StatusPending && s.Status != StatusConfirmed {
		return false
	}
	return now.After(s.RecommendedAt())
}
