package engine

import (
	"time"

	"tya-notifications/internal/models"
)

// DefaultValidator applies the event table's format flags and drops hearing
// notifications whose hearing has already happened.
type DefaultValidator struct {
	now func() time.Time
}

func NewDefaultValidator(now func() time.Time) *DefaultValidator {
	if now == nil {
		now = time.Now
	}
	return &DefaultValidator{now: now}
}

func (v *DefaultValidator) IsHearingTypeValid(c models.CaseSnapshot, eventType models.EventType) bool {
	switch c.HearingFormat() {
	case models.HearingOnline:
		return eventType.SendForCoh()
	case models.HearingPaper:
		return eventType.SendForPaper()
	default:
		return eventType.SendForOral()
	}
}

// IsStillValid expects hearings ordered most recent first.
func (v *DefaultValidator) IsStillValid(hearings []models.Hearing, eventType models.EventType) bool {
	switch eventType {
	case models.EventHearingBooked, models.EventHearingReminder:
		return len(hearings) > 0 && hearings[0].DateTime.After(v.now())
	}
	return true
}
