// internal/workers/notification/process-case-event/models.go
package processcaseevent

import (
	"tya-notifications/internal/models"
)

// Input is the job payload: the event and the case as it stands after it.
// OldCase is only sent for subscription updates.
type Input struct {
	EventType string               `json:"eventType"`
	NewCase   models.CaseSnapshot  `json:"newCase"`
	OldCase   *models.CaseSnapshot `json:"oldCase,omitempty"`
}

type Output struct {
	RunID              string                  `json:"notificationRunId"`
	Deferred           bool                    `json:"deferred"`
	DeferredUntil      string                  `json:"deferredUntil,omitempty"`
	Dispatched         []models.DispatchRecord `json:"dispatched"`
	RemindersScheduled int                     `json:"remindersScheduled"`
	ProcessedAt        string                  `json:"processedAt"`
}
