package engine

import (
	"testing"
	"time"

	"tya-notifications/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDefaultValidator_IsHearingTypeValid(t *testing.T) {
	v := NewDefaultValidator(nil)

	oral := createTestCase()
	paper := createTestCase()
	paper.Appeal.HearingType = models.HearingPaper
	online := createTestCase()
	online.OnlinePanel = true

	tests := []struct {
		name      string
		c         models.CaseSnapshot
		eventType models.EventType
		expected  bool
	}{
		{"oral hearing booked", oral, models.EventHearingBooked, true},
		{"paper hearing booked", paper, models.EventHearingBooked, false},
		{"paper response received", paper, models.EventDwpResponseReceived, true},
		{"online question round", online, models.EventQuestionRoundIssued, true},
		{"online appeal lapsed", online, models.EventAppealLapsed, false},
		{"oral question round", oral, models.EventQuestionRoundIssued, false},
		{"old subscription on paper", paper, models.EventSubscriptionOld, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, v.IsHearingTypeValid(tt.c, tt.eventType))
		})
	}
}

func TestDefaultValidator_IsStillValid(t *testing.T) {
	v := NewDefaultValidator(func() time.Time { return inHours })

	future := []models.Hearing{{DateTime: inHours.Add(24 * time.Hour)}}
	past := []models.Hearing{{DateTime: inHours.Add(-24 * time.Hour)}}

	assert.True(t, v.IsStillValid(future, models.EventHearingBooked))
	assert.True(t, v.IsStillValid(future, models.EventHearingReminder))
	assert.False(t, v.IsStillValid(past, models.EventHearingReminder))
	assert.False(t, v.IsStillValid(nil, models.EventHearingBooked))
	assert.True(t, v.IsStillValid(nil, models.EventAppealReceived))
}
