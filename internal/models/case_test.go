package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	et, err := ParseEventType("responseReceived")
	require.NoError(t, err)
	assert.Equal(t, EventDwpResponseReceived, et)
	assert.True(t, et.SendForCoh())

	_, err = ParseEventType("notAnEvent")
	assert.Error(t, err)
}

func TestEventTypeFlags(t *testing.T) {
	tests := []struct {
		name  string
		event EventType
		want  EventFlags
	}{
		{"hearing booked is oral only", EventHearingBooked, EventFlags{SendForOral: true, AllowOutOfHours: true}},
		{"subscription old is paper only", EventSubscriptionOld, EventFlags{SendForPaper: true, AllowOutOfHours: true}},
		{"question round issued is online and in hours", EventQuestionRoundIssued, EventFlags{SendForCoh: true}},
		{"evidence received goes everywhere", EventEvidenceReceived, EventFlags{true, true, true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Flags())
		})
	}
}

func TestEventTypes_AllRegistered(t *testing.T) {
	for _, et := range EventTypes() {
		got, err := ParseEventType(et.ID())
		require.NoError(t, err)
		assert.Equal(t, et, got)
	}
}

func TestCaseSnapshot_Normalised(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2018, 9, d, 10, 0, 0, 0, time.UTC) }
	c := CaseSnapshot{
		Events: []Event{
			{Date: day(1), Type: "a"},
			{Date: day(3), Type: "b"},
			{Date: day(1), Type: "c"},
		},
		Hearings: []Hearing{{DateTime: day(2)}, {DateTime: day(5)}},
	}

	n := c.Normalised()

	require.Len(t, n.Events, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{n.Events[0].Type, n.Events[1].Type, n.Events[2].Type})
	assert.Equal(t, day(5), n.Hearings[0].DateTime)
	assert.Equal(t, "a", c.Events[0].Type, "original snapshot is untouched")
}

func TestCaseSnapshot_HearingFormat(t *testing.T) {
	assert.Equal(t, HearingOral, CaseSnapshot{}.HearingFormat())
	assert.Equal(t, HearingPaper, CaseSnapshot{Appeal: Appeal{HearingType: HearingPaper}}.HearingFormat())
	assert.Equal(t, HearingOnline, CaseSnapshot{Appeal: Appeal{HearingType: HearingPaper}, OnlinePanel: true}.HearingFormat())
	assert.Equal(t, HearingOnline, ParseHearingFormat("cor"))
	assert.Equal(t, HearingOral, ParseHearingFormat(""))
}

func TestSubscriptions_ForReturnsNullWhenMissing(t *testing.T) {
	subs := Subscriptions{Appellant: &Subscription{Email: "a@b.com", SubscribeEmail: true}}

	assert.True(t, subs.For(RoleRepresentative).IsNull())
	assert.Equal(t, "a@b.com", subs.For(RoleAppellant).Email)
}

func TestNotification_CloneIsIndependent(t *testing.T) {
	n := Notification{Placeholders: map[string]string{"name": "Harry"}}

	c := n.Clone()
	c.Placeholders["name"] = "Sally"

	assert.Equal(t, "Harry", n.Placeholders["name"])
}

func TestJobGroup(t *testing.T) {
	assert.Equal(t, "123_evidenceReminder", JobGroup("123", EventEvidenceReminder))
}
