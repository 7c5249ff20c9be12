package engine

import (
	"testing"

	"tya-notifications/internal/models"

	"github.com/stretchr/testify/assert"
)

func roles(subs []models.SubscriptionWithType) []models.Role {
	out := make([]models.Role, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.Role)
	}
	return out
}

func TestResolveSubscriptions(t *testing.T) {
	repSub := &models.Subscription{Email: "jane@smith.example", SubscribeEmail: true}

	withAppointee := withRepresentative(createTestCase(), repSub)
	withAppointee.Appeal.Appointee = &models.Party{Name: models.Name{First: "Ann", Last: "Pointee"}}

	blankAppointee := createTestCase()
	blankAppointee.Appeal.Appointee = &models.Party{}

	tests := []struct {
		name      string
		eventType models.EventType
		c         models.CaseSnapshot
		expected  []models.Role
	}{
		{
			name:      "representative included for representative event",
			eventType: models.EventAppealReceived,
			c:         withRepresentative(createTestCase(), repSub),
			expected:  []models.Role{models.RoleAppellant, models.RoleRepresentative},
		},
		{
			name:      "representative skipped for appellant-only event",
			eventType: models.EventDwpResponseReceived,
			c:         withRepresentative(createTestCase(), repSub),
			expected:  []models.Role{models.RoleAppellant},
		},
		{
			name:      "representative without subscription",
			eventType: models.EventAppealReceived,
			c:         withRepresentative(createTestCase(), nil),
			expected:  []models.Role{models.RoleAppellant},
		},
		{
			name:      "appointee replaces everyone",
			eventType: models.EventAppealReceived,
			c:         withAppointee,
			expected:  []models.Role{models.RoleAppointee},
		},
		{
			name:      "appointee without a name is ignored",
			eventType: models.EventAppealReceived,
			c:         blankAppointee,
			expected:  []models.Role{models.RoleAppellant},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, roles(ResolveSubscriptions(tt.eventType, tt.c)))
		})
	}
}

func TestResolveSubscriptions_NullAppellantSubscription(t *testing.T) {
	c := createTestCase()
	c.Subscriptions.Appellant = nil

	subs := ResolveSubscriptions(models.EventAppealLapsed, c)

	assert.Len(t, subs, 1)
	assert.True(t, subs[0].Subscription.IsNull())
}

func TestRecipientParty(t *testing.T) {
	c := withRepresentative(createTestCase(), nil)

	assert.Equal(t, "Harry Kane", recipientParty(c, models.RoleAppellant).Name.FullNameNoTitle())
	assert.Equal(t, "LS2 2BB", recipientParty(c, models.RoleRepresentative).Address.Postcode)
	assert.Equal(t, "Harry Kane", recipientParty(c, models.RoleAppointee).Name.FullNameNoTitle())
}
