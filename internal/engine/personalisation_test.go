package engine

import (
	"testing"
	"time"

	"tya-notifications/internal/common/config"
	"tya-notifications/internal/models"

	"github.com/stretchr/testify/assert"
)

func createTestPersonaliser() *Personaliser {
	return NewPersonaliser(config.LinksConfig{
		ManageEmails: "https://track.example/manage-email-notifications/{appeal_id}",
		TrackAppeal:  "https://track.example/trackyourappeal/{appeal_id}",
		HearingInfo:  "https://track.example/abouthearing",
	}, "0300 123 1142", time.UTC)
}

func TestPersonaliser_Build(t *testing.T) {
	p := createTestPersonaliser()
	c := withRepresentative(createTestCase(), nil)
	c.Hearings = []models.Hearing{{
		DateTime: hearingAt,
		Venue: models.Venue{
			Name:     "Leeds Tribunal",
			Address:  models.Address{Line1: "City House", Town: "Leeds", Postcode: "LS1 4DA"},
			MapsLink: "https://maps.example/leeds",
		},
	}}
	recipient := models.SubscriptionWithType{Role: models.RoleAppellant, Subscription: *c.Subscriptions.Appellant}

	got := p.Build(models.EventHearingBooked, c, recipient)

	assert.Equal(t, "SC001/24/00001", got[AppealRefKey])
	assert.Equal(t, "tya123", got[AppealIDKey])
	assert.Equal(t, "PIP", got[BenefitNameAcronymKey])
	assert.Equal(t, "Harry Kane", got[AppellantNameKey])
	assert.Equal(t, "Harry Kane", got[NameKey])
	assert.Equal(t, "Jane Smith", got[RepresentativeNameKey])
	assert.Equal(t, "10 April 2024", got[HearingDateKey])
	assert.Equal(t, "10:30 AM", got[HearingTimeKey])
	assert.Equal(t, "Leeds Tribunal", got[VenueNameKey])
	assert.Equal(t, "City House, Leeds, LS1 4DA", got[VenueAddressKey])
	assert.Equal(t, "https://maps.example/leeds", got[VenueMapLinkKey])
	assert.Equal(t, "https://track.example/manage-email-notifications/tya123", got[ManageEmailsLinkKey])
	assert.Equal(t, "https://track.example/trackyourappeal/tya123", got[TrackAppealLinkKey])
	assert.Equal(t, "https://track.example/abouthearing", got[HearingInfoLinkKey])
	assert.Equal(t, "0300 123 1142", got[PhoneNumberKey])
	assert.Equal(t, "DWP", got[FirstTierAgencyAcronymKey])
	assert.NotContains(t, got, ClaimingExpensesLinkKey)
	assert.NotContains(t, got, AppointeeNameKey)
}

func TestPersonaliser_RepresentativeIsAddressedByName(t *testing.T) {
	p := createTestPersonaliser()
	c := withRepresentative(createTestCase(), &models.Subscription{TyaNumber: "rep456"})
	c.Appeal.Representative.Name = models.Name{}

	got := p.Build(models.EventAppealReceived, c, models.SubscriptionWithType{
		Role:         models.RoleRepresentative,
		Subscription: *c.Subscriptions.Representative,
	})

	assert.Equal(t, "Smith & Co", got[NameKey])
	assert.Equal(t, "https://track.example/trackyourappeal/rep456", got[TrackAppealLinkKey])
}

func TestPersonaliser_NoHearing(t *testing.T) {
	got := createTestPersonaliser().Build(models.EventAppealReceived, createTestCase(), models.SubscriptionWithType{Role: models.RoleAppellant})

	assert.NotContains(t, got, HearingDateKey)
	assert.NotContains(t, got, VenueNameKey)
	assert.Equal(t, "", got[AppealIDKey])
}

func TestRepSalutation(t *testing.T) {
	tests := []struct {
		name     string
		rep      models.Representative
		expected string
	}{
		{
			name:     "full name",
			rep:      models.Representative{Party: models.Party{Name: models.Name{First: "Jane", Last: "Smith"}}, Organisation: "Smith & Co"},
			expected: "Jane Smith",
		},
		{
			name:     "missing last name uses organisation",
			rep:      models.Representative{Party: models.Party{Name: models.Name{First: "Jane"}}, Organisation: "Smith & Co"},
			expected: "Smith & Co",
		},
		{
			name:     "undefined placeholder name",
			rep:      models.Representative{Party: models.Party{Name: models.Name{First: "undefined", Last: "undefined"}}, Organisation: "Smith & Co"},
			expected: "Smith & Co",
		},
		{
			name:     "nothing known",
			rep:      models.Representative{},
			expected: "Sir / Madam",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RepSalutation(&tt.rep))
		})
	}
}

func TestLetterAddressPlaceholders(t *testing.T) {
	got := letterAddressPlaceholders(models.Destination{
		Address: models.Address{Line1: "1 High Street", Postcode: "LS1 1AA"},
	})

	assert.Equal(t, map[string]string{
		AddressLine1Key:  "1 High Street",
		AddressLine2Key:  " ",
		AddressTownKey:   " ",
		AddressCountyKey: " ",
		PostcodeKey:      "LS1 1AA",
		NameKey:          " ",
	}, got)
}
