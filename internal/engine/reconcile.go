package engine

import (
	"strings"
	"unicode"

	"tya-notifications/internal/models"
)

// Decision is the outcome of comparing a recipient's old and new
// subscription on a subscription update.
type Decision struct {
	EmailChanged bool
	SmsChanged   bool

	// Suppress is set when neither channel changed; no confirmation goes out.
	Suppress bool

	// OldEmail and OldMobile are the superseded contacts that should receive
	// a notice, empty when there is none.
	OldEmail  string
	OldMobile string
}

// Reconcile compares the old and new subscription of one role. It has no side effects.
func Reconcile(before, after models.Subscription) Decision {
	d := Decision{
		EmailChanged: channelChanged(before.SubscribeEmail, after.SubscribeEmail, !sameEmail(before.Email, after.Email)),
		SmsChanged:   channelChanged(before.SubscribeSms, after.SubscribeSms, !sameMobile(before.Mobile, after.Mobile)),
	}
	d.Suppress = !d.EmailChanged && !d.SmsChanged

	if before.SubscribeEmail && strings.TrimSpace(before.Email) != "" && !sameEmail(before.Email, after.Email) {
		d.OldEmail = before.Email
	}
	if before.SubscribeSms && strings.TrimSpace(before.Mobile) != "" && !sameMobile(before.Mobile, after.Mobile) {
		d.OldMobile = before.Mobile
	}
	return d
}

// Apply clears the contact fields of the channels that must stay silent.
func (d Decision) Apply(s models.Subscription) models.Subscription {
	if !d.EmailChanged {
		s = s.WithEmail("")
	}
	if !d.SmsChanged {
		s = s.WithMobile("")
	}
	return s
}

func (d Decision) HasSupersededContact() bool {
	return d.OldEmail != "" || d.OldMobile != ""
}

// supersededSubscription is the subscription the superseded-contact notice
// is sent under.
func (d Decision) supersededSubscription() models.Subscription {
	return models.Subscription{
		Email:          d.OldEmail,
		Mobile:         d.OldMobile,
		SubscribeEmail: d.OldEmail != "",
		SubscribeSms:   d.OldMobile != "",
	}
}

// JustSubscribed reports whether a channel went from unsubscribed to
// subscribed.
func JustSubscribed(before, after models.Subscription) bool {
	return (!before.IsEmailSubscribed() && after.IsEmailSubscribed()) ||
		(!before.IsSmsSubscribed() && after.IsSmsSubscribed())
}

func channelChanged(wasOn, isOn, valueDiffers bool) bool {
	if !isOn {
		return false
	}
	return !wasOn || valueDiffers
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func sameMobile(a, b string) bool {
	return normaliseMobile(a) == normaliseMobile(b)
}

func normaliseMobile(m string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, m)
}
