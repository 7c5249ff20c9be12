package models

import "strings"

type Role string

const (
	RoleAppellant      Role = "appellant"
	RoleAppointee      Role = "appointee"
	RoleRepresentative Role = "representative"
)

// Subscription holds one party's contact channels. The zero value is the
// null subscription: valid, with no channel.
type Subscription struct {
	TyaNumber      string `json:"tya,omitempty"`
	Email          string `json:"email,omitempty"`
	Mobile         string `json:"mobile,omitempty"`
	SubscribeEmail bool   `json:"subscribeEmail,omitempty"`
	SubscribeSms   bool   `json:"subscribeSms,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

func (s Subscription) IsNull() bool {
	return s == Subscription{}
}

// HasAnySubscription reports whether at least one channel is subscribed.
func (s Subscription) HasAnySubscription() bool {
	return s.SubscribeEmail || s.SubscribeSms
}

func (s Subscription) IsEmailSubscribed() bool {
	return s.SubscribeEmail && strings.TrimSpace(s.Email) != ""
}

func (s Subscription) IsSmsSubscribed() bool {
	return s.SubscribeSms && strings.TrimSpace(s.Mobile) != ""
}

func (s Subscription) WithEmail(email string) Subscription {
	s.Email = email
	return s
}

func (s Subscription) WithMobile(mobile string) Subscription {
	s.Mobile = mobile
	return s
}

func (s Subscription) WithSubscribeEmail(v bool) Subscription {
	s.SubscribeEmail = v
	return s
}

func (s Subscription) WithSubscribeSms(v bool) Subscription {
	s.SubscribeSms = v
	return s
}

// SubscriptionWithType pairs a subscription with the role it belongs to.
type SubscriptionWithType struct {
	Role         Role
	Subscription Subscription
}
