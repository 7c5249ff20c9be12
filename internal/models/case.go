package models

import (
	"sort"
	"strings"
	"time"
)

type HearingFormat string

const (
	HearingOral   HearingFormat = "oral"
	HearingPaper  HearingFormat = "paper"
	HearingOnline HearingFormat = "online"
)

// ParseHearingFormat maps the case hearing type onto a format. An empty
// value is treated as oral and "cor" as online.
func ParseHearingFormat(s string) HearingFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paper":
		return HearingPaper
	case "online", "cor":
		return HearingOnline
	default:
		return HearingOral
	}
}

type Name struct {
	Title string `json:"title,omitempty"`
	First string `json:"firstName,omitempty"`
	Last  string `json:"lastName,omitempty"`
}

// FullNameNoTitle returns "First Last", skipping empty parts.
func (n Name) FullNameNoTitle() string {
	return strings.TrimSpace(strings.Join(nonEmpty(n.First, n.Last), " "))
}

func (n Name) FullName() string {
	return strings.TrimSpace(strings.Join(nonEmpty(n.Title, n.First, n.Last), " "))
}

func (n Name) IsEmpty() bool {
	return n.FullNameNoTitle() == ""
}

type Address struct {
	Line1    string `json:"line1,omitempty"`
	Line2    string `json:"line2,omitempty"`
	Town     string `json:"town,omitempty"`
	County   string `json:"county,omitempty"`
	Postcode string `json:"postcode,omitempty"`
}

type Party struct {
	Name    Name    `json:"name"`
	Address Address `json:"address"`
}

type Representative struct {
	Party
	Organisation string `json:"organisation,omitempty"`
}

type Appeal struct {
	Appellant      Party           `json:"appellant"`
	Appointee      *Party          `json:"appointee,omitempty"`
	Representative *Representative `json:"representative,omitempty"`
	BenefitCode    string          `json:"benefitCode"`
	HearingType    HearingFormat   `json:"hearingType"`
}

// Event is an entry in the case history. Type carries the tag of the case
// event, which for notification events is the EventType identifier.
type Event struct {
	Date time.Time `json:"date"`
	Type string    `json:"type"`
}

// EventDwpRespond tags the case event recording the DWP response.
const EventDwpRespond = "dwpRespond"

type Venue struct {
	Name     string  `json:"name,omitempty"`
	Address  Address `json:"address"`
	MapsLink string  `json:"googleMapLink,omitempty"`
}

type Hearing struct {
	DateTime time.Time `json:"dateTime"`
	Venue    Venue     `json:"venue"`
}

type Document struct {
	Type     string    `json:"documentType"`
	URL      string    `json:"documentUrl"`
	FileName string    `json:"documentFileName,omitempty"`
	Date     time.Time `json:"documentDate,omitempty"`
}

// DocumentDirectionText tags a stored direction notice.
const DocumentDirectionText = "Direction Text"

type Subscriptions struct {
	Appellant      *Subscription `json:"appellantSubscription,omitempty"`
	Appointee      *Subscription `json:"appointeeSubscription,omitempty"`
	Representative *Subscription `json:"representativeSubscription,omitempty"`
}

// For returns the subscription held for role, or the null subscription.
func (s Subscriptions) For(role Role) Subscription {
	sub, _ := s.Get(role)
	return sub
}

// Get reports whether the case holds a subscription for role at all.
func (s Subscriptions) Get(role Role) (Subscription, bool) {
	var sub *Subscription
	switch role {
	case RoleAppellant:
		sub = s.Appellant
	case RoleAppointee:
		sub = s.Appointee
	case RoleRepresentative:
		sub = s.Representative
	}
	if sub == nil {
		return Subscription{}, false
	}
	return *sub, true
}

// CaseSnapshot is one version of the case data as seen by the engine.
type CaseSnapshot struct {
	CaseID          string        `json:"caseId"`
	CaseReference   string        `json:"caseReference"`
	Appeal          Appeal        `json:"appeal"`
	Events          []Event       `json:"events,omitempty"`
	Hearings        []Hearing     `json:"hearings,omitempty"`
	Documents       []Document    `json:"documents,omitempty"`
	Subscriptions   Subscriptions `json:"subscriptions"`
	OnlinePanel     bool          `json:"onlinePanel,omitempty"`
	DwpResponseDate string        `json:"dwpResponseDate,omitempty"`
}

// Normalised returns a copy with events and hearings ordered most recent
// first. Entries with equal timestamps keep their original order.
func (c CaseSnapshot) Normalised() CaseSnapshot {
	events := append([]Event(nil), c.Events...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.After(events[j].Date)
	})
	hearings := append([]Hearing(nil), c.Hearings...)
	sort.SliceStable(hearings, func(i, j int) bool {
		return hearings[i].DateTime.After(hearings[j].DateTime)
	})
	c.Events = events
	c.Hearings = hearings
	return c
}

// HearingFormat returns the effective format, treating an active online
// panel as online.
func (c CaseSnapshot) HearingFormat() HearingFormat {
	if c.OnlinePanel {
		return HearingOnline
	}
	if c.Appeal.HearingType == "" {
		return HearingOral
	}
	return c.Appeal.HearingType
}

func (c CaseSnapshot) HasAppointee() bool {
	return c.Appeal.Appointee != nil && !c.Appeal.Appointee.Name.IsEmpty()
}

// LatestEvent returns the most recent case event, if any.
func (c CaseSnapshot) LatestEvent() (Event, bool) {
	if len(c.Events) == 0 {
		return Event{}, false
	}
	return c.Events[0], true
}

// LatestEventOfType returns the most recent event with the given tag.
func (c CaseSnapshot) LatestEventOfType(tag string) (Event, bool) {
	for _, e := range c.Events {
		if e.Type == tag {
			return e, true
		}
	}
	return Event{}, false
}

// LatestHearing returns the first hearing in most-recent-first order.
func (c CaseSnapshot) LatestHearing() (Hearing, bool) {
	if len(c.Hearings) == 0 {
		return Hearing{}, false
	}
	return c.Hearings[0], true
}

// LatestDocumentOfType returns the most recent document with the given type.
func (c CaseSnapshot) LatestDocumentOfType(docType string) (Document, bool) {
	var (
		found Document
		ok    bool
	)
	for _, d := range c.Documents {
		if d.Type != docType {
			continue
		}
		if !ok || d.Date.After(found.Date) {
			found, ok = d, true
		}
	}
	return found, ok
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
