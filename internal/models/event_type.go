package models

import "fmt"

// EventType is the canonical identifier of a notification event. The same
// string is used for template-key lookup and for matching case event tags.
type EventType string

const (
	EventHearingAdjourned         EventType = "hearingAdjourned"
	EventAppealCreated            EventType = "appealCreated"
	EventResendAppealCreated      EventType = "resendAppealCreated"
	EventAppealLapsed             EventType = "appealLapsed"
	EventAppealReceived           EventType = "appealReceived"
	EventAppealWithdrawn          EventType = "appealWithdrawn"
	EventAppealDormant            EventType = "appealDormant"
	EventEvidenceReceived         EventType = "evidenceReceived"
	EventDwpResponseReceived      EventType = "responseReceived"
	EventHearingBooked            EventType = "hearingBooked"
	EventHearingPostponed         EventType = "hearingPostponed"
	EventStruckOut                EventType = "struckOut"
	EventSubscriptionCreated      EventType = "subscriptionCreated"
	EventSubscriptionUpdated      EventType = "subscriptionUpdated"
	EventSubscriptionOld          EventType = "subscriptionOld"
	EventEvidenceReminder         EventType = "evidenceReminder"
	EventHearingReminder          EventType = "hearingReminder"
	EventFirstHoldingReminder     EventType = "hearingHoldingReminder"
	EventSecondHoldingReminder    EventType = "secondHearingHoldingReminder"
	EventThirdHoldingReminder     EventType = "thirdHearingHoldingReminder"
	EventFinalHoldingReminder     EventType = "finalHearingHoldingReminder"
	EventDwpResponseLateReminder  EventType = "dwpResponseLateReminder"
	EventQuestionRoundIssued      EventType = "question_round_issued"
	EventQuestionDeadlineElapsed  EventType = "question_deadline_elapsed"
	EventQuestionDeadlineReminder EventType = "question_deadline_reminder"
	EventHearingRelisted          EventType = "continuous_online_hearing_relisted"
	EventDecisionIssued           EventType = "decision_issued"
	EventDecisionIssued2          EventType = "decision_issued_2"
	EventDoNotSend                EventType = ""
)

// EventFlags says for which hearing formats an event is sent and whether it
// may go out outside business hours.
type EventFlags struct {
	SendForOral     bool
	SendForPaper    bool
	SendForCoh      bool
	AllowOutOfHours bool
}

var eventFlags = map[EventType]EventFlags{
	EventHearingAdjourned:         {SendForOral: true, AllowOutOfHours: true},
	EventAppealCreated:            {SendForOral: true, SendForPaper: true, AllowOutOfHours: true},
	EventResendAppealCreated:      {SendForOral: true, SendForPaper: true, AllowOutOfHours: true},
	EventAppealLapsed:             {SendForOral: true, SendForPaper: true, AllowOutOfHours: true},
	EventAppealReceived:           {SendForOral: true, SendForPaper: true, AllowOutOfHours: true},
	EventAppealWithdrawn:          {SendForOral: true, SendForPaper: true, AllowOutOfHours: true},
	EventAppealDormant:            {SendForOral: true, SendForPaper: true, AllowOutOfHours: true},
	EventEvidenceReceived:         {SendForOral: true, SendForPaper: true, SendForCoh: true, AllowOutOfHours: true},
	EventDwpResponseReceived:      {SendForOral: true, SendForPaper: true, SendForCoh: true, AllowOutOfHours: true},
	EventHearingBooked:            {SendForOral: true, AllowOutOfHours: true},
	EventHearingPostponed:         {SendForOral: true, AllowOutOfHours: true},
	EventStruckOut:                {SendForOral: true, SendForPaper: true, AllowOutOfHours: true},
	EventSubscriptionCreated:      {SendForOral: true, SendForPaper: true, AllowOutOfHours: true},
	EventSubscriptionUpdated:      {SendForOral: true, SendForPaper: true, AllowOutOfHours: true},
	EventSubscriptionOld:          {SendForPaper: true, AllowOutOfHours: true},
	EventEvidenceReminder:         {SendForOral: true, SendForPaper: true, AllowOutOfHours: true},
	EventHearingReminder:          {SendForOral: true, AllowOutOfHours: true},
	EventFirstHoldingReminder:     {SendForOral: true, AllowOutOfHours: true},
	EventSecondHoldingReminder:    {SendForOral: true, AllowOutOfHours: true},
	EventThirdHoldingReminder:     {SendForOral: true, AllowOutOfHours: true},
	EventFinalHoldingReminder:     {SendForOral: true, AllowOutOfHours: true},
	EventDwpResponseLateReminder:  {SendForOral: true, SendForPaper: true, AllowOutOfHours: true},
	EventQuestionRoundIssued:      {SendForCoh: true},
	EventQuestionDeadlineElapsed:  {SendForCoh: true},
	EventQuestionDeadlineReminder: {SendForCoh: true},
	EventHearingRelisted:          {SendForCoh: true},
	EventDecisionIssued:           {SendForCoh: true},
	EventDecisionIssued2:          {SendForCoh: true},
	EventDoNotSend:                {},
}

// ParseEventType returns the event type for a canonical identifier.
func ParseEventType(id string) (EventType, error) {
	et := EventType(id)
	if _, ok := eventFlags[et]; !ok {
		return "", fmt.Errorf("unknown event type %q", id)
	}
	return et, nil
}

func (e EventType) ID() string { return string(e) }

func (e EventType) Flags() EventFlags { return eventFlags[e] }

func (e EventType) SendForOral() bool     { return e.Flags().SendForOral }
func (e EventType) SendForPaper() bool    { return e.Flags().SendForPaper }
func (e EventType) SendForCoh() bool      { return e.Flags().SendForCoh }
func (e EventType) AllowOutOfHours() bool { return e.Flags().AllowOutOfHours }

// EventTypes lists every registered event type.
func EventTypes() []EventType {
	out := make([]EventType, 0, len(eventFlags))
	for et := range eventFlags {
		out = append(out, et)
	}
	return out
}

var (
	representativeEvents = setOf(
		EventAppealLapsed, EventAppealWithdrawn, EventAppealReceived, EventAppealDormant,
		EventHearingAdjourned, EventAppealCreated, EventResendAppealCreated,
		EventEvidenceReceived, EventHearingBooked, EventHearingPostponed,
	)
	mandatoryLetterEvents = setOf(
		EventAppealLapsed, EventAppealWithdrawn, EventStruckOut, EventHearingBooked,
	)
	fallbackLetterEvents = setOf(
		EventAppealReceived, EventAppealDormant, EventDwpResponseReceived,
		EventEvidenceReceived, EventHearingAdjourned, EventHearingPostponed,
	)
	bundledLetterEvents = setOf(EventStruckOut)
)

func setOf(events ...EventType) map[EventType]struct{} {
	m := make(map[EventType]struct{}, len(events))
	for _, e := range events {
		m[e] = struct{}{}
	}
	return m
}

// IncludesRepresentative reports whether a representative is notified for e.
func (e EventType) IncludesRepresentative() bool {
	_, ok := representativeEvents[e]
	return ok
}

// IsMandatoryLetter reports whether e always produces a postal letter.
func (e EventType) IsMandatoryLetter() bool {
	_, ok := mandatoryLetterEvents[e]
	return ok
}

// IsFallbackLetter reports whether e sends a letter to recipients without
// any electronic subscription.
func (e EventType) IsFallbackLetter() bool {
	_, ok := fallbackLetterEvents[e]
	return ok
}

func (e EventType) IsBundledLetter() bool {
	_, ok := bundledLetterEvents[e]
	return ok
}
