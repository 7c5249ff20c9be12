package models

import (
	"encoding/json"
	"maps"
	"time"
)

type Channel string

const (
	ChannelEmail  Channel = "Email"
	ChannelSMS    Channel = "SMS"
	ChannelLetter Channel = "Letter"
)

// TemplateBundle holds the template ids resolved for one notification. An
// empty id means the channel is not used.
type TemplateBundle struct {
	EmailTemplateID  string `json:"emailTemplateId,omitempty"`
	SmsTemplateID    string `json:"smsTemplateId,omitempty"`
	LetterTemplateID string `json:"letterTemplateId,omitempty"`
	SmsSenderID      string `json:"smsSenderTemplateId,omitempty"`
}

type Destination struct {
	Email   string  `json:"email,omitempty"`
	Mobile  string  `json:"mobile,omitempty"`
	Address Address `json:"address"`
	Name    string  `json:"name,omitempty"`
}

type Notification struct {
	EventType    EventType         `json:"eventType"`
	Role         Role              `json:"role"`
	Templates    TemplateBundle    `json:"templates"`
	Destination  Destination       `json:"destination"`
	Reference    string            `json:"reference"`
	Placeholders map[string]string `json:"placeholders"`
}

// Clone returns a copy whose placeholder map can be changed without
// affecting n.
func (n Notification) Clone() Notification {
	n.Placeholders = maps.Clone(n.Placeholders)
	if n.Placeholders == nil {
		n.Placeholders = map[string]string{}
	}
	return n
}

// DispatchRecord is one channel send performed for a notification.
type DispatchRecord struct {
	Role       Role      `json:"role"`
	Channel    Channel   `json:"channel"`
	TemplateID string    `json:"templateId"`
	EventType  EventType `json:"eventType"`
	Superseded bool      `json:"superseded,omitempty"`
}

// ReminderJob is a request for the job scheduler to re-run the pipeline for
// EventID at TriggerAt. JobGroup is the scheduler's idempotency key.
type ReminderJob struct {
	JobGroup  string          `json:"jobGroup"`
	EventID   EventType       `json:"eventId"`
	CaseID    string          `json:"caseId"`
	TriggerAt time.Time       `json:"triggerAt"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// JobGroup derives the scheduler key for a case and target event.
func JobGroup(caseID string, eventID EventType) string {
	return caseID + "_" + string(eventID)
}
