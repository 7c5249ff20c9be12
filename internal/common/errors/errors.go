package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeTemplateNotFound         ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateStoreUnavailable ErrorCode = "TEMPLATE_STORE_UNAVAILABLE"

	ErrCodeReminderAnchorNotFound ErrorCode = "REMINDER_ANCHOR_NOT_FOUND"
	ErrCodeHearingNotFound        ErrorCode = "HEARING_NOT_FOUND"
	ErrCodeJobScheduleFailed      ErrorCode = "JOB_SCHEDULE_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodePdfGenerationFailed    ErrorCode = "PDF_GENERATION_FAILED"

	ErrCodeUnknownEventType ErrorCode = "UNKNOWN_EVENT_TYPE"
	ErrCodeInvalidPayload   ErrorCode = "INVALID_PAYLOAD"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithCase records the case and event the failure belongs to.
func (e *StandardError) WithCase(caseID, eventType string) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata["caseId"] = caseID
	e.Metadata["eventType"] = eventType
	return e
}

func (e *StandardError) CaseID() string {
	id, _ := e.Metadata["caseId"].(string)
	return id
}

// As finds the first StandardError in err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func NewTemplateNotFoundError(key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Mandatory template not configured",
		Details:   fmt.Sprintf("key: %s", key),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewTemplateStoreUnavailableError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateStoreUnavailable,
		Message:   "Template store lookup failed",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewReminderAnchorNotFoundError(reminder, anchor string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReminderAnchorNotFound,
		Message:   "Reminder anchor event missing from case history",
		Details:   fmt.Sprintf("reminder: %s, anchor: %s", reminder, anchor),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewHearingNotFoundError(reminder string) *StandardError {
	return &StandardError{
		Code:      ErrCodeHearingNotFound,
		Message:   "No hearing on case for hearing reminder",
		Details:   fmt.Sprintf("reminder: %s", reminder),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewJobScheduleFailedError(jobGroup string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobScheduleFailed,
		Message:   "Job scheduler rejected job",
		Details:   fmt.Sprintf("jobGroup: %s, error: %s", jobGroup, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewNotificationSendFailedError(channel, templateID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, templateId: %s, error: %s", channel, templateID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewPdfGenerationFailedError wraps a bundled-letter failure for caseID.
func NewPdfGenerationFailedError(caseID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePdfGenerationFailed,
		Message:   "Bundled letter could not be assembled",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"caseId": caseID},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewUnknownEventTypeError(eventType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownEventType,
		Message:   "Unknown notification event type",
		Details:   fmt.Sprintf("eventType: %s", eventType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Job payload failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeTemplateNotFound:         "TEMPLATE_NOT_FOUND",
	ErrCodeTemplateStoreUnavailable: "TEMPLATE_STORE_UNAVAILABLE",
	ErrCodeReminderAnchorNotFound:   "REMINDER_ANCHOR_NOT_FOUND",
	ErrCodeHearingNotFound:          "HEARING_NOT_FOUND",
	ErrCodeJobScheduleFailed:        "JOB_SCHEDULE_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodePdfGenerationFailed:      "PDF_GENERATION_FAILED",
	ErrCodeUnknownEventType:         "UNKNOWN_EVENT_TYPE",
	ErrCodeInvalidPayload:           "INVALID_PAYLOAD",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeNotificationSendFailed,
		ErrCodeJobScheduleFailed,
		ErrCodeTemplateStoreUnavailable:
		return 3
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TEMPLATE"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "REMINDER") || strings.Contains(codeStr, "HEARING") || strings.Contains(codeStr, "JOB"):
		return "REMINDER"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "PDF"):
		return "DELIVERY"
	case strings.Contains(codeStr, "PAYLOAD") || strings.Contains(codeStr, "EVENT_TYPE"):
		return "INPUT"
	default:
		return "INTERNAL"
	}
}
