// Package errors provides standardized error handling for the dispatch engine
// and its BPMN worker surface.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeIssueNotFound      ErrorCode = "ISSUE_NOT_FOUND"
	ErrCodeIssueLoadFailed    ErrorCode = "ISSUE_LOAD_FAILED"
	ErrCodeIssueUpdateFailed  ErrorCode = "ISSUE_UPDATE_FAILED"
	ErrCodeRoutingCancelled   ErrorCode = "ROUTING_CANCELLED"
	ErrCodeDirectoryFailed    ErrorCode = "DIRECTORY_LOOKUP_FAILED"

	ErrCodeRuleLoadFailed     ErrorCode = "RULE_LOAD_FAILED"
	ErrCodeRuleInvalid        ErrorCode = "RULE_INVALID"
	ErrCodeRuleActionRejected ErrorCode = "RULE_ACTION_REJECTED"

	ErrCodeClassifierTimeout ErrorCode = "CLASSIFIER_TIMEOUT"
	ErrCodeClassifierFailed  ErrorCode = "CLASSIFIER_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeRecipientNotFound      ErrorCode = "RECIPIENT_NOT_FOUND"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewIssueNotFoundError creates a non-retryable caller error.
func NewIssueNotFoundError(issueID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIssueNotFound,
		Message:   "Issue not found",
		Details:   fmt.Sprintf("issueId: %s", issueID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIssueLoadFailedError creates a retryable persistence error.
func NewIssueLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIssueLoadFailed,
		Message:   "Failed to load issue",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIssueUpdateFailedError creates a retryable persistence error.
func NewIssueUpdateFailedError(issueID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIssueUpdateFailed,
		Message:   "Failed to update issue",
		Details:   fmt.Sprintf("issueId: %s, error: %s", issueID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDirectoryFailedError creates a retryable contractor-directory error.
func NewDirectoryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDirectoryFailed,
		Message:   "Contractor directory lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRuleLoadFailedError creates a retryable rule-store error.
func NewRuleLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRuleLoadFailed,
		Message:   "Failed to load workflow rules",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRuleInvalidError creates a non-retryable rule-definition error.
func NewRuleInvalidError(ruleID, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRuleInvalid,
		Message:   "Workflow rule definition is invalid",
		Details:   fmt.Sprintf("ruleId: %s, %s", ruleID, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRuleActionRejectedError creates a non-retryable action error, e.g. a
// rule assigning an inactive or foreign-company contractor.
func NewRuleActionRejectedError(ruleID, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRuleActionRejected,
		Message:   "Workflow rule action rejected",
		Details:   fmt.Sprintf("ruleId: %s, %s", ruleID, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeIssueLoadFailed,
		ErrCodeIssueUpdateFailed,
		ErrCodeDirectoryFailed,
		ErrCodeRuleLoadFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeNotificationSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout, ErrCodeClassifierTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "ISSUE") || strings.Contains(codeStr, "ROUTING"):
		return "ROUTING"
	case strings.Contains(codeStr, "RULE"):
		return "RULES"
	case strings.Contains(codeStr, "CLASSIFIER"):
		return "AI"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "RECIPIENT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	default:
		return "OTHER"
	}
}
