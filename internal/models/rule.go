// internal/models/rule.go
package models

import "encoding/json"

// RuleTrigger names the event class a workflow rule reacts to.
type RuleTrigger string

const (
	TriggerIssueCreated    RuleTrigger = "ISSUE_CREATED"
	TriggerIssueAssigned   RuleTrigger = "ISSUE_ASSIGNED"
	TriggerIssueEscalated  RuleTrigger = "ISSUE_ESCALATED"
	TriggerIssueCompleted  RuleTrigger = "ISSUE_COMPLETED"
	TriggerCostEstimated   RuleTrigger = "COST_ESTIMATED"
	TriggerStatusChanged   RuleTrigger = "STATUS_CHANGED"
)

// RuleActionKind identifies the typed action payload of a rule.
type RuleActionKind string

const (
	ActionAssignContractor RuleActionKind = "ASSIGN_CONTRACTOR"
	ActionSetPriority      RuleActionKind = "SET_PRIORITY"
	ActionSendNotification RuleActionKind = "SEND_NOTIFICATION"
	ActionEscalate         RuleActionKind = "ESCALATE"
	ActionAutoApprove      RuleActionKind = "AUTO_APPROVE"
)

// NotifyFrequency bounds how often a single rule may fire.
type NotifyFrequency string

const (
	FreqImmediate NotifyFrequency = "IMMEDIATE"
	FreqHourly    NotifyFrequency = "HOURLY"
	FreqDaily     NotifyFrequency = "DAILY"
	FreqWeekly    NotifyFrequency = "WEEKLY"
)

// RuleCondition is one field/operator/value predicate. All conditions on a
// rule are AND-ed.
type RuleCondition struct {
	Field    string          `json:"field"`
	Operator string          `json:"operator"` // equals, contains, greater_than, less_than, in
	Value    json.RawMessage `json:"value"`
}

// WorkflowRule is company configuration, read-only to the engine. ActionData
// stays raw at this layer; the rules package decodes it into a typed action
// at load time.
type WorkflowRule struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"companyId"`
	Name       string          `json:"name"`
	Trigger    RuleTrigger     `json:"trigger"`
	Conditions []RuleCondition `json:"conditions"`
	ActionKind RuleActionKind  `json:"action"`
	ActionData json.RawMessage `json:"actionData"`
	Priority   int             `json:"priority"` // lower evaluates first
	IsActive   bool            `json:"isActive"`
	Frequency  NotifyFrequency `json:"frequency"`
	Recipients []Recipient     `json:"recipients,omitempty"`
}

// RecipientType selects the resolution strategy for one recipient entry.
type RecipientType string

const (
	RecipientRole  RecipientType = "ROLE"
	RecipientUser  RecipientType = "USER"
	RecipientEmail RecipientType = "EMAIL"
)

type Recipient struct {
	Type  RecipientType `json:"type"`
	Value string        `json:"value"`
}
