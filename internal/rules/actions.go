// internal/rules/actions.go
package rules

import (
	"encoding/json"
	"fmt"

	"maintenance-dispatch/internal/models"
)

// Action is the typed payload of a rule, decoded from the raw actionData
// JSON when the rule is evaluated. Business logic never sees untyped maps.
type Action interface {
	Kind() models.RuleActionKind
}

// AssignContractorAction assigns a fixed contractor, bypassing scoring. The
// contractor must be ACTIVE and belong to the issue's company.
type AssignContractorAction struct {
	ContractorID string `json:"contractorId"`
}

func (AssignContractorAction) Kind() models.RuleActionKind { return models.ActionAssignContractor }

// SetPriorityAction overwrites the issue severity.
type SetPriorityAction struct {
	Severity models.IssueSeverity `json:"severity"`
}

func (SetPriorityAction) Kind() models.RuleActionKind { return models.ActionSetPriority }

// SendNotificationAction carries an explicit template and recipient list.
type SendNotificationAction struct {
	Template   models.NotificationTemplate `json:"template"`
	Recipients []models.Recipient          `json:"recipients,omitempty"`
	Priority   models.NotificationPriority `json:"priority,omitempty"`
}

func (SendNotificationAction) Kind() models.RuleActionKind { return models.ActionSendNotification }

// EscalateAction raises severity to HIGH, appends a note and notifies a user.
type EscalateAction struct {
	NotifyUserID string `json:"notifyUserId,omitempty"`
	Note         string `json:"note,omitempty"`
}

func (EscalateAction) Kind() models.RuleActionKind { return models.ActionEscalate }

// AutoApproveAction approves the issue only when estimatedCost <= MaxCost;
// above the cap it is a logged no-op, never an error.
type AutoApproveAction struct {
	MaxCost float64 `json:"maxCost"`
}

func (AutoApproveAction) Kind() models.RuleActionKind { return models.ActionAutoApprove }

// DecodeAction turns a rule's raw actionData into its typed variant. An
// unrecognized kind is an error the engine treats as skip-with-warning.
func DecodeAction(kind models.RuleActionKind, raw json.RawMessage) (Action, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	switch kind {
	case models.ActionAssignContractor:
		var a AssignContractorAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("decoding ASSIGN_CONTRACTOR payload: %w", err)
		}
		if a.ContractorID == "" {
			return nil, fmt.Errorf("ASSIGN_CONTRACTOR requires contractorId")
		}
		return a, nil

	case models.ActionSetPriority:
		var a SetPriorityAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("decoding SET_PRIORITY payload: %w", err)
		}
		switch a.Severity {
		case models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityUrgent:
		default:
			return nil, fmt.Errorf("SET_PRIORITY has unknown severity %q", a.Severity)
		}
		return a, nil

	case models.ActionSendNotification:
		var a SendNotificationAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("decoding SEND_NOTIFICATION payload: %w", err)
		}
		if a.Priority == "" {
			a.Priority = models.NotifyMedium
		}
		return a, nil

	case models.ActionEscalate:
		var a EscalateAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("decoding ESCALATE payload: %w", err)
		}
		return a, nil

	case models.ActionAutoApprove:
		var a AutoApproveAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("decoding AUTO_APPROVE payload: %w", err)
		}
		return a, nil

	default:
		return nil, fmt.Errorf("unrecognized action kind %q", kind)
	}
}
