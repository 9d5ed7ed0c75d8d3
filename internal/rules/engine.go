// internal/rules/engine.go
package rules

import (
	"context"
	"fmt"
	"time"

	"maintenance-dispatch/internal/common/errors"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/common/metrics"
	"maintenance-dispatch/internal/models"
)

// RuleSource loads active rules sorted by ascending priority.
type RuleSource interface {
	ListActiveRules(ctx context.Context, companyID string, trigger models.RuleTrigger) ([]*models.WorkflowRule, error)
}

// IssueWriter persists issue mutations made by rule actions.
type IssueWriter interface {
	UpdateIssue(ctx context.Context, issue *models.Issue) error
}

// ContractorGetter validates ASSIGN_CONTRACTOR targets.
type ContractorGetter interface {
	GetContractor(ctx context.Context, contractorID string) (*models.Contractor, error)
}

// Notifier delivers rule-driven notifications. The dispatcher behind this
// interface owns frequency throttling and per-recipient isolation.
type Notifier interface {
	SendRuleNotification(ctx context.Context, rule *models.WorkflowRule, action *SendNotificationAction, snapshot *models.Snapshot) error
}

// ExecutedAction reports one fired rule back to the caller.
type ExecutedAction struct {
	RuleID   string                `json:"ruleId"`
	RuleName string                `json:"ruleName"`
	Kind     models.RuleActionKind `json:"kind"`
	Detail   string                `json:"detail,omitempty"`
}

type Engine struct {
	rules       RuleSource
	issues      IssueWriter
	contractors ContractorGetter
	notifier    Notifier
	logger      logger.Logger
}

func NewEngine(rules RuleSource, issues IssueWriter, contractors ContractorGetter, notifier Notifier, log logger.Logger) *Engine {
	return &Engine{
		rules:       rules,
		issues:      issues,
		contractors: contractors,
		notifier:    notifier,
		logger:      log,
	}
}

// Evaluate runs every active matching rule for the trigger, in ascending
// priority order. Matching rules all fire; there is no short-circuit. A rule
// action that violates a hard constraint (assigning an inactive or
// foreign-company contractor) aborts evaluation with an error.
func (e *Engine) Evaluate(ctx context.Context, trigger models.RuleTrigger, snapshot *models.Snapshot) ([]ExecutedAction, error) {
	if snapshot == nil || snapshot.Issue == nil {
		return nil, errors.NewRuleLoadFailedError(fmt.Errorf("snapshot has no issue"))
	}

	ruleList, err := e.rules.ListActiveRules(ctx, snapshot.Issue.CompanyID, trigger)
	if err != nil {
		return nil, err
	}

	var executed []ExecutedAction
	for _, rule := range ruleList {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewTimeoutError("rule-evaluation", err)
		}

		if !MatchesAll(snapshot, rule.Conditions) {
			metrics.RulesEvaluated.WithLabelValues(string(trigger), "skipped").Inc()
			continue
		}
		metrics.RulesEvaluated.WithLabelValues(string(trigger), "matched").Inc()

		action, err := DecodeAction(rule.ActionKind, rule.ActionData)
		if err != nil {
			metrics.RulesEvaluated.WithLabelValues(string(trigger), "failed").Inc()
			e.logger.Warn("Skipping rule with undecodable action", map[string]interface{}{
				"ruleId": rule.ID,
				"name":   rule.Name,
				"action": rule.ActionKind,
				"error":  err.Error(),
			})
			continue
		}

		detail, err := e.execute(ctx, rule, action, snapshot)
		if err != nil {
			return executed, err
		}

		metrics.RuleActionsExecuted.WithLabelValues(string(rule.ActionKind)).Inc()
		executed = append(executed, ExecutedAction{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Kind:     rule.ActionKind,
			Detail:   detail,
		})
	}

	return executed, nil
}

func (e *Engine) execute(ctx context.Context, rule *models.WorkflowRule, action Action, snapshot *models.Snapshot) (string, error) {
	issue := snapshot.Issue

	switch a := action.(type) {
	case AssignContractorAction:
		contractor, err := e.contractors.GetContractor(ctx, a.ContractorID)
		if err != nil {
			return "", err
		}
		if contractor == nil {
			return "", errors.NewRuleActionRejectedError(rule.ID,
				fmt.Sprintf("contractor %s not found", a.ContractorID))
		}
		if contractor.Status != models.ContractorActive {
			return "", errors.NewRuleActionRejectedError(rule.ID,
				fmt.Sprintf("contractor %s is not ACTIVE", a.ContractorID))
		}
		if contractor.CompanyID != issue.CompanyID {
			return "", errors.NewRuleActionRejectedError(rule.ID,
				fmt.Sprintf("contractor %s belongs to another company", a.ContractorID))
		}

		now := time.Now().UTC()
		issue.ContractorID = contractor.ID
		issue.Status = models.StatusAssigned
		issue.AssignedAt = &now
		if err := e.issues.UpdateIssue(ctx, issue); err != nil {
			return "", err
		}
		e.logger.Info("Rule assigned contractor", map[string]interface{}{
			"ruleId":       rule.ID,
			"issueId":      issue.ID,
			"contractorId": contractor.ID,
		})
		return fmt.Sprintf("assigned %s", contractor.ID), nil

	case SetPriorityAction:
		issue.Severity = a.Severity
		if err := e.issues.UpdateIssue(ctx, issue); err != nil {
			return "", err
		}
		return fmt.Sprintf("severity set to %s", a.Severity), nil

	case SendNotificationAction:
		if e.notifier == nil {
			return "no dispatcher configured", nil
		}
		if err := e.notifier.SendRuleNotification(ctx, rule, &a, snapshot); err != nil {
			// Delivery problems are isolated inside the dispatcher; an error
			// here means it could not even start, which is logged, not fatal
			// to the remaining rules.
			e.logger.Error("Rule notification dispatch failed", map[string]interface{}{
				"ruleId":  rule.ID,
				"issueId": issue.ID,
				"error":   err.Error(),
			})
			return "notification dispatch failed", nil
		}
		return "notification dispatched", nil

	case EscalateAction:
		issue.Severity = models.SeverityHigh
		note := a.Note
		if note == "" {
			note = fmt.Sprintf("Escalated by rule %q", rule.Name)
		}
		issue.Notes = append(issue.Notes, note)
		if err := e.issues.UpdateIssue(ctx, issue); err != nil {
			return "", err
		}

		if a.NotifyUserID != "" && e.notifier != nil {
			notifyAction := &SendNotificationAction{
				Template: models.NotificationTemplate{
					Title:   "Issue escalated: {{issue.title}}",
					Message: note,
				},
				Recipients: []models.Recipient{{Type: models.RecipientUser, Value: a.NotifyUserID}},
				Priority:   models.NotifyHigh,
			}
			if err := e.notifier.SendRuleNotification(ctx, rule, notifyAction, snapshot); err != nil {
				e.logger.Error("Escalation notification failed", map[string]interface{}{
					"ruleId":  rule.ID,
					"issueId": issue.ID,
					"userId":  a.NotifyUserID,
					"error":   err.Error(),
				})
			}
		}
		return "escalated to HIGH", nil

	case AutoApproveAction:
		if issue.EstimatedCost > a.MaxCost {
			e.logger.Info("Auto-approve skipped: cost above cap", map[string]interface{}{
				"ruleId":        rule.ID,
				"issueId":       issue.ID,
				"estimatedCost": issue.EstimatedCost,
				"maxCost":       a.MaxCost,
			})
			return fmt.Sprintf("skipped: cost %.2f exceeds maxCost %.2f", issue.EstimatedCost, a.MaxCost), nil
		}
		issue.Status = models.StatusApproved
		if err := e.issues.UpdateIssue(ctx, issue); err != nil {
			return "", err
		}
		return "approved", nil

	default:
		// DecodeAction already rejects unknown kinds; this is unreachable in
		// practice but keeps the switch total.
		return "", errors.NewRuleInvalidError(rule.ID, fmt.Sprintf("unhandled action kind %q", action.Kind()))
	}
}
