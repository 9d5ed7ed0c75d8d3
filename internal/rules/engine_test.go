// internal/rules/engine_test.go
package rules

import (
	"context"
	"encoding/json"
	"testing"

	"maintenance-dispatch/internal/common/errors"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuleSource struct {
	rules []*models.WorkflowRule
}

func (f *fakeRuleSource) ListActiveRules(_ context.Context, _ string, _ models.RuleTrigger) ([]*models.WorkflowRule, error) {
	return f.rules, nil
}

type fakeIssueWriter struct {
	updates []models.Issue
}

func (f *fakeIssueWriter) UpdateIssue(_ context.Context, issue *models.Issue) error {
	f.updates = append(f.updates, *issue)
	return nil
}

type fakeContractorGetter struct {
	contractors map[string]*models.Contractor
}

func (f *fakeContractorGetter) GetContractor(_ context.Context, id string) (*models.Contractor, error) {
	return f.contractors[id], nil
}

type fakeNotifier struct {
	calls []string
}

func (f *fakeNotifier) SendRuleNotification(_ context.Context, rule *models.WorkflowRule, _ *SendNotificationAction, _ *models.Snapshot) error {
	f.calls = append(f.calls, rule.ID)
	return nil
}

func makeRule(id string, priority int, kind models.RuleActionKind, actionData string, conditions ...models.RuleCondition) *models.WorkflowRule {
	return &models.WorkflowRule{
		ID:         id,
		CompanyID:  "company-1",
		Name:       id,
		Trigger:    models.TriggerIssueCreated,
		Conditions: conditions,
		ActionKind: kind,
		ActionData: json.RawMessage(actionData),
		Priority:   priority,
		IsActive:   true,
		Frequency:  models.FreqImmediate,
	}
}

func engineSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Issue: &models.Issue{
			ID:            "issue-1",
			CompanyID:     "company-1",
			Title:         "Broken furnace",
			Category:      models.CategoryHVAC,
			Severity:      models.SeverityMedium,
			Status:        models.StatusUnassigned,
			EstimatedCost: 150,
		},
	}
}

func TestEngine_Evaluate_AllMatchingRulesFire(t *testing.T) {
	notifier := &fakeNotifier{}
	writer := &fakeIssueWriter{}
	source := &fakeRuleSource{rules: []*models.WorkflowRule{
		makeRule("rule-priority-1", 1, models.ActionSetPriority, `{"severity":"HIGH"}`),
		makeRule("rule-priority-2", 2, models.ActionSendNotification, `{"template":{"title":"t","message":"m"}}`),
	}}
	engine := NewEngine(source, writer, &fakeContractorGetter{}, notifier, logger.NewTestLogger(t))

	snapshot := engineSnapshot()
	executed, err := engine.Evaluate(context.Background(), models.TriggerIssueCreated, snapshot)
	require.NoError(t, err)

	require.Len(t, executed, 2, "matching rules must not short-circuit")
	assert.Equal(t, "rule-priority-1", executed[0].RuleID)
	assert.Equal(t, "rule-priority-2", executed[1].RuleID)
	assert.Equal(t, models.SeverityHigh, snapshot.Issue.Severity)
	assert.Equal(t, []string{"rule-priority-2"}, notifier.calls)
}

func TestEngine_Evaluate_NonMatchingRuleSkipped(t *testing.T) {
	writer := &fakeIssueWriter{}
	source := &fakeRuleSource{rules: []*models.WorkflowRule{
		makeRule("rule-1", 1, models.ActionSetPriority, `{"severity":"URGENT"}`,
			models.RuleCondition{Field: "issue.category", Operator: "equals", Value: json.RawMessage(`"PLUMBING"`)}),
	}}
	engine := NewEngine(source, writer, &fakeContractorGetter{}, &fakeNotifier{}, logger.NewTestLogger(t))

	executed, err := engine.Evaluate(context.Background(), models.TriggerIssueCreated, engineSnapshot())
	require.NoError(t, err)
	assert.Empty(t, executed)
	assert.Empty(t, writer.updates)
}

func TestEngine_Evaluate_AutoApproveAboveCapIsNoOp(t *testing.T) {
	writer := &fakeIssueWriter{}
	source := &fakeRuleSource{rules: []*models.WorkflowRule{
		makeRule("rule-approve", 1, models.ActionAutoApprove, `{"maxCost":100}`),
	}}
	engine := NewEngine(source, writer, &fakeContractorGetter{}, &fakeNotifier{}, logger.NewTestLogger(t))

	snapshot := engineSnapshot() // estimatedCost = 150
	executed, err := engine.Evaluate(context.Background(), models.TriggerIssueCreated, snapshot)
	require.NoError(t, err, "cost above cap must not be an error")

	require.Len(t, executed, 1)
	assert.Contains(t, executed[0].Detail, "skipped")
	assert.Equal(t, models.StatusUnassigned, snapshot.Issue.Status, "no status change")
	assert.Empty(t, writer.updates)
}

func TestEngine_Evaluate_AutoApproveWithinCap(t *testing.T) {
	writer := &fakeIssueWriter{}
	source := &fakeRuleSource{rules: []*models.WorkflowRule{
		makeRule("rule-approve", 1, models.ActionAutoApprove, `{"maxCost":500}`),
	}}
	engine := NewEngine(source, writer, &fakeContractorGetter{}, &fakeNotifier{}, logger.NewTestLogger(t))

	snapshot := engineSnapshot()
	executed, err := engine.Evaluate(context.Background(), models.TriggerIssueCreated, snapshot)
	require.NoError(t, err)

	require.Len(t, executed, 1)
	assert.Equal(t, "approved", executed[0].Detail)
	assert.Equal(t, models.StatusApproved, snapshot.Issue.Status)
	require.Len(t, writer.updates, 1)
}

func TestEngine_Evaluate_AssignContractorValidations(t *testing.T) {
	tests := []struct {
		name       string
		contractor *models.Contractor
	}{
		{"unknown contractor", nil},
		{
			"inactive contractor",
			&models.Contractor{ID: "c-1", CompanyID: "company-1", Status: models.ContractorInactive},
		},
		{
			"foreign company contractor",
			&models.Contractor{ID: "c-1", CompanyID: "company-other", Status: models.ContractorActive},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getter := &fakeContractorGetter{contractors: map[string]*models.Contractor{}}
			if tt.contractor != nil {
				getter.contractors["c-1"] = tt.contractor
			}
			writer := &fakeIssueWriter{}
			source := &fakeRuleSource{rules: []*models.WorkflowRule{
				makeRule("rule-assign", 1, models.ActionAssignContractor, `{"contractorId":"c-1"}`),
			}}
			engine := NewEngine(source, writer, getter, &fakeNotifier{}, logger.NewTestLogger(t))

			snapshot := engineSnapshot()
			_, err := engine.Evaluate(context.Background(), models.TriggerIssueCreated, snapshot)
			require.Error(t, err)

			stdErr, ok := err.(*errors.StandardError)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeRuleActionRejected, stdErr.Code)
			assert.Empty(t, writer.updates, "no partial mutation on rejection")
		})
	}
}

func TestEngine_Evaluate_AssignContractorSuccess(t *testing.T) {
	getter := &fakeContractorGetter{contractors: map[string]*models.Contractor{
		"c-1": {ID: "c-1", CompanyID: "company-1", Status: models.ContractorActive},
	}}
	writer := &fakeIssueWriter{}
	source := &fakeRuleSource{rules: []*models.WorkflowRule{
		makeRule("rule-assign", 1, models.ActionAssignContractor, `{"contractorId":"c-1"}`),
	}}
	engine := NewEngine(source, writer, getter, &fakeNotifier{}, logger.NewTestLogger(t))

	snapshot := engineSnapshot()
	executed, err := engine.Evaluate(context.Background(), models.TriggerIssueCreated, snapshot)
	require.NoError(t, err)

	require.Len(t, executed, 1)
	assert.Equal(t, "c-1", snapshot.Issue.ContractorID)
	assert.Equal(t, models.StatusAssigned, snapshot.Issue.Status)
	require.NotNil(t, snapshot.Issue.AssignedAt)
}

func TestEngine_Evaluate_EscalateAction(t *testing.T) {
	notifier := &fakeNotifier{}
	writer := &fakeIssueWriter{}
	source := &fakeRuleSource{rules: []*models.WorkflowRule{
		makeRule("rule-escalate", 1, models.ActionEscalate, `{"notifyUserId":"user-9","note":"water damage risk"}`),
	}}
	engine := NewEngine(source, writer, &fakeContractorGetter{}, notifier, logger.NewTestLogger(t))

	snapshot := engineSnapshot()
	executed, err := engine.Evaluate(context.Background(), models.TriggerIssueCreated, snapshot)
	require.NoError(t, err)

	require.Len(t, executed, 1)
	assert.Equal(t, models.SeverityHigh, snapshot.Issue.Severity)
	assert.Contains(t, snapshot.Issue.Notes, "water damage risk")
	assert.Equal(t, []string{"rule-escalate"}, notifier.calls)
}

func TestEngine_Evaluate_UndecodableActionSkipped(t *testing.T) {
	writer := &fakeIssueWriter{}
	source := &fakeRuleSource{rules: []*models.WorkflowRule{
		makeRule("rule-bad", 1, models.RuleActionKind("DELETE_EVERYTHING"), `{}`),
		makeRule("rule-good", 2, models.ActionSetPriority, `{"severity":"LOW"}`),
	}}
	engine := NewEngine(source, writer, &fakeContractorGetter{}, &fakeNotifier{}, logger.NewTestLogger(t))

	snapshot := engineSnapshot()
	executed, err := engine.Evaluate(context.Background(), models.TriggerIssueCreated, snapshot)
	require.NoError(t, err, "unrecognized action kind is skip-with-warning, not fatal")

	require.Len(t, executed, 1)
	assert.Equal(t, "rule-good", executed[0].RuleID)
	assert.Equal(t, models.SeverityLow, snapshot.Issue.Severity)
}
