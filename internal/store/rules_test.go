// internal/store/rules_test.go
package store

import (
	"context"
	"regexp"
	"testing"

	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ruleColumns() []string {
	return []string{
		"id", "company_id", "name", "trigger", "conditions", "action",
		"action_data", "priority", "is_active", "frequency", "recipients",
	}
}

func TestRuleStore_ListActiveRules(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewRuleStore(db, logger.NewTestLogger(t))

	conditions := `[{"field":"issue.severity","operator":"equals","value":"URGENT"}]`
	actionData := `{"severity":"HIGH"}`
	recipients := `[{"type":"ROLE","value":"PROPERTY_MANAGER"}]`

	mock.ExpectQuery(regexp.QuoteMeta("FROM workflow_rules")).
		WithArgs("company-1", "ISSUE_CREATED").
		WillReturnRows(sqlmock.NewRows(ruleColumns()).AddRow(
			"rule-1", "company-1", "Escalate urgent", "ISSUE_CREATED",
			[]byte(conditions), "SET_PRIORITY", []byte(actionData),
			10, true, "HOURLY", []byte(recipients),
		))

	rules, err := store.ListActiveRules(context.Background(), "company-1", models.TriggerIssueCreated)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	rule := rules[0]
	assert.Equal(t, "rule-1", rule.ID)
	assert.Equal(t, models.ActionSetPriority, rule.ActionKind)
	assert.Equal(t, models.FreqHourly, rule.Frequency)
	require.Len(t, rule.Conditions, 1)
	assert.Equal(t, "issue.severity", rule.Conditions[0].Field)
	require.Len(t, rule.Recipients, 1)
	assert.Equal(t, models.RecipientRole, rule.Recipients[0].Type)
}

func TestRuleStore_ListActiveRules_SkipsInvalidRule(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewRuleStore(db, logger.NewTestLogger(t))

	badConditions := `[{"field":"issue.severity","operator":"matches_regex","value":"x"}]`
	goodConditions := `[{"field":"issue.category","operator":"equals","value":"HVAC"}]`

	mock.ExpectQuery(regexp.QuoteMeta("FROM workflow_rules")).
		WithArgs("company-1", "ISSUE_CREATED").
		WillReturnRows(sqlmock.NewRows(ruleColumns()).
			AddRow("rule-bad", "company-1", "Bad operator", "ISSUE_CREATED",
				[]byte(badConditions), "ESCALATE", []byte(`{}`), 1, true, "IMMEDIATE", nil).
			AddRow("rule-good", "company-1", "HVAC notice", "ISSUE_CREATED",
				[]byte(goodConditions), "SEND_NOTIFICATION", []byte(`{}`), 2, true, "DAILY", nil))

	rules, err := store.ListActiveRules(context.Background(), "company-1", models.TriggerIssueCreated)
	require.NoError(t, err)
	require.Len(t, rules, 1, "rule with unknown operator must be skipped")
	assert.Equal(t, "rule-good", rules[0].ID)
}

func TestRuleStore_ListActiveRules_DefaultsFrequency(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewRuleStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM workflow_rules")).
		WithArgs("company-1", "ISSUE_ASSIGNED").
		WillReturnRows(sqlmock.NewRows(ruleColumns()).AddRow(
			"rule-1", "company-1", "Notify on assign", "ISSUE_ASSIGNED",
			[]byte(`[]`), "SEND_NOTIFICATION", []byte(`{}`), 1, true, nil, nil,
		))

	rules, err := store.ListActiveRules(context.Background(), "company-1", models.TriggerIssueAssigned)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, models.FreqImmediate, rules[0].Frequency)
}
