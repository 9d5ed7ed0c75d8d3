// internal/rules/conditions_test.go
package rules

import (
	"encoding/json"
	"testing"

	"maintenance-dispatch/internal/models"

	"github.com/stretchr/testify/assert"
)

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Issue: &models.Issue{
			ID:            "issue-1",
			CompanyID:     "company-1",
			Title:         "Water heater leaking in basement",
			Category:      models.CategoryPlumbing,
			Severity:      models.SeverityUrgent,
			EstimatedCost: 350,
		},
		Classification: &models.ClassificationResult{
			Urgency:    8,
			Confidence: 0.85,
		},
		Property: &models.Property{Name: "Riverside Apartments"},
	}
}

func cond(field, operator, valueJSON string) models.RuleCondition {
	return models.RuleCondition{
		Field:    field,
		Operator: operator,
		Value:    json.RawMessage(valueJSON),
	}
}

func TestEvalCondition_Operators(t *testing.T) {
	snapshot := testSnapshot()

	tests := []struct {
		name      string
		condition models.RuleCondition
		expected  bool
	}{
		{"equals on enum string", cond("issue.severity", "equals", `"URGENT"`), true},
		{"equals mismatch", cond("issue.severity", "equals", `"LOW"`), false},
		{"equals numeric cross-representation", cond("classification.urgency", "equals", `8`), true},
		{"contains case-insensitive", cond("issue.title", "contains", `"WATER HEATER"`), true},
		{"contains no match", cond("issue.title", "contains", `"elevator"`), false},
		{"greater_than true", cond("issue.estimatedCost", "greater_than", `300`), true},
		{"greater_than false", cond("issue.estimatedCost", "greater_than", `400`), false},
		{"greater_than non-numeric field", cond("issue.title", "greater_than", `5`), false},
		{"less_than true", cond("classification.confidence", "less_than", `0.9`), true},
		{"in with member", cond("issue.category", "in", `["PLUMBING","HVAC"]`), true},
		{"in without member", cond("issue.category", "in", `["ELECTRICAL","HVAC"]`), false},
		{"in against non-list", cond("issue.category", "in", `"PLUMBING"`), false},
		{"unknown operator fails closed", cond("issue.severity", "matches", `"URGENT"`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EvalCondition(snapshot, tt.condition))
		})
	}
}

func TestEvalCondition_MissingPathIsNull(t *testing.T) {
	snapshot := testSnapshot() // no Contractor, no Requester

	assert.False(t, EvalCondition(snapshot, cond("contractor.name", "equals", `"Alice"`)))
	assert.False(t, EvalCondition(snapshot, cond("contractor.name", "contains", `"a"`)))
	assert.False(t, EvalCondition(snapshot, cond("requester.role", "greater_than", `1`)))
	assert.False(t, EvalCondition(snapshot, cond("not.a.known.path", "equals", `"x"`)))

	// An explicit null entry in an `in` list matches a missing field.
	assert.True(t, EvalCondition(snapshot, cond("contractor.name", "in", `[null, "Alice"]`)))
	assert.False(t, EvalCondition(snapshot, cond("contractor.name", "in", `["Alice"]`)))
}

func TestMatchesAll(t *testing.T) {
	snapshot := testSnapshot()

	all := []models.RuleCondition{
		cond("issue.severity", "equals", `"URGENT"`),
		cond("issue.estimatedCost", "greater_than", `100`),
	}
	assert.True(t, MatchesAll(snapshot, all))

	oneFails := append(all, cond("issue.category", "equals", `"HVAC"`))
	assert.False(t, MatchesAll(snapshot, oneFails))

	assert.True(t, MatchesAll(snapshot, nil), "no conditions means the rule always matches")
}
