// internal/store/rules.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"maintenance-dispatch/internal/common/errors"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// ruleDocumentSchema guards the JSONB condition/action payloads at load time.
// Rules failing validation are skipped, not fatal: one malformed rule must
// not take down rule evaluation for the whole company.
var ruleDocumentSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"conditions": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"field", "operator", "value"},
				"properties": map[string]interface{}{
					"field": map[string]interface{}{"type": "string", "minLength": 1},
					"operator": map[string]interface{}{
						"type": "string",
						"enum": []interface{}{"equals", "contains", "greater_than", "less_than", "in"},
					},
				},
			},
		},
		"actionData": map[string]interface{}{"type": "object"},
	},
	"required": []interface{}{"conditions"},
}

// RuleStore loads workflow rules from persistence.
type RuleStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRuleStore(db *sql.DB, log logger.Logger) *RuleStore {
	return &RuleStore{db: db, logger: log}
}

// ListActiveRules returns active rules for a company and trigger, sorted by
// ascending priority. Invalid rule documents are logged and skipped.
func (s *RuleStore) ListActiveRules(ctx context.Context, companyID string, trigger models.RuleTrigger) ([]*models.WorkflowRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, name, trigger, conditions, action, action_data,
		       priority, is_active, frequency, recipients
		FROM workflow_rules
		WHERE company_id = $1 AND trigger = $2 AND is_active = TRUE
		ORDER BY priority, id`, companyID, string(trigger))
	if err != nil {
		return nil, errors.NewRuleLoadFailedError(err)
	}
	defer rows.Close()

	var rules []*models.WorkflowRule
	for rows.Next() {
		rule, err := s.scanRule(rows)
		if err != nil {
			return nil, errors.NewRuleLoadFailedError(err)
		}
		if err := s.validateRule(rule); err != nil {
			s.logger.Warn("Skipping invalid workflow rule", map[string]interface{}{
				"ruleId": rule.ID,
				"name":   rule.Name,
				"error":  err.Error(),
			})
			continue
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewRuleLoadFailedError(err)
	}

	return rules, nil
}

func (s *RuleStore) scanRule(rows *sql.Rows) (*models.WorkflowRule, error) {
	var rule models.WorkflowRule
	var conditionsRaw, actionDataRaw, recipientsRaw []byte
	var frequency sql.NullString

	err := rows.Scan(&rule.ID, &rule.CompanyID, &rule.Name, &rule.Trigger,
		&conditionsRaw, &rule.ActionKind, &actionDataRaw,
		&rule.Priority, &rule.IsActive, &frequency, &recipientsRaw)
	if err != nil {
		return nil, err
	}

	if len(conditionsRaw) > 0 {
		if err := json.Unmarshal(conditionsRaw, &rule.Conditions); err != nil {
			return nil, err
		}
	}
	rule.ActionData = json.RawMessage(actionDataRaw)
	if len(recipientsRaw) > 0 {
		if err := json.Unmarshal(recipientsRaw, &rule.Recipients); err != nil {
			return nil, err
		}
	}
	if frequency.Valid {
		rule.Frequency = models.NotifyFrequency(frequency.String)
	} else {
		rule.Frequency = models.FreqImmediate
	}

	return &rule, nil
}

func (s *RuleStore) validateRule(rule *models.WorkflowRule) error {
	doc := map[string]interface{}{}

	var conditions []interface{}
	for _, c := range rule.Conditions {
		var value interface{}
		_ = json.Unmarshal(c.Value, &value)
		conditions = append(conditions, map[string]interface{}{
			"field":    c.Field,
			"operator": c.Operator,
			"value":    value,
		})
	}
	if conditions == nil {
		conditions = []interface{}{}
	}
	doc["conditions"] = conditions

	if len(rule.ActionData) > 0 {
		var actionData map[string]interface{}
		if err := json.Unmarshal(rule.ActionData, &actionData); err != nil {
			return errors.NewRuleInvalidError(rule.ID, "actionData is not a JSON object")
		}
		doc["actionData"] = actionData
	}

	schemaLoader := gojsonschema.NewGoLoader(ruleDocumentSchema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errors.NewRuleInvalidError(rule.ID, err.Error())
	}
	if !result.Valid() {
		details := ""
		for i, desc := range result.Errors() {
			if i > 0 {
				details += "; "
			}
			details += desc.String()
		}
		return errors.NewRuleInvalidError(rule.ID, details)
	}
	return nil
}
