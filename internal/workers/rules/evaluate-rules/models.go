// internal/workers/rules/evaluate-rules/models.go
package evaluaterules

type Input struct {
	IssueID string `json:"issueId"`
	Trigger string `json:"trigger"`
}

type ExecutedAction struct {
	RuleID   string `json:"ruleId"`
	RuleName string `json:"ruleName"`
	Action   string `json:"action"`
	Detail   string `json:"detail,omitempty"`
}

type Output struct {
	IssueID         string           `json:"issueId"`
	Trigger         string           `json:"trigger"`
	ExecutedActions []ExecutedAction `json:"executedActions"`
}
