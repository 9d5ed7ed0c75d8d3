// internal/workers/routing/batch-route/models.go
package batchroute

type Input struct {
	IssueIDs         []string `json:"issueIds"`
	PrioritizeUrgent bool     `json:"prioritizeUrgent,omitempty"`
	PrioritizeLocal  bool     `json:"prioritizeLocal,omitempty"`
}

type IssueResult struct {
	IssueID              string  `json:"issueId"`
	AssignedContractorID string  `json:"assignedContractorId,omitempty"`
	Confidence           float64 `json:"confidence"`
	EscalationRequired   bool    `json:"escalationRequired"`
}

type Output struct {
	Results   []IssueResult `json:"results"`
	Assigned  int           `json:"assigned"`
	Escalated int           `json:"escalated"`
	Failed    int           `json:"failed"`
}
