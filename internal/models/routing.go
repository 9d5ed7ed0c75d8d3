// internal/models/routing.go
package models

// AlternativeContractor is a runner-up exposed alongside an assignment.
type AlternativeContractor struct {
	ContractorID string  `json:"contractorId"`
	Score        float64 `json:"score"`
	Reason       string  `json:"reason"`
}

// RoutingDecision is the outcome of one routing attempt. A decision is always
// produced unless the issue itself cannot be loaded; absence of contractors is
// reported through EscalationRequired, not as an error.
type RoutingDecision struct {
	IssueID                string                  `json:"issueId"`
	AssignedContractorID   string                  `json:"assignedContractorId,omitempty"`
	RoutingReason          string                  `json:"routingReason"`
	Confidence             float64                 `json:"confidence"` // 0..1
	AlternativeContractors []AlternativeContractor `json:"alternativeContractors,omitempty"`
	EstimatedResponseTime  string                  `json:"estimatedResponseTime,omitempty"`
	RecommendedActions     []string                `json:"recommendedActions,omitempty"`
	EscalationRequired     bool                    `json:"escalationRequired"`
}

// RouteOptions controls a single routing attempt.
type RouteOptions struct {
	ForceReassignment    bool     `json:"forceReassignment,omitempty"`
	ExcludeContractorIDs []string `json:"excludeContractorIds,omitempty"`
	PrioritizeLocal      bool     `json:"prioritizeLocal,omitempty"`
}

// BatchOptions controls BatchRoute dispatch.
type BatchOptions struct {
	RouteOptions
	PrioritizeUrgent bool `json:"prioritizeUrgent,omitempty"`
	Concurrency      int  `json:"concurrency,omitempty"`
}
