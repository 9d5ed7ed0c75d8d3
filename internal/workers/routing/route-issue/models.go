// internal/workers/routing/route-issue/models.go
package routeissue

import "maintenance-dispatch/internal/models"

type Input struct {
	IssueID              string   `json:"issueId"`
	ForceReassignment    bool     `json:"forceReassignment,omitempty"`
	ExcludeContractorIDs []string `json:"excludeContractorIds,omitempty"`
	PrioritizeLocal      bool     `json:"prioritizeLocal,omitempty"`
}

type Output struct {
	IssueID               string                         `json:"issueId"`
	AssignedContractorID  string                         `json:"assignedContractorId,omitempty"`
	RoutingReason         string                         `json:"routingReason"`
	Confidence            float64                        `json:"confidence"`
	Alternatives          []models.AlternativeContractor `json:"alternatives,omitempty"`
	EstimatedResponseTime string                         `json:"estimatedResponseTime,omitempty"`
	RecommendedActions    []string                       `json:"recommendedActions,omitempty"`
	EscalationRequired    bool                           `json:"escalationRequired"`
}
