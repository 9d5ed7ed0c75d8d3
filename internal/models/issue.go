// internal/models/issue.go
package models

import "time"

// IssueCategory is the maintenance trade a reported issue belongs to.
type IssueCategory string

const (
	CategoryPlumbing   IssueCategory = "PLUMBING"
	CategoryElectrical IssueCategory = "ELECTRICAL"
	CategoryHVAC       IssueCategory = "HVAC"
	CategoryAppliance  IssueCategory = "APPLIANCE"
	CategoryStructural IssueCategory = "STRUCTURAL"
	CategoryGeneral    IssueCategory = "GENERAL"
)

// IssueSeverity drives the urgency multiplier and escalation rules.
type IssueSeverity string

const (
	SeverityLow    IssueSeverity = "LOW"
	SeverityMedium IssueSeverity = "MEDIUM"
	SeverityHigh   IssueSeverity = "HIGH"
	SeverityUrgent IssueSeverity = "URGENT"
)

// IssueStatus state machine:
// UNASSIGNED -> ASSIGNED -> IN_PROGRESS -> COMPLETED,
// CANCELLED reachable from UNASSIGNED and ASSIGNED.
// Routing only performs UNASSIGNED -> ASSIGNED (or forced re-assignment).
type IssueStatus string

const (
	StatusUnassigned IssueStatus = "UNASSIGNED"
	StatusAssigned   IssueStatus = "ASSIGNED"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusCompleted  IssueStatus = "COMPLETED"
	StatusCancelled  IssueStatus = "CANCELLED"
	StatusApproved   IssueStatus = "APPROVED"
)

type Issue struct {
	ID            string        `json:"id"`
	CompanyID     string        `json:"companyId"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      IssueCategory `json:"category"`
	Severity      IssueSeverity `json:"severity"`
	Location      string        `json:"location,omitempty"`
	PropertyID    string        `json:"propertyId"`
	RequesterID   string        `json:"requesterId"`
	Status        IssueStatus   `json:"status"`
	ContractorID  string        `json:"contractorId,omitempty"`
	EstimatedCost float64       `json:"estimatedCost,omitempty"`
	Notes         []string      `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	AssignedAt    *time.Time    `json:"assignedAt,omitempty"`
}

// Assigned reports whether the issue already carries a contractor.
func (i *Issue) Assigned() bool {
	return i.ContractorID != ""
}
