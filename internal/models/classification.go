// internal/models/classification.go
package models

// RiskLevel qualifies how hazardous an issue is if left unattended.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// ClassificationResult holds the structured attributes derived from a raw
// issue description. Produced once per routing attempt, never persisted here.
type ClassificationResult struct {
	Category               IssueCategory `json:"category"`
	Severity               IssueSeverity `json:"severity"`
	Urgency                int           `json:"urgency"` // 1..10
	EstimatedCost          float64       `json:"estimatedCost"`
	EstimatedDurationHours float64       `json:"estimatedDurationHours"`
	RequiredSkills         []string      `json:"requiredSkills,omitempty"`
	Confidence             float64       `json:"confidence"` // 0..1
	RiskLevel              RiskLevel     `json:"riskLevel"`
}
