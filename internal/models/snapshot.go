// internal/models/snapshot.go
package models

// Snapshot is the fixed entity graph a rule evaluation or notification render
// sees. Field access goes through the typed path resolver in the rules
// package; there is no reflective traversal.
type Snapshot struct {
	Issue          *Issue                `json:"issue,omitempty"`
	Classification *ClassificationResult `json:"classification,omitempty"`
	Property       *Property             `json:"property,omitempty"`
	Requester      *User                 `json:"requester,omitempty"`
	Contractor     *Contractor           `json:"contractor,omitempty"`
	Decision       *RoutingDecision      `json:"decision,omitempty"`
}

// Property is the minimal property view referenced by rule conditions and
// notification templates.
type Property struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
}
