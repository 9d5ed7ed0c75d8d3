// internal/rules/paths.go
package rules

import "maintenance-dispatch/internal/models"

// accessor reads one known field off the snapshot. Returning (nil, false)
// means the path resolved to null (entity absent); unknown paths behave the
// same way.
type accessor func(s *models.Snapshot) (interface{}, bool)

// fieldAccessors is the fixed schema of dotted paths rule conditions and
// notification templates may reference. Enum-typed fields surface as plain
// strings so condition values compare without type juggling.
var fieldAccessors = map[string]accessor{
	"issue.id":            issueField(func(i *models.Issue) interface{} { return i.ID }),
	"issue.title":         issueField(func(i *models.Issue) interface{} { return i.Title }),
	"issue.description":   issueField(func(i *models.Issue) interface{} { return i.Description }),
	"issue.category":      issueField(func(i *models.Issue) interface{} { return string(i.Category) }),
	"issue.severity":      issueField(func(i *models.Issue) interface{} { return string(i.Severity) }),
	"issue.location":      issueField(func(i *models.Issue) interface{} { return i.Location }),
	"issue.propertyId":    issueField(func(i *models.Issue) interface{} { return i.PropertyID }),
	"issue.requesterId":   issueField(func(i *models.Issue) interface{} { return i.RequesterID }),
	"issue.status":        issueField(func(i *models.Issue) interface{} { return string(i.Status) }),
	"issue.contractorId":  issueField(func(i *models.Issue) interface{} { return i.ContractorID }),
	"issue.estimatedCost": issueField(func(i *models.Issue) interface{} { return i.EstimatedCost }),

	"classification.category":      classificationField(func(c *models.ClassificationResult) interface{} { return string(c.Category) }),
	"classification.severity":      classificationField(func(c *models.ClassificationResult) interface{} { return string(c.Severity) }),
	"classification.urgency":       classificationField(func(c *models.ClassificationResult) interface{} { return float64(c.Urgency) }),
	"classification.estimatedCost": classificationField(func(c *models.ClassificationResult) interface{} { return c.EstimatedCost }),
	"classification.confidence":    classificationField(func(c *models.ClassificationResult) interface{} { return c.Confidence }),
	"classification.riskLevel":     classificationField(func(c *models.ClassificationResult) interface{} { return string(c.RiskLevel) }),

	"property.id":      propertyField(func(p *models.Property) interface{} { return p.ID }),
	"property.name":    propertyField(func(p *models.Property) interface{} { return p.Name }),
	"property.address": propertyField(func(p *models.Property) interface{} { return p.Address }),
	"property.city":    propertyField(func(p *models.Property) interface{} { return p.City }),

	"requester.id":    requesterField(func(u *models.User) interface{} { return u.ID }),
	"requester.name":  requesterField(func(u *models.User) interface{} { return u.Name }),
	"requester.email": requesterField(func(u *models.User) interface{} { return u.Email }),
	"requester.role":  requesterField(func(u *models.User) interface{} { return u.Role }),

	"contractor.id":    contractorField(func(c *models.Contractor) interface{} { return c.ID }),
	"contractor.name":  contractorField(func(c *models.Contractor) interface{} { return c.Name }),
	"contractor.email": contractorField(func(c *models.Contractor) interface{} { return c.Email }),
	"contractor.phone": contractorField(func(c *models.Contractor) interface{} { return c.Phone }),

	"decision.assignedContractorId": decisionField(func(d *models.RoutingDecision) interface{} { return d.AssignedContractorID }),
	"decision.confidence":           decisionField(func(d *models.RoutingDecision) interface{} { return d.Confidence }),
	"decision.escalationRequired":   decisionField(func(d *models.RoutingDecision) interface{} { return d.EscalationRequired }),
	"decision.routingReason":        decisionField(func(d *models.RoutingDecision) interface{} { return d.RoutingReason }),
}

// Resolve looks up a dotted path against the snapshot. Missing entity or
// unknown path resolves to null.
func Resolve(s *models.Snapshot, path string) (interface{}, bool) {
	if s == nil {
		return nil, false
	}
	acc, ok := fieldAccessors[path]
	if !ok {
		return nil, false
	}
	return acc(s)
}

func issueField(get func(*models.Issue) interface{}) accessor {
	return func(s *models.Snapshot) (interface{}, bool) {
		if s.Issue == nil {
			return nil, false
		}
		return get(s.Issue), true
	}
}

func classificationField(get func(*models.ClassificationResult) interface{}) accessor {
	return func(s *models.Snapshot) (interface{}, bool) {
		if s.Classification == nil {
			return nil, false
		}
		return get(s.Classification), true
	}
}

func propertyField(get func(*models.Property) interface{}) accessor {
	return func(s *models.Snapshot) (interface{}, bool) {
		if s.Property == nil {
			return nil, false
		}
		return get(s.Property), true
	}
}

func requesterField(get func(*models.User) interface{}) accessor {
	return func(s *models.Snapshot) (interface{}, bool) {
		if s.Requester == nil {
			return nil, false
		}
		return get(s.Requester), true
	}
}

func contractorField(get func(*models.Contractor) interface{}) accessor {
	return func(s *models.Snapshot) (interface{}, bool) {
		if s.Contractor == nil {
			return nil, false
		}
		return get(s.Contractor), true
	}
}

func decisionField(get func(*models.RoutingDecision) interface{}) accessor {
	return func(s *models.Snapshot) (interface{}, bool) {
		if s.Decision == nil {
			return nil, false
		}
		return get(s.Decision), true
	}
}
