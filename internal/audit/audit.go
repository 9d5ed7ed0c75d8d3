// internal/audit/audit.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
)

// Trail indexes routing decisions into Elasticsearch for later analysis.
// Writes are best-effort: an unreachable cluster is logged and never fails
// the routing call that produced the decision.
type Trail struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewTrail(client *elasticsearch.Client, index string, log logger.Logger) *Trail {
	return &Trail{client: client, index: index, logger: log}
}

type decisionDocument struct {
	IssueID              string                         `json:"issueId"`
	CompanyID            string                         `json:"companyId"`
	AssignedContractorID string                         `json:"assignedContractorId,omitempty"`
	RoutingReason        string                         `json:"routingReason"`
	Confidence           float64                        `json:"confidence"`
	EscalationRequired   bool                           `json:"escalationRequired"`
	Alternatives         []models.AlternativeContractor `json:"alternatives,omitempty"`
	Classification       *models.ClassificationResult   `json:"classification,omitempty"`
	RecordedAt           time.Time                      `json:"recordedAt"`
}

// RecordDecision indexes one routing decision.
func (t *Trail) RecordDecision(ctx context.Context, companyID string, decision *models.RoutingDecision, classification *models.ClassificationResult) {
	if t == nil || t.client == nil {
		return
	}

	doc := decisionDocument{
		IssueID:              decision.IssueID,
		CompanyID:            companyID,
		AssignedContractorID: decision.AssignedContractorID,
		RoutingReason:        decision.RoutingReason,
		Confidence:           decision.Confidence,
		EscalationRequired:   decision.EscalationRequired,
		Alternatives:         decision.AlternativeContractors,
		Classification:       classification,
		RecordedAt:           time.Now().UTC(),
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		t.logger.Error("Audit document marshal failed", map[string]interface{}{
			"issueId": decision.IssueID,
			"error":   err.Error(),
		})
		return
	}

	res, err := t.client.Index(
		t.index,
		bytes.NewReader(payload),
		t.client.Index.WithContext(ctx),
		t.client.Index.WithDocumentID(uuid.New().String()),
	)
	if err != nil {
		t.logger.Warn("Audit index write failed", map[string]interface{}{
			"issueId": decision.IssueID,
			"error":   err.Error(),
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		t.logger.Warn("Audit index rejected document", map[string]interface{}{
			"issueId": decision.IssueID,
			"status":  fmt.Sprintf("%s", res.Status()),
		})
	}
}
