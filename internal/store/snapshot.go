// internal/store/snapshot.go
package store

import (
	"context"

	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"
)

type issueGetter interface {
	GetIssue(ctx context.Context, issueID string) (*models.Issue, error)
}

type peopleGetter interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetProperty(ctx context.Context, propertyID string) (*models.Property, error)
}

type contractorGetter interface {
	GetContractor(ctx context.Context, contractorID string) (*models.Contractor, error)
}

// SnapshotBuilder assembles the entity graph rule conditions and notification
// templates read from. Only the issue is mandatory; the satellite entities are
// loaded best-effort so a missing property row cannot block rule evaluation.
type SnapshotBuilder struct {
	issues      issueGetter
	people      peopleGetter
	contractors contractorGetter
	logger      logger.Logger
}

func NewSnapshotBuilder(issues issueGetter, people peopleGetter, contractors contractorGetter, log logger.Logger) *SnapshotBuilder {
	return &SnapshotBuilder{
		issues:      issues,
		people:      people,
		contractors: contractors,
		logger:      log,
	}
}

// Build loads the snapshot rooted at issueID.
func (b *SnapshotBuilder) Build(ctx context.Context, issueID string) (*models.Snapshot, error) {
	issue, err := b.issues.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	snapshot := &models.Snapshot{Issue: issue}

	if issue.PropertyID != "" {
		property, err := b.people.GetProperty(ctx, issue.PropertyID)
		if err != nil {
			b.logger.Warn("Snapshot property load failed", map[string]interface{}{
				"issueId":    issueID,
				"propertyId": issue.PropertyID,
				"error":      err.Error(),
			})
		} else {
			snapshot.Property = property
		}
	}

	if issue.RequesterID != "" {
		requester, err := b.people.GetUser(ctx, issue.RequesterID)
		if err != nil {
			b.logger.Warn("Snapshot requester load failed", map[string]interface{}{
				"issueId":     issueID,
				"requesterId": issue.RequesterID,
				"error":       err.Error(),
			})
		} else {
			snapshot.Requester = requester
		}
	}

	if issue.ContractorID != "" {
		contractor, err := b.contractors.GetContractor(ctx, issue.ContractorID)
		if err != nil {
			b.logger.Warn("Snapshot contractor load failed", map[string]interface{}{
				"issueId":      issueID,
				"contractorId": issue.ContractorID,
				"error":        err.Error(),
			})
		} else {
			snapshot.Contractor = contractor
		}
	}

	return snapshot, nil
}
