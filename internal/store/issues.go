// internal/store/issues.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"maintenance-dispatch/internal/common/errors"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/lib/pq"
)

// IssueStore reads and mutates maintenance issues. Only the fields routing
// and rules are allowed to touch are written back: status, contractorId,
// severity, estimatedCost, notes, assignedAt.
type IssueStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewIssueStore(db *sql.DB, log logger.Logger) *IssueStore {
	return &IssueStore{db: db, logger: log}
}

func (s *IssueStore) GetIssue(ctx context.Context, issueID string) (*models.Issue, error) {
	var issue models.Issue
	var contractorID sql.NullString
	var assignedAt sql.NullTime
	var notes pq.StringArray

	err := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, title, description, category, severity,
		       location, property_id, requester_id, status, contractor_id,
		       estimated_cost, notes, created_at, assigned_at
		FROM issues
		WHERE id = $1`, issueID).Scan(
		&issue.ID, &issue.CompanyID, &issue.Title, &issue.Description,
		&issue.Category, &issue.Severity, &issue.Location, &issue.PropertyID,
		&issue.RequesterID, &issue.Status, &contractorID,
		&issue.EstimatedCost, &notes, &issue.CreatedAt, &assignedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewIssueNotFoundError(issueID)
	}
	if err != nil {
		return nil, errors.NewIssueLoadFailedError(err)
	}

	if contractorID.Valid {
		issue.ContractorID = contractorID.String
	}
	if assignedAt.Valid {
		t := assignedAt.Time
		issue.AssignedAt = &t
	}
	issue.Notes = []string(notes)

	return &issue, nil
}

// UpdateIssue persists the mutable routing fields of an issue.
func (s *IssueStore) UpdateIssue(ctx context.Context, issue *models.Issue) error {
	var contractorID interface{}
	if issue.ContractorID != "" {
		contractorID = issue.ContractorID
	}
	var assignedAt interface{}
	if issue.AssignedAt != nil {
		assignedAt = *issue.AssignedAt
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE issues
		SET status = $2, contractor_id = $3, severity = $4,
		    estimated_cost = $5, notes = $6, assigned_at = $7
		WHERE id = $1`,
		issue.ID, issue.Status, contractorID, issue.Severity,
		issue.EstimatedCost, pq.Array(issue.Notes), assignedAt,
	)
	if err != nil {
		return errors.NewIssueUpdateFailedError(issue.ID, err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return errors.NewIssueNotFoundError(issue.ID)
	}

	s.logger.Debug("Issue updated", map[string]interface{}{
		"issueId":      issue.ID,
		"status":       issue.Status,
		"contractorId": issue.ContractorID,
	})
	return nil
}

// SaveClassification records the classification used for an assignment so the
// decision can be audited later.
func (s *IssueStore) SaveClassification(ctx context.Context, issueID string, result *models.ClassificationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return errors.NewIssueUpdateFailedError(issueID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO issue_classifications (issue_id, classification, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (issue_id) DO UPDATE
		SET classification = EXCLUDED.classification, created_at = EXCLUDED.created_at`,
		issueID, payload, time.Now().UTC(),
	)
	if err != nil {
		return errors.NewIssueUpdateFailedError(issueID, err)
	}
	return nil
}
