// internal/store/contractors.go
package store

import (
	"context"
	"database/sql"

	"maintenance-dispatch/internal/common/errors"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/lib/pq"
)

// ContractorStore reads the contractor roster. The directory layer sits on
// top and adds stats caching; this layer is plain persistence.
type ContractorStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewContractorStore(db *sql.DB, log logger.Logger) *ContractorStore {
	return &ContractorStore{db: db, logger: log}
}

// ListEligible returns all ACTIVE contractors for a company in a stable
// order. Ranking relies on this order for deterministic tie-breaks, so the
// query must sort on a unique column.
func (s *ContractorStore) ListEligible(ctx context.Context, companyID string) ([]*models.Contractor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, name, email, phone, specialties, status, max_concurrent_jobs
		FROM contractors
		WHERE company_id = $1 AND status = 'ACTIVE'
		ORDER BY created_at, id`, companyID)
	if err != nil {
		return nil, errors.NewDirectoryFailedError(err)
	}
	defer rows.Close()

	var contractors []*models.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, errors.NewDirectoryFailedError(err)
		}
		contractors = append(contractors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDirectoryFailedError(err)
	}

	return contractors, nil
}

// GetContractor returns a single contractor regardless of status; rule
// actions need to see INACTIVE contractors to reject them.
func (s *ContractorStore) GetContractor(ctx context.Context, contractorID string) (*models.Contractor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, email, phone, specialties, status, max_concurrent_jobs
		FROM contractors
		WHERE id = $1`, contractorID)

	c, err := scanContractor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewDirectoryFailedError(err)
	}
	return c, nil
}

// GetStats computes the live performance view for one contractor.
func (s *ContractorStore) GetStats(ctx context.Context, contractorID string) (*models.ContractorStats, error) {
	var stats models.ContractorStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM issues
			 WHERE contractor_id = $1 AND status IN ('ASSIGNED', 'IN_PROGRESS')),
			COALESCE(rating_score, 0),
			COALESCE(avg_response_minutes, 0)
		FROM contractors
		WHERE id = $1`, contractorID).Scan(
		&stats.ActiveJobs, &stats.RatingScore, &stats.AvgResponseMinutes,
	)
	if err != nil {
		return nil, errors.NewDirectoryFailedError(err)
	}
	return &stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContractor(row rowScanner) (*models.Contractor, error) {
	var c models.Contractor
	var email, phone sql.NullString
	var specialties pq.StringArray

	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &email, &phone,
		&specialties, &c.Status, &c.MaxConcurrentJobs)
	if err != nil {
		return nil, err
	}

	c.Email = email.String
	c.Phone = phone.String
	c.Specialties = make([]models.IssueCategory, 0, len(specialties))
	for _, s := range specialties {
		c.Specialties = append(c.Specialties, models.IssueCategory(s))
	}
	return &c, nil
}
