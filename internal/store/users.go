// internal/store/users.go
package store

import (
	"context"
	"database/sql"

	"maintenance-dispatch/internal/common/errors"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"
)

// UserStore is the minimal directory view used for recipient resolution and
// property lookups.
type UserStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewUserStore(db *sql.DB, log logger.Logger) *UserStore {
	return &UserStore{db: db, logger: log}
}

func (s *UserStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	var phone sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, email, phone, role
		FROM users
		WHERE id = $1`, userID).Scan(
		&u.ID, &u.CompanyID, &u.Name, &u.Email, &phone, &u.Role,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("user", err)
	}
	u.Phone = phone.String
	return &u, nil
}

// ListByRole returns all users of a role within a company, for ROLE recipient
// fan-out.
func (s *UserStore) ListByRole(ctx context.Context, companyID, role string) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, name, email, phone, role
		FROM users
		WHERE company_id = $1 AND role = $2
		ORDER BY id`, companyID, role)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("users_by_role", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		var phone sql.NullString
		if err := rows.Scan(&u.ID, &u.CompanyID, &u.Name, &u.Email, &phone, &u.Role); err != nil {
			return nil, errors.NewQueryExecutionFailedError("users_by_role", err)
		}
		u.Phone = phone.String
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("users_by_role", err)
	}
	return users, nil
}

func (s *UserStore) GetProperty(ctx context.Context, propertyID string) (*models.Property, error) {
	var p models.Property
	var address, city sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, address, city
		FROM properties
		WHERE id = $1`, propertyID).Scan(&p.ID, &p.Name, &address, &city)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("property", err)
	}
	p.Address = address.String
	p.City = city.String
	return &p, nil
}
