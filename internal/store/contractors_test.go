// internal/store/contractors_test.go
package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractorColumns() []string {
	return []string{"id", "company_id", "name", "email", "phone", "specialties", "status", "max_concurrent_jobs"}
}

func TestContractorStore_ListEligible(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewContractorStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM contractors")).
		WithArgs("company-1").
		WillReturnRows(sqlmock.NewRows(contractorColumns()).
			AddRow("c-1", "company-1", "Alice Plumbing", "alice@example.com", "+15550001",
				pq.StringArray{"PLUMBING", "GENERAL"}, "ACTIVE", 5).
			AddRow("c-2", "company-1", "Bob Electric", nil, nil,
				pq.StringArray{"ELECTRICAL"}, "ACTIVE", 3))

	contractors, err := store.ListEligible(context.Background(), "company-1")
	require.NoError(t, err)
	require.Len(t, contractors, 2)

	assert.Equal(t, "c-1", contractors[0].ID)
	assert.Equal(t, []models.IssueCategory{models.CategoryPlumbing, models.CategoryGeneral},
		contractors[0].Specialties)
	assert.Empty(t, contractors[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractorStore_GetContractor_MissingReturnsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewContractorStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM contractors")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(contractorColumns()))

	c, err := store.GetContractor(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestContractorStore_GetStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewContractorStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{"active_jobs", "rating", "avg_response"}).
			AddRow(2, 0.9, 45.0))

	stats, err := store.GetStats(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ActiveJobs)
	assert.Equal(t, 0.9, stats.RatingScore)
	assert.Equal(t, 45.0, stats.AvgResponseMinutes)
}

func TestNotificationLog_CountRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	log := NewNotificationLog(db, logger.NewTestLogger(t))

	since := time.Now().Add(-24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("FROM notification_log")).
		WithArgs("rule-1", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := log.CountRecent(context.Background(), "rule-1", since)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
