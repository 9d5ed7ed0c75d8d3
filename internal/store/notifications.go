// internal/store/notifications.go
package store

import (
	"context"
	"database/sql"
	"time"

	"maintenance-dispatch/internal/common/errors"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"
)

// NotificationLog persists deliveries and suppressions. CountRecent backs the
// database fallback of the frequency throttle.
type NotificationLog struct {
	db     *sql.DB
	logger logger.Logger
}

func NewNotificationLog(db *sql.DB, log logger.Logger) *NotificationLog {
	return &NotificationLog{db: db, logger: log}
}

func (s *NotificationLog) Record(ctx context.Context, rec *models.NotificationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_log (id, rule_id, company_id, entity_id, recipient_id, channel, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.RuleID, rec.CompanyID, rec.EntityID,
		rec.RecipientID, rec.Channel, rec.Status, rec.SentAt,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("notification_log_insert", err)
	}
	return nil
}

// CountRecent counts deliveries for a rule since the given timestamp.
// Suppressed entries do not count against the frequency window.
func (s *NotificationLog) CountRecent(ctx context.Context, ruleID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM notification_log
		WHERE rule_id = $1 AND status = 'sent' AND sent_at >= $2`,
		ruleID, since).Scan(&count)
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("notification_log_count", err)
	}
	return count, nil
}
