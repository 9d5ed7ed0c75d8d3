// internal/models/notification.go
package models

import "time"

// NotificationPriority gates channel escalation: HIGH and URGENT add the
// email channel on top of realtime delivery.
type NotificationPriority string

const (
	NotifyLow    NotificationPriority = "LOW"
	NotifyMedium NotificationPriority = "MEDIUM"
	NotifyHigh   NotificationPriority = "HIGH"
	NotifyUrgent NotificationPriority = "URGENT"
)

// Notification delivery statuses.
const (
	NotifyStatusSent       = "sent"
	NotifyStatusFailed     = "failed"
	NotifyStatusSuppressed = "suppressed"
)

// NotificationContent is the rendered title/message pair for one rule firing.
type NotificationContent struct {
	Title    string               `json:"title"`
	Message  string               `json:"message"`
	Priority NotificationPriority `json:"priority"`
}

// NotificationTemplate carries literal {{path}} variables resolved against
// the entity snapshot at render time.
type NotificationTemplate struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	AIEnhanced bool   `json:"aiEnhanced,omitempty"`
}

// NotificationRecord is one delivery (or suppression) written to the log.
type NotificationRecord struct {
	ID          string    `json:"id"`
	RuleID      string    `json:"ruleId"`
	CompanyID   string    `json:"companyId"`
	EntityID    string    `json:"entityId"`
	RecipientID string    `json:"recipientId"`
	Channel     string    `json:"channel"` // "realtime", "email", "sms"
	Status      string    `json:"status"`
	SentAt      time.Time `json:"sentAt"`
}

// User is the minimal directory view needed for ROLE/USER recipient
// resolution. Account management itself is out of scope.
type User struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"` // e.g. "PROPERTY_MANAGER", "ADMIN"
}
