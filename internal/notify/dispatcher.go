// internal/notify/dispatcher.go
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"maintenance-dispatch/internal/common/errors"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/common/metrics"
	"maintenance-dispatch/internal/models"
	"maintenance-dispatch/internal/rules"

	"github.com/google/uuid"
)

// RecipientDirectory resolves ROLE and USER recipients to users.
type RecipientDirectory interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	ListByRole(ctx context.Context, companyID, role string) ([]*models.User, error)
}

// DeliveryLog records deliveries and suppressions.
type DeliveryLog interface {
	Record(ctx context.Context, rec *models.NotificationRecord) error
}

// Deps wires the dispatcher's collaborators. Email, SMS, realtime and
// content enhancement are all optional; a nil collaborator disables that
// channel.
type Deps struct {
	Rules    rules.RuleSource
	Users    RecipientDirectory
	Log      DeliveryLog
	Throttle Throttle
	Email    EmailSender
	SMS      SMSSender
	Realtime RealtimePublisher
	Content  ContentGenerator

	EmailEnabled bool
	SMSEnabled   bool
	SMSThreshold models.NotificationPriority
	Logger       logger.Logger
}

// Dispatcher fans notifications out to realtime, email and SMS channels with
// per-rule frequency throttling and per-recipient failure isolation.
type Dispatcher struct {
	deps Deps
}

func NewDispatcher(deps Deps) *Dispatcher {
	if deps.Throttle == nil {
		deps.Throttle = NewMemoryThrottle()
	}
	if deps.SMSThreshold == "" {
		deps.SMSThreshold = models.NotifyUrgent
	}
	return &Dispatcher{deps: deps}
}

// SendSmart evaluates all active notification rules for the trigger against
// the snapshot and delivers for every matching one. An empty urgency keeps
// each rule's own priority.
func (d *Dispatcher) SendSmart(ctx context.Context, trigger models.RuleTrigger, entityID, companyID string, snapshot *models.Snapshot, urgency models.NotificationPriority) error {
	ruleList, err := d.deps.Rules.ListActiveRules(ctx, companyID, trigger)
	if err != nil {
		return err
	}

	for _, rule := range ruleList {
		if rule.ActionKind != models.ActionSendNotification {
			continue
		}
		if !rules.MatchesAll(snapshot, rule.Conditions) {
			continue
		}

		action, err := rules.DecodeAction(rule.ActionKind, rule.ActionData)
		if err != nil {
			d.deps.Logger.Warn("Skipping notification rule with bad payload", map[string]interface{}{
				"ruleId": rule.ID,
				"error":  err.Error(),
			})
			continue
		}
		notifyAction := action.(rules.SendNotificationAction)
		if urgency != "" {
			notifyAction.Priority = urgency
		}

		if err := d.deliver(ctx, rule, &notifyAction, snapshot, entityID, companyID); err != nil {
			d.deps.Logger.Error("Notification rule delivery failed", map[string]interface{}{
				"ruleId": rule.ID,
				"error":  err.Error(),
			})
		}
	}
	return nil
}

// SendRuleNotification delivers for one already-matched rule. This is the
// path the rule engine uses for SEND_NOTIFICATION and ESCALATE actions.
func (d *Dispatcher) SendRuleNotification(ctx context.Context, rule *models.WorkflowRule, action *rules.SendNotificationAction, snapshot *models.Snapshot) error {
	entityID := ""
	companyID := rule.CompanyID
	if snapshot != nil && snapshot.Issue != nil {
		entityID = snapshot.Issue.ID
		companyID = snapshot.Issue.CompanyID
	}
	return d.deliver(ctx, rule, action, snapshot, entityID, companyID)
}

func (d *Dispatcher) deliver(ctx context.Context, rule *models.WorkflowRule, action *rules.SendNotificationAction, snapshot *models.Snapshot, entityID, companyID string) error {
	if window, throttled := WindowFor(rule.Frequency); throttled {
		acquired, err := d.deps.Throttle.Acquire(ctx, rule.ID, window)
		if err != nil {
			return errors.NewNotificationSendFailedError("throttle", err)
		}
		if !acquired {
			// Deliberate silent no-op, but loud in the log so it is never
			// mistaken for "rule did not match".
			d.deps.Logger.Info("Notification suppressed by frequency throttle", map[string]interface{}{
				"ruleId":    rule.ID,
				"frequency": rule.Frequency,
				"entityId":  entityID,
			})
			metrics.NotificationsSuppressed.WithLabelValues(string(rule.Frequency)).Inc()
			d.record(ctx, rule, companyID, entityID, "", "none", models.NotifyStatusSuppressed)
			return nil
		}
	}

	content := d.buildContent(ctx, action, snapshot)

	if d.deps.Realtime != nil {
		payload := map[string]interface{}{
			"event":    string(rule.Trigger),
			"ruleId":   rule.ID,
			"entityId": entityID,
			"title":    content.Title,
			"message":  content.Message,
			"priority": string(content.Priority),
		}
		if err := d.deps.Realtime.Publish(ctx, companyID, payload); err != nil {
			metrics.NotificationsFailed.WithLabelValues("realtime").Inc()
			d.deps.Logger.Error("Realtime publish failed", map[string]interface{}{
				"ruleId": rule.ID,
				"error":  err.Error(),
			})
		} else {
			metrics.NotificationsSent.WithLabelValues("realtime").Inc()
		}
	}

	recipients := action.Recipients
	if len(recipients) == 0 {
		recipients = rule.Recipients
	}

	var wg sync.WaitGroup
	for _, recipient := range recipients {
		for _, user := range d.resolveRecipient(ctx, companyID, recipient) {
			wg.Add(1)
			go func(user *models.User, explicitEmail bool) {
				defer wg.Done()
				d.deliverToUser(ctx, rule, content, user, explicitEmail, entityID, companyID)
			}(user, recipient.Type == models.RecipientEmail)
		}
	}
	wg.Wait()

	return nil
}

func (d *Dispatcher) buildContent(ctx context.Context, action *rules.SendNotificationAction, snapshot *models.Snapshot) *models.NotificationContent {
	rendered := &models.NotificationContent{
		Title:    RenderTemplate(action.Template.Title, snapshot),
		Message:  RenderTemplate(action.Template.Message, snapshot),
		Priority: action.Priority,
	}

	if action.Template.AIEnhanced && d.deps.Content != nil {
		enhanced, err := d.deps.Content.Enhance(ctx, rendered, snapshot)
		if err == nil {
			return enhanced
		}
		d.deps.Logger.Warn("Content enhancement failed, using template", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return rendered
}

// resolveRecipient expands one recipient entry into users. Resolution errors
// are logged and yield an empty set; they never abort sibling recipients.
func (d *Dispatcher) resolveRecipient(ctx context.Context, companyID string, recipient models.Recipient) []*models.User {
	switch recipient.Type {
	case models.RecipientRole:
		users, err := d.deps.Users.ListByRole(ctx, companyID, recipient.Value)
		if err != nil {
			d.deps.Logger.Error("Role recipient resolution failed", map[string]interface{}{
				"role":  recipient.Value,
				"error": err.Error(),
			})
			return nil
		}
		return users

	case models.RecipientUser:
		user, err := d.deps.Users.GetUser(ctx, recipient.Value)
		if err != nil {
			d.deps.Logger.Error("User recipient resolution failed", map[string]interface{}{
				"userId": recipient.Value,
				"error":  err.Error(),
			})
			return nil
		}
		if user == nil {
			d.deps.Logger.Warn("Recipient user not found", map[string]interface{}{
				"userId": recipient.Value,
			})
			return nil
		}
		return []*models.User{user}

	case models.RecipientEmail:
		// Pass-through external delivery; no directory lookup.
		return []*models.User{{ID: recipient.Value, Email: recipient.Value, CompanyID: companyID}}

	default:
		d.deps.Logger.Warn("Unknown recipient type", map[string]interface{}{
			"type": recipient.Type,
		})
		return nil
	}
}

func (d *Dispatcher) deliverToUser(ctx context.Context, rule *models.WorkflowRule, content *models.NotificationContent, user *models.User, explicitEmail bool, entityID, companyID string) {
	escalated := content.Priority == models.NotifyHigh || content.Priority == models.NotifyUrgent

	if d.deps.Email != nil && d.deps.EmailEnabled && user.Email != "" && (escalated || explicitEmail) {
		if err := d.deps.Email.SendEmail(ctx, user.Email, content.Title, content.Message); err != nil {
			metrics.NotificationsFailed.WithLabelValues("email").Inc()
			d.deps.Logger.Error("Email delivery failed", map[string]interface{}{
				"ruleId":    rule.ID,
				"recipient": user.ID,
				"error":     err.Error(),
			})
			d.record(ctx, rule, companyID, entityID, user.ID, "email", models.NotifyStatusFailed)
		} else {
			metrics.NotificationsSent.WithLabelValues("email").Inc()
			d.record(ctx, rule, companyID, entityID, user.ID, "email", models.NotifyStatusSent)
		}
	}

	if d.deps.SMS != nil && d.deps.SMSEnabled && user.Phone != "" &&
		priorityRank(content.Priority) >= priorityRank(d.deps.SMSThreshold) {
		smsBody := fmt.Sprintf("%s: %s", content.Title, content.Message)
		if err := d.deps.SMS.SendSMS(ctx, user.Phone, smsBody); err != nil {
			metrics.NotificationsFailed.WithLabelValues("sms").Inc()
			d.deps.Logger.Error("SMS delivery failed", map[string]interface{}{
				"ruleId":    rule.ID,
				"recipient": user.ID,
				"error":     err.Error(),
			})
			d.record(ctx, rule, companyID, entityID, user.ID, "sms", models.NotifyStatusFailed)
		} else {
			metrics.NotificationsSent.WithLabelValues("sms").Inc()
			d.record(ctx, rule, companyID, entityID, user.ID, "sms", models.NotifyStatusSent)
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, rule *models.WorkflowRule, companyID, entityID, recipientID, channel, status string) {
	if d.deps.Log == nil {
		return
	}
	rec := &models.NotificationRecord{
		ID:          uuid.New().String(),
		RuleID:      rule.ID,
		CompanyID:   companyID,
		EntityID:    entityID,
		RecipientID: recipientID,
		Channel:     channel,
		Status:      status,
		SentAt:      time.Now().UTC(),
	}
	if err := d.deps.Log.Record(ctx, rec); err != nil {
		d.deps.Logger.Error("Notification log write failed", map[string]interface{}{
			"ruleId": rule.ID,
			"error":  err.Error(),
		})
	}
}

// ParsePriority maps a raw string to a priority, defaulting to MEDIUM.
func ParsePriority(raw string) models.NotificationPriority {
	switch models.NotificationPriority(raw) {
	case models.NotifyLow, models.NotifyMedium, models.NotifyHigh, models.NotifyUrgent:
		return models.NotificationPriority(raw)
	default:
		return models.NotifyMedium
	}
}

func priorityRank(p models.NotificationPriority) int {
	switch p {
	case models.NotifyUrgent:
		return 3
	case models.NotifyHigh:
		return 2
	case models.NotifyMedium:
		return 1
	default:
		return 0
	}
}
