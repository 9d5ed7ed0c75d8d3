// internal/notify/dispatcher_test.go
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuleSource struct {
	rules []*models.WorkflowRule
}

func (f *fakeRuleSource) ListActiveRules(_ context.Context, _ string, _ models.RuleTrigger) ([]*models.WorkflowRule, error) {
	return f.rules, nil
}

type fakeUsers struct {
	users map[string]*models.User
	roles map[string][]*models.User
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUsers) ListByRole(_ context.Context, _ string, role string) ([]*models.User, error) {
	return f.roles[role], nil
}

type fakeEmail struct {
	mu     sync.Mutex
	sent   []string
	failTo map[string]bool
}

func (f *fakeEmail) SendEmail(_ context.Context, to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTo[to] {
		return errors.New("smtp rejected")
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSMS) SendSMS(_ context.Context, phone, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, phone)
	return nil
}

type fakeRealtime struct {
	mu       sync.Mutex
	payloads []map[string]interface{}
}

func (f *fakeRealtime) Publish(_ context.Context, _ string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload.(map[string]interface{}))
	return nil
}

type fakeLog struct {
	mu      sync.Mutex
	records []*models.NotificationRecord
}

func (f *fakeLog) Record(_ context.Context, rec *models.NotificationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeLog) byStatus(status string) []*models.NotificationRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.NotificationRecord
	for _, r := range f.records {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

func notifyRule(id string, freq models.NotifyFrequency, actionData string) *models.WorkflowRule {
	return &models.WorkflowRule{
		ID:         id,
		CompanyID:  "company-1",
		Name:       id,
		Trigger:    models.TriggerIssueCreated,
		ActionKind: models.ActionSendNotification,
		ActionData: json.RawMessage(actionData),
		Priority:   1,
		IsActive:   true,
		Frequency:  freq,
	}
}

func notifySnapshot() *models.Snapshot {
	return &models.Snapshot{
		Issue: &models.Issue{
			ID:        "issue-1",
			CompanyID: "company-1",
			Title:     "Burst pipe",
			Severity:  models.SeverityUrgent,
		},
	}
}

func TestDispatcher_SendSmart_DeliversToRoleRecipients(t *testing.T) {
	email := &fakeEmail{}
	realtime := &fakeRealtime{}
	log := &fakeLog{}
	users := &fakeUsers{roles: map[string][]*models.User{
		"PROPERTY_MANAGER": {
			{ID: "u-1", Email: "pm1@example.com"},
			{ID: "u-2", Email: "pm2@example.com"},
		},
	}}
	actionData := `{"template":{"title":"New issue: {{issue.title}}","message":"Check {{issue.title}}"},` +
		`"recipients":[{"type":"ROLE","value":"PROPERTY_MANAGER"}],"priority":"HIGH"}`

	d := NewDispatcher(Deps{
		Rules:        &fakeRuleSource{rules: []*models.WorkflowRule{notifyRule("rule-1", models.FreqImmediate, actionData)}},
		Users:        users,
		Log:          log,
		Email:        email,
		Realtime:     realtime,
		EmailEnabled: true,
		Logger:       logger.NewTestLogger(t),
	})

	err := d.SendSmart(context.Background(), models.TriggerIssueCreated, "issue-1", "company-1", notifySnapshot(), "")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"pm1@example.com", "pm2@example.com"}, email.sent)
	require.Len(t, realtime.payloads, 1)
	assert.Equal(t, "New issue: Burst pipe", realtime.payloads[0]["title"])
	assert.Len(t, log.byStatus(models.NotifyStatusSent), 2)
}

func TestDispatcher_PriorityGatesEmailChannel(t *testing.T) {
	email := &fakeEmail{}
	realtime := &fakeRealtime{}
	users := &fakeUsers{users: map[string]*models.User{
		"u-1": {ID: "u-1", Email: "user@example.com"},
	}}
	actionData := `{"template":{"title":"t","message":"m"},` +
		`"recipients":[{"type":"USER","value":"u-1"}],"priority":"MEDIUM"}`

	d := NewDispatcher(Deps{
		Rules:        &fakeRuleSource{rules: []*models.WorkflowRule{notifyRule("rule-1", models.FreqImmediate, actionData)}},
		Users:        users,
		Email:        email,
		Realtime:     realtime,
		EmailEnabled: true,
		Logger:       logger.NewTestLogger(t),
	})

	err := d.SendSmart(context.Background(), models.TriggerIssueCreated, "issue-1", "company-1", notifySnapshot(), "")
	require.NoError(t, err)

	assert.Empty(t, email.sent, "MEDIUM priority uses only the realtime channel")
	assert.Len(t, realtime.payloads, 1)
}

func TestDispatcher_ThrottleSuppressesWithinWindow(t *testing.T) {
	email := &fakeEmail{}
	log := &fakeLog{}
	users := &fakeUsers{users: map[string]*models.User{
		"u-1": {ID: "u-1", Email: "user@example.com"},
	}}
	actionData := `{"template":{"title":"t","message":"m"},` +
		`"recipients":[{"type":"USER","value":"u-1"}],"priority":"URGENT"}`
	rule := notifyRule("rule-daily", models.FreqDaily, actionData)

	d := NewDispatcher(Deps{
		Rules:        &fakeRuleSource{rules: []*models.WorkflowRule{rule}},
		Users:        users,
		Log:          log,
		Email:        email,
		EmailEnabled: true,
		Logger:       logger.NewTestLogger(t),
	})

	for i := 0; i < 10; i++ {
		err := d.SendSmart(context.Background(), models.TriggerIssueCreated, "issue-1", "company-1", notifySnapshot(), "")
		require.NoError(t, err)
	}

	assert.Len(t, email.sent, 1, "at most one delivery per rule per window")
	assert.Len(t, log.byStatus(models.NotifyStatusSuppressed), 9)
}

func TestDispatcher_PerRecipientFailureIsolation(t *testing.T) {
	email := &fakeEmail{failTo: map[string]bool{"broken@example.com": true}}
	log := &fakeLog{}
	users := &fakeUsers{roles: map[string][]*models.User{
		"ADMIN": {
			{ID: "u-1", Email: "broken@example.com"},
			{ID: "u-2", Email: "ok@example.com"},
		},
	}}
	goodData := `{"template":{"title":"t","message":"m"},` +
		`"recipients":[{"type":"ROLE","value":"ADMIN"}],"priority":"HIGH"}`

	d := NewDispatcher(Deps{
		Rules:        &fakeRuleSource{rules: []*models.WorkflowRule{notifyRule("rule-1", models.FreqImmediate, goodData)}},
		Users:        users,
		Log:          log,
		Email:        email,
		EmailEnabled: true,
		Logger:       logger.NewTestLogger(t),
	})

	err := d.SendSmart(context.Background(), models.TriggerIssueCreated, "issue-1", "company-1", notifySnapshot(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"ok@example.com"}, email.sent, "one failing recipient must not block the other")
	assert.Len(t, log.byStatus(models.NotifyStatusFailed), 1)
	assert.Len(t, log.byStatus(models.NotifyStatusSent), 1)
}

func TestDispatcher_EmailRecipientIsPassThrough(t *testing.T) {
	email := &fakeEmail{}
	actionData := `{"template":{"title":"t","message":"m"},` +
		`"recipients":[{"type":"EMAIL","value":"vendor@external.com"}],"priority":"LOW"}`

	d := NewDispatcher(Deps{
		Rules:        &fakeRuleSource{rules: []*models.WorkflowRule{notifyRule("rule-1", models.FreqImmediate, actionData)}},
		Users:        &fakeUsers{},
		Email:        email,
		EmailEnabled: true,
		Logger:       logger.NewTestLogger(t),
	})

	err := d.SendSmart(context.Background(), models.TriggerIssueCreated, "issue-1", "company-1", notifySnapshot(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"vendor@external.com"}, email.sent,
		"EMAIL recipients bypass the directory and the priority gate")
}

func TestDispatcher_SMSOnlyAtThreshold(t *testing.T) {
	sms := &fakeSMS{}
	users := &fakeUsers{users: map[string]*models.User{
		"u-1": {ID: "u-1", Email: "u@example.com", Phone: "+15550001"},
	}}

	makeDispatcher := func(ruleData string) *Dispatcher {
		return NewDispatcher(Deps{
			Rules:        &fakeRuleSource{rules: []*models.WorkflowRule{notifyRule("rule-1", models.FreqImmediate, ruleData)}},
			Users:        users,
			SMS:          sms,
			SMSEnabled:   true,
			SMSThreshold: models.NotifyUrgent,
			Logger:       logger.NewTestLogger(t),
		})
	}

	highData := `{"template":{"title":"t","message":"m"},"recipients":[{"type":"USER","value":"u-1"}],"priority":"HIGH"}`
	err := makeDispatcher(highData).SendSmart(context.Background(), models.TriggerIssueCreated, "issue-1", "company-1", notifySnapshot(), "")
	require.NoError(t, err)
	assert.Empty(t, sms.sent, "HIGH stays below the URGENT SMS threshold")

	urgentData := `{"template":{"title":"t","message":"m"},"recipients":[{"type":"USER","value":"u-1"}],"priority":"URGENT"}`
	err = makeDispatcher(urgentData).SendSmart(context.Background(), models.TriggerIssueCreated, "issue-1", "company-1", notifySnapshot(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"+15550001"}, sms.sent)
}

func TestDispatcher_UrgencyOverridesRulePriority(t *testing.T) {
	email := &fakeEmail{}
	users := &fakeUsers{users: map[string]*models.User{
		"u-1": {ID: "u-1", Email: "user@example.com"},
	}}
	actionData := `{"template":{"title":"t","message":"m"},"recipients":[{"type":"USER","value":"u-1"}],"priority":"LOW"}`

	d := NewDispatcher(Deps{
		Rules:        &fakeRuleSource{rules: []*models.WorkflowRule{notifyRule("rule-1", models.FreqImmediate, actionData)}},
		Users:        users,
		Email:        email,
		EmailEnabled: true,
		Logger:       logger.NewTestLogger(t),
	})

	err := d.SendSmart(context.Background(), models.TriggerIssueCreated, "issue-1", "company-1", notifySnapshot(), models.NotifyUrgent)
	require.NoError(t, err)
	assert.Len(t, email.sent, 1, "caller-provided urgency escalates the channel set")
}
