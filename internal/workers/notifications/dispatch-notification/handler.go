// internal/workers/notifications/dispatch-notification/handler.go
package dispatchnotification

import (
	"context"
	"encoding/json"
	"fmt"

	"maintenance-dispatch/internal/common/errors"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"
	"maintenance-dispatch/internal/notify"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "dispatch-notification"
)

// SnapshotLoader assembles the entity graph templates render from.
type SnapshotLoader interface {
	Build(ctx context.Context, issueID string) (*models.Snapshot, error)
}

// Sender is the notification dispatcher surface this worker drives.
type Sender interface {
	SendSmart(ctx context.Context, trigger models.RuleTrigger, entityID, companyID string, snapshot *models.Snapshot, urgency models.NotificationPriority) error
}

// Queue defers low-priority dispatches to the batch scheduler. Optional; a
// nil queue sends everything inline.
type Queue interface {
	Enqueue(n notify.QueuedNotification)
}

type Handler struct {
	config    *Config
	snapshots SnapshotLoader
	sender    Sender
	queue     Queue
	errs      *errors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, snapshots SnapshotLoader, sender Sender, queue Queue, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		snapshots: snapshots,
		sender:    sender,
		queue:     queue,
		errs:      errors.NewErrorHandler(log),
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errs.HandleJobError(context.Background(), client, job, err)
		return err
	}

	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.IssueID == "" {
		return nil, fmt.Errorf("issueId is required")
	}
	if input.Trigger == "" {
		return nil, fmt.Errorf("trigger is required")
	}

	snapshot, err := h.snapshots.Build(ctx, input.IssueID)
	if err != nil {
		return nil, err
	}

	urgency := parseUrgency(input.Urgency)
	trigger := models.RuleTrigger(input.Trigger)

	if h.queue != nil && urgency == models.NotifyLow {
		h.queue.Enqueue(notify.QueuedNotification{
			Trigger:   trigger,
			EntityID:  snapshot.Issue.ID,
			CompanyID: snapshot.Issue.CompanyID,
			Snapshot:  snapshot,
			Urgency:   urgency,
		})
		h.logger.Info("notification queued for batch dispatch", map[string]interface{}{
			"issueId": input.IssueID,
			"trigger": input.Trigger,
		})
		return &Output{
			IssueID: input.IssueID,
			Trigger: input.Trigger,
			Queued:  true,
		}, nil
	}

	err = h.sender.SendSmart(ctx, trigger, snapshot.Issue.ID, snapshot.Issue.CompanyID, snapshot, urgency)
	if err != nil {
		return nil, err
	}

	h.logger.Info("notifications dispatched", map[string]interface{}{
		"issueId": input.IssueID,
		"trigger": input.Trigger,
		"urgency": string(urgency),
	})
	return &Output{
		IssueID:    input.IssueID,
		Trigger:    input.Trigger,
		Dispatched: true,
	}, nil
}

func parseUrgency(raw string) models.NotificationPriority {
	switch models.NotificationPriority(raw) {
	case models.NotifyLow, models.NotifyMedium, models.NotifyHigh, models.NotifyUrgent:
		return models.NotificationPriority(raw)
	default:
		return models.NotifyMedium
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
