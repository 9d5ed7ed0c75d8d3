// internal/workers/rules/evaluate-rules/handler.go
package evaluaterules

import (
	"context"
	"encoding/json"
	"fmt"

	"maintenance-dispatch/internal/common/errors"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"
	"maintenance-dispatch/internal/rules"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "evaluate-rules"
)

var knownTriggers = map[models.RuleTrigger]bool{
	models.TriggerIssueCreated:   true,
	models.TriggerIssueAssigned:  true,
	models.TriggerIssueEscalated: true,
	models.TriggerIssueCompleted: true,
	models.TriggerCostEstimated:  true,
	models.TriggerStatusChanged:  true,
}

// SnapshotLoader assembles the entity graph rules evaluate against.
type SnapshotLoader interface {
	Build(ctx context.Context, issueID string) (*models.Snapshot, error)
}

// Evaluator runs the rule engine for one trigger.
type Evaluator interface {
	Evaluate(ctx context.Context, trigger models.RuleTrigger, snapshot *models.Snapshot) ([]rules.ExecutedAction, error)
}

type Handler struct {
	config    *Config
	snapshots SnapshotLoader
	evaluator Evaluator
	errs      *errors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, snapshots SnapshotLoader, evaluator Evaluator, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		snapshots: snapshots,
		evaluator: evaluator,
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
	trigger := models.RuleTrigger(input.Trigger)
	if !knownTriggers[trigger] {
		return nil, fmt.Errorf("unknown trigger %q", input.Trigger)
	}

	snapshot, err := h.snapshots.Build(ctx, input.IssueID)
	if err != nil {
		return nil, err
	}

	executed, err := h.evaluator.Evaluate(ctx, trigger, snapshot)
	if err != nil {
		return nil, err
	}

	output := &Output{
		IssueID:         input.IssueID,
		Trigger:         input.Trigger,
		ExecutedActions: make([]ExecutedAction, 0, len(executed)),
	}
	for _, action := range executed {
		output.ExecutedActions = append(output.ExecutedActions, ExecutedAction{
			RuleID:   action.RuleID,
			RuleName: action.RuleName,
			Action:   string(action.Kind),
			Detail:   action.Detail,
		})
	}

	h.logger.Info("rules evaluated", map[string]interface{}{
		"issueId":  input.IssueID,
		"trigger":  input.Trigger,
		"executed": len(executed),
	})
	return output, nil
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
