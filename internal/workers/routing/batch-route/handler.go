// internal/workers/routing/batch-route/handler.go
package batchroute

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"maintenance-dispatch/internal/common/errors"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "batch-route"
)

// BatchRouter is the routing engine surface this worker drives.
type BatchRouter interface {
	BatchRoute(ctx context.Context, issueIDs []string, opts models.BatchOptions) (map[string]*models.RoutingDecision, error)
}

type Handler struct {
	config *Config
	router BatchRouter
	errs   *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, router BatchRouter, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		router: router,
		errs:   errors.NewErrorHandler(log),
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	if len(input.IssueIDs) == 0 {
		return nil, fmt.Errorf("issueIds is required")
	}

	decisions, err := h.router.BatchRoute(ctx, input.IssueIDs, models.BatchOptions{
		RouteOptions: models.RouteOptions{
			PrioritizeLocal: input.PrioritizeLocal,
		},
		PrioritizeUrgent: input.PrioritizeUrgent,
		Concurrency:      h.config.Concurrency,
	})
	if err != nil {
		return nil, err
	}

	output := &Output{Results: make([]IssueResult, 0, len(decisions))}
	for _, issueID := range input.IssueIDs {
		decision, ok := decisions[issueID]
		if !ok {
			output.Failed++
			continue
		}
		if decision.EscalationRequired {
			output.Escalated++
		}
		if decision.AssignedContractorID != "" {
			output.Assigned++
		}
		output.Results = append(output.Results, IssueResult{
			IssueID:              decision.IssueID,
			AssignedContractorID: decision.AssignedContractorID,
			Confidence:           decision.Confidence,
			EscalationRequired:   decision.EscalationRequired,
		})
	}
	sort.Slice(output.Results, func(i, j int) bool {
		return output.Results[i].IssueID < output.Results[j].IssueID
	})

	h.logger.Info("batch routed", map[string]interface{}{
		"requested": len(input.IssueIDs),
		"assigned":  output.Assigned,
		"escalated": output.Escalated,
		"failed":    output.Failed,
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
