// internal/workers/routing/route-issue/handler.go
package routeissue

import (
	"context"
	"encoding/json"
	"fmt"

	"maintenance-dispatch/internal/common/errors"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "route-issue"
)

// Router is the routing engine surface this worker drives.
type Router interface {
	RouteIssue(ctx context.Context, issueID string, opts models.RouteOptions) (*models.RoutingDecision, error)
}

type Handler struct {
	config *Config
	router Router
	errs   *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, router Router, log logger.Logger) *Handler {
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
		// Retryable store and directory errors fail the job with retries
		// left; business errors throw a BPMN error.
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

	decision, err := h.router.RouteIssue(ctx, input.IssueID, models.RouteOptions{
		ForceReassignment:    input.ForceReassignment,
		ExcludeContractorIDs: input.ExcludeContractorIDs,
		PrioritizeLocal:      input.PrioritizeLocal,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("issue routed", map[string]interface{}{
		"issueId":      decision.IssueID,
		"contractorId": decision.AssignedContractorID,
		"escalation":   decision.EscalationRequired,
	})

	return &Output{
		IssueID:               decision.IssueID,
		AssignedContractorID:  decision.AssignedContractorID,
		RoutingReason:         decision.RoutingReason,
		Confidence:            decision.Confidence,
		Alternatives:          decision.AlternativeContractors,
		EstimatedResponseTime: decision.EstimatedResponseTime,
		RecommendedActions:    decision.RecommendedActions,
		EscalationRequired:    decision.EscalationRequired,
	}, nil
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
