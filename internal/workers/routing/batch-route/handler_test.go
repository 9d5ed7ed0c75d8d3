// internal/workers/routing/batch-route/handler_test.go
package batchroute

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"
)

type fakeBatchRouter struct {
	decisions map[string]*models.RoutingDecision
	gotOpts   models.BatchOptions
}

func (r *fakeBatchRouter) BatchRoute(_ context.Context, _ []string, opts models.BatchOptions) (map[string]*models.RoutingDecision, error) {
	r.gotOpts = opts
	return r.decisions, nil
}

func TestExecute_SummarizesBatch(t *testing.T) {
	router := &fakeBatchRouter{
		decisions: map[string]*models.RoutingDecision{
			"issue-1": {IssueID: "issue-1", AssignedContractorID: "c-1", Confidence: 0.8},
			"issue-2": {IssueID: "issue-2", EscalationRequired: true},
		},
	}
	handler := NewHandler(LoadConfig(), router, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		IssueIDs:         []string{"issue-1", "issue-2", "issue-3"},
		PrioritizeUrgent: true,
	})
	require.NoError(t, err)

	assert.True(t, router.gotOpts.PrioritizeUrgent)
	assert.Equal(t, 1, output.Assigned)
	assert.Equal(t, 1, output.Escalated)
	assert.Equal(t, 1, output.Failed)
	require.Len(t, output.Results, 2)
	assert.Equal(t, "issue-1", output.Results[0].IssueID)
	assert.Equal(t, "issue-2", output.Results[1].IssueID)
}

func TestExecute_EmptyBatchRejected(t *testing.T) {
	handler := NewHandler(LoadConfig(), &fakeBatchRouter{}, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{})
	assert.Error(t, err)
}
