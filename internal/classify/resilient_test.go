// internal/classify/resilient_test.go
package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	result *models.ClassificationResult
	err    error
	delay  time.Duration
}

func (s *stubClassifier) Classify(ctx context.Context, _ IssueInput) (*models.ClassificationResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.result, s.err
}

func TestResilient_UsesPrimaryOnSuccess(t *testing.T) {
	primary := &stubClassifier{
		result: &models.ClassificationResult{
			Category:   models.CategoryHVAC,
			Severity:   models.SeverityHigh,
			Urgency:    8,
			Confidence: 0.92,
			RiskLevel:  models.RiskHigh,
		},
	}
	r := NewResilient(primary, time.Second, logger.NewNoOpLogger())

	result, err := r.Classify(context.Background(), IssueInput{Title: "No heat in unit 4B"})
	require.NoError(t, err)

	assert.Equal(t, models.CategoryHVAC, result.Category)
	assert.Equal(t, 0.92, result.Confidence)
}

func TestResilient_FallsBackOnProviderError(t *testing.T) {
	primary := &stubClassifier{err: errors.New("provider unavailable")}
	r := NewResilient(primary, time.Second, logger.NewNoOpLogger())

	result, err := r.Classify(context.Background(), IssueInput{
		Title:       "Leaking faucet",
		Description: "Constant drip in the bathroom",
	})
	require.NoError(t, err)

	assert.Equal(t, models.CategoryPlumbing, result.Category)
	assert.Equal(t, 0.6, result.Confidence)
}

func TestResilient_FallsBackOnTimeout(t *testing.T) {
	primary := &stubClassifier{
		delay:  500 * time.Millisecond,
		result: &models.ClassificationResult{Category: models.CategoryElectrical},
	}
	r := NewResilient(primary, 10*time.Millisecond, logger.NewNoOpLogger())

	start := time.Now()
	result, err := r.Classify(context.Background(), IssueInput{Title: "Sparking outlet"})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 400*time.Millisecond, "hung provider must not stall routing")
	assert.Equal(t, 0.6, result.Confidence)
	assert.Equal(t, models.SeverityUrgent, result.Severity, "sparking is an urgency keyword")
}

func TestResilient_NilPrimaryGoesStraightToFallback(t *testing.T) {
	r := NewResilient(nil, time.Second, logger.NewNoOpLogger())

	result, err := r.Classify(context.Background(), IssueInput{Title: "Clogged drain"})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryPlumbing, result.Category)
}
