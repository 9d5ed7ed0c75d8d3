// internal/classify/resilient.go
package classify

import (
	"context"
	"time"

	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/common/metrics"
	"maintenance-dispatch/internal/models"
)

// Resilient wraps a provider-backed classifier with a timeout and substitutes
// the keyword fallback on any failure. Its Classify never returns an error:
// classification degrades, it does not break routing.
type Resilient struct {
	primary  Classifier
	fallback *FallbackClassifier
	timeout  time.Duration
	logger   logger.Logger
}

func NewResilient(primary Classifier, timeout time.Duration, log logger.Logger) *Resilient {
	return &Resilient{
		primary:  primary,
		fallback: NewFallbackClassifier(),
		timeout:  timeout,
		logger:   log,
	}
}

func (r *Resilient) Classify(ctx context.Context, input IssueInput) (*models.ClassificationResult, error) {
	if r.primary != nil {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		result, err := r.primary.Classify(callCtx, input)
		cancel()
		if err == nil && result != nil {
			return result, nil
		}

		r.logger.Warn("Classifier failed, using keyword fallback", map[string]interface{}{
			"title": input.Title,
			"error": errString(err),
		})
	}

	metrics.ClassifierFallbacks.Inc()
	return r.fallback.Classify(ctx, input)
}

func errString(err error) string {
	if err == nil {
		return "empty result"
	}
	return err.Error()
}
