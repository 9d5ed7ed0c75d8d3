// internal/classify/fallback.go
package classify

import (
	"context"
	"strings"

	"maintenance-dispatch/internal/models"
)

// fallbackConfidence is fixed: keyword matching is crude but deterministic.
const fallbackConfidence = 0.6

var plumbingKeywords = []string{
	"leak", "pipe", "drain", "faucet", "toilet", "water", "sink", "shower", "flood", "sewage",
}

var electricalKeywords = []string{
	"electric", "outlet", "breaker", "wiring", "light", "power", "spark", "socket", "switch", "fuse",
}

var hvacKeywords = []string{
	"heat", "furnace", "air condition", "ac ", "hvac", "thermostat", "cooling", "ventilation", "boiler", "radiator",
}

var urgencyKeywords = []string{
	"emergency", "urgent", "immediately", "flooding", "fire", "smoke", "gas", "burst", "sparking", "no heat",
}

// estimates per category, used when no provider estimate is available.
var fallbackEstimates = map[models.IssueCategory]struct {
	cost  float64
	hours float64
}{
	models.CategoryPlumbing:   {cost: 200, hours: 3},
	models.CategoryElectrical: {cost: 250, hours: 3},
	models.CategoryHVAC:       {cost: 350, hours: 4},
	models.CategoryGeneral:    {cost: 100, hours: 2},
}

// FallbackClassifier classifies by keyword matching on title+description.
// It never fails, never blocks, and always reports confidence 0.6 so
// downstream consumers can tell degraded results from provider results.
type FallbackClassifier struct{}

func NewFallbackClassifier() *FallbackClassifier {
	return &FallbackClassifier{}
}

func (f *FallbackClassifier) Classify(_ context.Context, input IssueInput) (*models.ClassificationResult, error) {
	text := strings.ToLower(input.Title + " " + input.Description)

	category := models.CategoryGeneral
	switch {
	case containsAny(text, plumbingKeywords):
		category = models.CategoryPlumbing
	case containsAny(text, electricalKeywords):
		category = models.CategoryElectrical
	case containsAny(text, hvacKeywords):
		category = models.CategoryHVAC
	}

	severity := models.SeverityMedium
	urgency := 5
	risk := models.RiskMedium
	if containsAny(text, urgencyKeywords) {
		severity = models.SeverityUrgent
		urgency = 9
		risk = models.RiskHigh
	}

	est := fallbackEstimates[category]

	return &models.ClassificationResult{
		Category:               category,
		Severity:               severity,
		Urgency:                urgency,
		EstimatedCost:          est.cost,
		EstimatedDurationHours: est.hours,
		RequiredSkills:         []string{strings.ToLower(string(category))},
		Confidence:             fallbackConfidence,
		RiskLevel:              risk,
	}, nil
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
