// internal/routing/response.go
package routing

import (
	"fmt"
	"math"

	"maintenance-dispatch/internal/models"
)

// estimateResponseTime turns a contractor's historical average response into
// a human-readable estimate, adjusted for severity and current availability.
func estimateResponseTime(avgResponseMinutes float64, severity models.IssueSeverity, availability models.Availability) string {
	adjusted := avgResponseMinutes
	switch severity {
	case models.SeverityUrgent:
		adjusted *= 0.5
	case models.SeverityLow:
		adjusted *= 1.5
	}
	if availability == models.Busy {
		adjusted *= 1.3
	}

	switch {
	case adjusted <= 60:
		return "Within 1 hour"
	case adjusted < 24*60:
		return fmt.Sprintf("%d hours", int(math.Ceil(adjusted/60)))
	default:
		return fmt.Sprintf("%d day(s)", int(math.Ceil(adjusted/(24*60))))
	}
}
