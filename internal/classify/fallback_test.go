// internal/classify/fallback_test.go
package classify

import (
	"context"
	"testing"

	"maintenance-dispatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackClassifier_CategoryKeywords(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		expected    models.IssueCategory
	}{
		{
			name:        "plumbing from leaking pipe",
			title:       "Leaking pipe under kitchen sink",
			description: "Water dripping constantly",
			expected:    models.CategoryPlumbing,
		},
		{
			name:        "electrical from outlet",
			title:       "Dead outlet in bedroom",
			description: "The socket stopped working yesterday",
			expected:    models.CategoryElectrical,
		},
		{
			name:        "hvac from thermostat",
			title:       "Thermostat not responding",
			description: "Cooling never kicks in",
			expected:    models.CategoryHVAC,
		},
		{
			name:        "general when nothing matches",
			title:       "Squeaky door hinge",
			description: "Bedroom door makes noise",
			expected:    models.CategoryGeneral,
		},
	}

	fc := NewFallbackClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := fc.Classify(context.Background(), IssueInput{
				Title:       tt.title,
				Description: tt.description,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Category)
			assert.Equal(t, 0.6, result.Confidence)
		})
	}
}

func TestFallbackClassifier_UrgencyKeywordsRaiseSeverity(t *testing.T) {
	fc := NewFallbackClassifier()

	result, err := fc.Classify(context.Background(), IssueInput{
		Title:       "Burst pipe in the hallway",
		Description: "Water is flooding the corridor, emergency",
	})
	require.NoError(t, err)

	assert.Equal(t, models.CategoryPlumbing, result.Category)
	assert.Equal(t, models.SeverityUrgent, result.Severity)
	assert.Equal(t, 9, result.Urgency)
	assert.Equal(t, models.RiskHigh, result.RiskLevel)
}

func TestFallbackClassifier_Deterministic(t *testing.T) {
	fc := NewFallbackClassifier()
	input := IssueInput{Title: "Broken light switch", Description: "No power on the wall switch"}

	first, err := fc.Classify(context.Background(), input)
	require.NoError(t, err)
	second, err := fc.Classify(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
