// internal/classify/anthropic.go
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const classifierSystemPrompt = `You classify property maintenance issues reported by tenants.
Given a title, description and optional location, produce a single JSON object:
{"category": "...", "severity": "...", "urgency": 1-10, "estimatedCost": 0.0, "estimatedDurationHours": 0.0, "requiredSkills": ["..."], "confidence": 0.0-1.0, "riskLevel": "..."}

Rules:
- category is one of: PLUMBING, ELECTRICAL, HVAC, APPLIANCE, STRUCTURAL, GENERAL
- severity is one of: LOW, MEDIUM, HIGH, URGENT
- riskLevel is one of: LOW, MEDIUM, HIGH, CRITICAL
- urgency is an integer from 1 (can wait weeks) to 10 (immediate hazard)
- estimatedCost is in USD, estimatedDurationHours is repair time
- confidence reflects how certain you are given the text provided

Respond with JSON only (no markdown).`

// AnthropicClassifier calls the Anthropic Messages API to classify issues.
type AnthropicClassifier struct {
	client anthropic.Client
	model  string
	logger logger.Logger
}

func NewAnthropicClassifier(apiKey, model string, log logger.Logger) *AnthropicClassifier {
	return &AnthropicClassifier{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: log,
	}
}

func (c *AnthropicClassifier) Classify(ctx context.Context, input IssueInput) (*models.ClassificationResult, error) {
	userPrompt := buildUserPrompt(input)

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: classifierSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	if responseText == "" {
		return nil, fmt.Errorf("no text content in classifier response")
	}

	result, err := parseClassifierResponse(responseText)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Issue classified", map[string]interface{}{
		"category":   result.Category,
		"severity":   result.Severity,
		"urgency":    result.Urgency,
		"confidence": result.Confidence,
		"tokensIn":   message.Usage.InputTokens,
		"tokensOut":  message.Usage.OutputTokens,
	})

	return result, nil
}

func buildUserPrompt(input IssueInput) string {
	var b strings.Builder
	b.WriteString("Title: " + strings.TrimSpace(input.Title) + "\n")
	b.WriteString("Description: " + strings.TrimSpace(input.Description) + "\n")
	if input.Location != "" {
		b.WriteString("Location: " + input.Location + "\n")
	}
	if len(input.ImageRefs) > 0 {
		b.WriteString(fmt.Sprintf("Attached images: %d\n", len(input.ImageRefs)))
	}
	return b.String()
}

// parseClassifierResponse decodes the model output and normalizes it into a
// valid ClassificationResult. Out-of-range or unknown values are an error so
// the resilient wrapper can substitute the fallback.
func parseClassifierResponse(responseText string) (*models.ClassificationResult, error) {
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var result models.ClassificationResult
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		return nil, fmt.Errorf("parsing classifier response: %w", err)
	}

	if !validCategory(result.Category) {
		return nil, fmt.Errorf("classifier returned unknown category %q", result.Category)
	}
	if !validSeverity(result.Severity) {
		return nil, fmt.Errorf("classifier returned unknown severity %q", result.Severity)
	}
	if result.RiskLevel == "" {
		result.RiskLevel = models.RiskMedium
	}
	if result.Urgency < 1 {
		result.Urgency = 1
	}
	if result.Urgency > 10 {
		result.Urgency = 10
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}

	return &result, nil
}

func validCategory(c models.IssueCategory) bool {
	switch c {
	case models.CategoryPlumbing, models.CategoryElectrical, models.CategoryHVAC,
		models.CategoryAppliance, models.CategoryStructural, models.CategoryGeneral:
		return true
	}
	return false
}

func validSeverity(s models.IssueSeverity) bool {
	switch s {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityUrgent:
		return true
	}
	return false
}
