// internal/notify/content.go
package notify

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

// ContentGenerator rewrites a rendered notification into clearer prose.
// Failures are expected and non-fatal; callers fall back to the plain
// template rendering.
type ContentGenerator interface {
	Enhance(ctx context.Context, content *models.NotificationContent, snapshot *models.Snapshot) (*models.NotificationContent, error)
}

const enhanceSystemPrompt = `You rewrite property maintenance notifications for clarity.
Given a draft title and message plus issue context, produce a single JSON object:
{"title": "...", "message": "..."}

Keep it factual, under 50 words for the message, no markdown, no emojis.
Respond with JSON only.`

// AnthropicContentGenerator calls the Anthropic Messages API.
type AnthropicContentGenerator struct {
	client anthropic.Client
	model  string
	logger logger.Logger
}

func NewAnthropicContentGenerator(apiKey, model string, log logger.Logger) *AnthropicContentGenerator {
	return &AnthropicContentGenerator{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: log,
	}
}

func (g *AnthropicContentGenerator) Enhance(ctx context.Context, content *models.NotificationContent, snapshot *models.Snapshot) (*models.NotificationContent, error) {
	var b strings.Builder
	b.WriteString("Draft title: " + content.Title + "\n")
	b.WriteString("Draft message: " + content.Message + "\n")
	if snapshot != nil && snapshot.Issue != nil {
		b.WriteString(fmt.Sprintf("Issue: %s (%s, severity %s)\n",
			snapshot.Issue.Title, snapshot.Issue.Category, snapshot.Issue.Severity))
	}
	if snapshot != nil && snapshot.Property != nil {
		b.WriteString("Property: " + snapshot.Property.Name + "\n")
	}

	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: 512,
		System: []anthropic.TextBlockParam{
			{Text: enhanceSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(b.String())),
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
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")

	var enhanced struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(responseText)), &enhanced); err != nil {
		return nil, fmt.Errorf("parsing enhanced content: %w", err)
	}
	if enhanced.Title == "" || enhanced.Message == "" {
		return nil, fmt.Errorf("enhanced content is incomplete")
	}

	return &models.NotificationContent{
		Title:    enhanced.Title,
		Message:  enhanced.Message,
		Priority: content.Priority,
	}, nil
}
