// internal/classify/classify.go
package classify

import (
	"context"

	"maintenance-dispatch/internal/models"
)

// IssueInput is the raw material handed to a classifier: free text plus
// optional hints. Image references are passed through for providers that
// can use them.
type IssueInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location,omitempty"`
	ImageRefs   []string `json:"imageRefs,omitempty"`
}

// Classifier derives structured attributes from a raw issue description.
// Implementations may call external providers; callers should wrap them
// with Resilient so provider failures degrade instead of propagating.
type Classifier interface {
	Classify(ctx context.Context, input IssueInput) (*models.ClassificationResult, error)
}
