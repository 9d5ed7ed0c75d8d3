// internal/routing/batch.go
package routing

import (
	"context"
	"sort"
	"sync"

	"maintenance-dispatch/internal/models"
)

const defaultBatchConcurrency = 4

var severityOrder = map[models.IssueSeverity]int{
	models.SeverityUrgent: 0,
	models.SeverityHigh:   1,
	models.SeverityMedium: 2,
	models.SeverityLow:    3,
}

// BatchRoute routes a set of issues with bounded concurrency. When
// PrioritizeUrgent is set, issues are dispatched in severity order so urgent
// work claims contractor capacity first. Issues that cannot be loaded or
// routed are logged and omitted from the result map.
func (e *Engine) BatchRoute(ctx context.Context, issueIDs []string, opts models.BatchOptions) (map[string]*models.RoutingDecision, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	ordered := issueIDs
	if opts.PrioritizeUrgent {
		ordered = e.sortBySeverity(ctx, issueIDs)
	}

	results := make(map[string]*models.RoutingDecision, len(ordered))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

	for _, issueID := range ordered {
		if err := ctx.Err(); err != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()

			decision, err := e.RouteIssue(ctx, id, opts.RouteOptions)
			if err != nil {
				e.deps.Logger.Warn("Batch routing skipped issue", map[string]interface{}{
					"issueId": id,
					"error":   err.Error(),
				})
				return
			}
			mu.Lock()
			results[id] = decision
			mu.Unlock()
		}(issueID)
	}

	wg.Wait()
	return results, ctx.Err()
}

// sortBySeverity orders issue ids urgent-first, preserving input order within
// a severity band. Issues that fail to load sort last and keep their relative
// order; RouteIssue will surface the load error for them.
func (e *Engine) sortBySeverity(ctx context.Context, issueIDs []string) []string {
	type entry struct {
		id   string
		rank int
	}

	entries := make([]entry, 0, len(issueIDs))
	for _, id := range issueIDs {
		rank := len(severityOrder)
		if issue, err := e.deps.Issues.GetIssue(ctx, id); err == nil {
			if r, ok := severityOrder[issue.Severity]; ok {
				rank = r
			}
		}
		entries = append(entries, entry{id: id, rank: rank})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].rank < entries[j].rank
	})

	ordered := make([]string, len(entries))
	for i, en := range entries {
		ordered[i] = en.id
	}
	return ordered
}
