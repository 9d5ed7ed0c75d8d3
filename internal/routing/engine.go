// internal/routing/engine.go
package routing

import (
	"context"
	"fmt"
	"time"

	"maintenance-dispatch/internal/classify"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/common/metrics"
	"maintenance-dispatch/internal/models"
	"maintenance-dispatch/internal/rules"
	"maintenance-dispatch/internal/scoring"
)

// noContractorActions is the fixed guidance returned when the eligible set
// is empty.
var noContractorActions = []string{
	"Contact external contractors",
	"Notify property manager",
	"Consider temporary solutions if urgent",
}

// IssueStore is the persistence surface routing needs.
type IssueStore interface {
	GetIssue(ctx context.Context, issueID string) (*models.Issue, error)
	UpdateIssue(ctx context.Context, issue *models.Issue) error
	SaveClassification(ctx context.Context, issueID string, result *models.ClassificationResult) error
}

// ContractorDirectory serves rosters and stats.
type ContractorDirectory interface {
	ListEligible(ctx context.Context, companyID string) ([]*models.Contractor, error)
	StatsFor(ctx context.Context, contractorID string) (*models.ContractorStats, error)
	InvalidateStats(ctx context.Context, contractorID string)
}

// RuleEvaluator runs workflow rules after an assignment.
type RuleEvaluator interface {
	Evaluate(ctx context.Context, trigger models.RuleTrigger, snapshot *models.Snapshot) ([]rules.ExecutedAction, error)
}

// NotificationSender fans out decision notifications.
type NotificationSender interface {
	SendSmart(ctx context.Context, trigger models.RuleTrigger, entityID, companyID string, snapshot *models.Snapshot, urgency models.NotificationPriority) error
}

// ProximityRanker orders contractors by distance to a property. Optional;
// failures skip the local preference, never fail routing.
type ProximityRanker interface {
	Nearby(ctx context.Context, propertyID string, contractorIDs []string) ([]string, error)
}

// AuditTrail records decisions out-of-band.
type AuditTrail interface {
	RecordDecision(ctx context.Context, companyID string, decision *models.RoutingDecision, classification *models.ClassificationResult)
}

// SnapshotLoader assembles the full entity graph (property, requester,
// contractor) that rule conditions and notification templates read.
type SnapshotLoader interface {
	Build(ctx context.Context, issueID string) (*models.Snapshot, error)
}

// Deps wires the routing engine. Rules, Notifier, Proximity, Audit and
// Snapshots are optional.
type Deps struct {
	Issues     IssueStore
	Directory  ContractorDirectory
	Classifier classify.Classifier // wrap with classify.NewResilient
	Scorer     *scoring.Engine
	Rules      RuleEvaluator
	Notifier   NotificationSender
	Proximity  ProximityRanker
	Audit      AuditTrail
	Snapshots  SnapshotLoader
	Logger     logger.Logger
}

type Engine struct {
	deps  Deps
	locks *issueLocks
}

func NewEngine(deps Deps) *Engine {
	return &Engine{
		deps:  deps,
		locks: newIssueLocks(),
	}
}

// RouteIssue classifies the issue, ranks eligible contractors and commits an
// assignment. It always returns a decision unless the issue cannot be loaded
// or persistence fails: an empty candidate pool is a decision with
// EscalationRequired set, not an error.
func (e *Engine) RouteIssue(ctx context.Context, issueID string, opts models.RouteOptions) (*models.RoutingDecision, error) {
	unlock := e.locks.lock(issueID)
	defer unlock()

	start := time.Now()
	decision, outcome, err := e.route(ctx, issueID, opts)

	metrics.RoutingDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	metrics.RoutingDecisions.WithLabelValues(outcome).Inc()
	if err != nil {
		e.deps.Logger.Error("Routing failed", map[string]interface{}{
			"issueId": issueID,
			"error":   err.Error(),
		})
	}
	return decision, err
}

func (e *Engine) route(ctx context.Context, issueID string, opts models.RouteOptions) (*models.RoutingDecision, string, error) {
	issue, err := e.deps.Issues.GetIssue(ctx, issueID)
	if err != nil {
		return nil, "error", err
	}

	// Idempotent no-op: an assigned issue stays assigned unless forced.
	if issue.Assigned() && !opts.ForceReassignment {
		return &models.RoutingDecision{
			IssueID:              issue.ID,
			AssignedContractorID: issue.ContractorID,
			RoutingReason:        "Already assigned",
			Confidence:           1.0,
		}, "already_assigned", nil
	}

	classification, err := e.deps.Classifier.Classify(ctx, classify.IssueInput{
		Title:       issue.Title,
		Description: issue.Description,
		Location:    issue.Location,
	})
	if err != nil {
		// Unreachable behind the resilient wrapper, which always degrades.
		return nil, "error", err
	}

	eligible, err := e.eligibleContractors(ctx, issue, classification.Category, opts)
	if err != nil {
		return nil, "error", err
	}

	if len(eligible) == 0 {
		decision := &models.RoutingDecision{
			IssueID:            issue.ID,
			RoutingReason:      "No contractors available",
			RecommendedActions: noContractorActions,
			EscalationRequired: true,
		}
		e.recordAudit(ctx, issue.CompanyID, decision, classification)
		return decision, "no_contractors", nil
	}

	multiplier := scoring.UrgencyMultiplier(classification.Severity, classification.Urgency)

	candidates := make([]scoring.Candidate, 0, len(eligible))
	for _, contractor := range eligible {
		stats, err := e.deps.Directory.StatsFor(ctx, contractor.ID)
		if err != nil {
			return nil, "error", err
		}
		candidates = append(candidates, scoring.Candidate{Contractor: contractor, Stats: stats})
	}
	if err := ctx.Err(); err != nil {
		// Cancelled mid-scoring: discard partial results, commit nothing.
		return nil, "error", err
	}

	ranked := e.deps.Scorer.Rank(candidates, classification.Category, multiplier)
	metrics.ContractorsScored.Observe(float64(len(ranked)))

	best := ranked[0]
	decision, err := e.commitAssignment(ctx, issue, classification, best, ranked)
	if err != nil {
		return nil, "error", err
	}

	e.recordAudit(ctx, issue.CompanyID, decision, classification)
	e.runSideEffects(ctx, issue, classification, decision)

	outcome := "assigned"
	if decision.EscalationRequired {
		outcome = "escalated"
	}
	return decision, outcome, nil
}

func (e *Engine) eligibleContractors(ctx context.Context, issue *models.Issue, category models.IssueCategory, opts models.RouteOptions) ([]*models.Contractor, error) {
	all, err := e.deps.Directory.ListEligible(ctx, issue.CompanyID)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(opts.ExcludeContractorIDs))
	for _, id := range opts.ExcludeContractorIDs {
		excluded[id] = true
	}

	var eligible []*models.Contractor
	for _, contractor := range all {
		if excluded[contractor.ID] {
			continue
		}
		if !scoring.Eligible(contractor, category) {
			continue
		}
		eligible = append(eligible, contractor)
	}

	if opts.PrioritizeLocal && e.deps.Proximity != nil && len(eligible) > 1 {
		eligible = e.rankByProximity(ctx, issue.PropertyID, eligible)
	}
	return eligible, nil
}

// rankByProximity reorders eligible contractors nearest-first. Contractors
// the proximity service does not know keep their relative order at the tail.
// Any failure skips the preference entirely.
func (e *Engine) rankByProximity(ctx context.Context, propertyID string, eligible []*models.Contractor) []*models.Contractor {
	ids := make([]string, len(eligible))
	byID := make(map[string]*models.Contractor, len(eligible))
	for i, c := range eligible {
		ids[i] = c.ID
		byID[c.ID] = c
	}

	ordered, err := e.deps.Proximity.Nearby(ctx, propertyID, ids)
	if err != nil {
		e.deps.Logger.Warn("Proximity service unavailable, skipping local preference", map[string]interface{}{
			"propertyId": propertyID,
			"error":      err.Error(),
		})
		return eligible
	}

	seen := make(map[string]bool, len(ordered))
	result := make([]*models.Contractor, 0, len(eligible))
	for _, id := range ordered {
		if c, ok := byID[id]; ok && !seen[id] {
			result = append(result, c)
			seen[id] = true
		}
	}
	for _, c := range eligible {
		if !seen[c.ID] {
			result = append(result, c)
		}
	}
	return result
}

func (e *Engine) commitAssignment(ctx context.Context, issue *models.Issue, classification *models.ClassificationResult, best *models.ContractorMatch, ranked []*models.ContractorMatch) (*models.RoutingDecision, error) {
	now := time.Now().UTC()
	issue.ContractorID = best.Contractor.ID
	issue.Status = models.StatusAssigned
	issue.AssignedAt = &now
	if issue.EstimatedCost == 0 {
		issue.EstimatedCost = classification.EstimatedCost
	}

	if err := e.deps.Issues.UpdateIssue(ctx, issue); err != nil {
		return nil, err
	}
	if err := e.deps.Issues.SaveClassification(ctx, issue.ID, classification); err != nil {
		e.deps.Logger.Warn("Classification audit save failed", map[string]interface{}{
			"issueId": issue.ID,
			"error":   err.Error(),
		})
	}
	e.deps.Directory.InvalidateStats(ctx, best.Contractor.ID)

	var alternatives []models.AlternativeContractor
	for i, match := range ranked[1:] {
		if i >= 3 {
			break
		}
		alternatives = append(alternatives, models.AlternativeContractor{
			ContractorID: match.Contractor.ID,
			Score:        match.Score,
			Reason:       fmt.Sprintf("Ranked #%d (score %.1f)", i+2, match.Score),
		})
	}

	confidence := best.Score / 100.0
	if confidence > 1.0 {
		confidence = 1.0
	}

	decision := &models.RoutingDecision{
		IssueID:              issue.ID,
		AssignedContractorID: best.Contractor.ID,
		RoutingReason: fmt.Sprintf("Selected %s: specialty match=%t, availability=%s, score=%.1f",
			best.Contractor.Name, best.SpecialtyMatch, best.Availability, best.Score),
		Confidence:             confidence,
		AlternativeContractors: alternatives,
		EstimatedResponseTime:  estimateResponseTime(best.ResponseTimeMinutes, classification.Severity, best.Availability),
		EscalationRequired:     classification.Severity == models.SeverityUrgent && best.Score < 70,
	}

	e.deps.Logger.Info("Issue assigned", map[string]interface{}{
		"issueId":      issue.ID,
		"contractorId": best.Contractor.ID,
		"score":        best.Score,
		"escalation":   decision.EscalationRequired,
	})
	return decision, nil
}

// runSideEffects drives the rule engine and the notification dispatcher
// after an assignment is committed. Both run against the committed state;
// their failures are logged and never unwind the assignment.
func (e *Engine) runSideEffects(ctx context.Context, issue *models.Issue, classification *models.ClassificationResult, decision *models.RoutingDecision) {
	snapshot := e.loadSnapshot(ctx, issue)
	snapshot.Classification = classification
	snapshot.Decision = decision

	if e.deps.Rules != nil {
		if _, err := e.deps.Rules.Evaluate(ctx, models.TriggerIssueCreated, snapshot); err != nil {
			e.deps.Logger.Error("Post-assignment rule evaluation failed", map[string]interface{}{
				"issueId": issue.ID,
				"error":   err.Error(),
			})
		}
	}

	if e.deps.Notifier != nil {
		urgency := notificationPriority(classification.Severity)
		if err := e.deps.Notifier.SendSmart(ctx, models.TriggerIssueCreated, issue.ID, issue.CompanyID, snapshot, urgency); err != nil {
			e.deps.Logger.Error("Decision notification dispatch failed", map[string]interface{}{
				"issueId": issue.ID,
				"error":   err.Error(),
			})
		}
	}
}

// loadSnapshot pulls in the related property, requester and contractor so
// conditions like "property.name" resolve during post-assignment side
// effects. Without a loader, or when the load fails, rules and templates see
// the issue alone.
func (e *Engine) loadSnapshot(ctx context.Context, issue *models.Issue) *models.Snapshot {
	if e.deps.Snapshots == nil {
		return &models.Snapshot{Issue: issue}
	}
	snapshot, err := e.deps.Snapshots.Build(ctx, issue.ID)
	if err != nil {
		e.deps.Logger.Warn("Snapshot build failed, rules evaluate against the issue only", map[string]interface{}{
			"issueId": issue.ID,
			"error":   err.Error(),
		})
		return &models.Snapshot{Issue: issue}
	}
	// The in-memory issue carries the just-committed assignment; prefer it
	// over whatever the builder read back.
	snapshot.Issue = issue
	return snapshot
}

func (e *Engine) recordAudit(ctx context.Context, companyID string, decision *models.RoutingDecision, classification *models.ClassificationResult) {
	if e.deps.Audit != nil {
		e.deps.Audit.RecordDecision(ctx, companyID, decision, classification)
	}
}

func notificationPriority(severity models.IssueSeverity) models.NotificationPriority {
	switch severity {
	case models.SeverityUrgent:
		return models.NotifyUrgent
	case models.SeverityHigh:
		return models.NotifyHigh
	case models.SeverityLow:
		return models.NotifyLow
	default:
		return models.NotifyMedium
	}
}
