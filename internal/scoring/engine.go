// internal/scoring/engine.go
package scoring

import (
	"sort"

	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"
)

// Fixed scoring weights. Changing these changes assignment behavior for
// every tenant, so they are constants, not configuration.
const (
	specialtyDirectPoints = 30.0
	specialtyCrossPoints  = 10.0
	availableFullPoints   = 25.0
	availableBusyPoints   = 15.0
	ratingWeight          = 20.0
	workloadWeight        = 15.0
	responseTimeCeiling   = 10.0
)

// crossCompatible maps an issue category to the contractor specialties that
// can cover it at reduced fitness.
var crossCompatible = map[models.IssueCategory][]models.IssueCategory{
	models.CategoryPlumbing:   {models.CategoryPlumbing, models.CategoryGeneral},
	models.CategoryElectrical: {models.CategoryElectrical, models.CategoryGeneral},
	models.CategoryHVAC:       {models.CategoryHVAC, models.CategoryElectrical, models.CategoryGeneral},
	models.CategoryAppliance:  {models.CategoryAppliance, models.CategoryElectrical, models.CategoryGeneral},
	models.CategoryStructural: {models.CategoryStructural, models.CategoryGeneral},
	models.CategoryGeneral:    {models.CategoryGeneral},
}

// Candidate pairs a contractor with its performance stats for one scoring
// pass.
type Candidate struct {
	Contractor *models.Contractor
	Stats      *models.ContractorStats
}

type Engine struct {
	logger logger.Logger
}

func NewEngine(log logger.Logger) *Engine {
	return &Engine{logger: log}
}

// SpecialtyFit reports whether a contractor's specialties cover the category
// directly or via the cross-compatibility table.
func SpecialtyFit(specialties []models.IssueCategory, category models.IssueCategory) (direct, cross bool) {
	compatible := crossCompatible[category]
	for _, s := range specialties {
		if s == category {
			direct = true
		}
		for _, c := range compatible {
			if s == c {
				cross = true
			}
		}
	}
	return direct, cross
}

// Eligible reports whether the contractor can be routed this category at all.
func Eligible(contractor *models.Contractor, category models.IssueCategory) bool {
	direct, cross := SpecialtyFit(contractor.Specialties, category)
	return direct || cross
}

// UrgencyMultiplier combines severity base with fine-grained urgency (1-10):
// base 1.5/1.2/1.0/0.8 for URGENT/HIGH/MEDIUM/LOW plus (urgency-5)*0.05,
// clamped to [0.5, 2.0].
func UrgencyMultiplier(severity models.IssueSeverity, urgency int) float64 {
	base := 1.0
	switch severity {
	case models.SeverityUrgent:
		base = 1.5
	case models.SeverityHigh:
		base = 1.2
	case models.SeverityMedium:
		base = 1.0
	case models.SeverityLow:
		base = 0.8
	}

	multiplier := base + float64(urgency-5)*0.05
	if multiplier < 0.5 {
		multiplier = 0.5
	}
	if multiplier > 2.0 {
		multiplier = 2.0
	}
	return multiplier
}

// Score computes the weighted match for one contractor.
func (e *Engine) Score(contractor *models.Contractor, stats *models.ContractorStats, category models.IssueCategory, urgencyMultiplier float64) *models.ContractorMatch {
	direct, cross := SpecialtyFit(contractor.Specialties, category)

	total := 0.0
	switch {
	case direct:
		total += specialtyDirectPoints
	case cross:
		total += specialtyCrossPoints
	}

	availability := availabilityFor(stats.ActiveJobs, contractor.MaxConcurrentJobs)
	switch availability {
	case models.Available:
		total += availableFullPoints
	case models.Busy:
		total += availableBusyPoints
	}

	total += stats.RatingScore * ratingWeight

	workload := 0.0
	if contractor.MaxConcurrentJobs > 0 {
		workload = 1.0 - float64(stats.ActiveJobs)/float64(contractor.MaxConcurrentJobs)
		if workload < 0 {
			workload = 0
		}
	}
	total += workload * workloadWeight

	responsePoints := responseTimeCeiling - stats.AvgResponseMinutes/60.0
	if responsePoints < 0 {
		responsePoints = 0
	}
	total += responsePoints

	total *= urgencyMultiplier

	return &models.ContractorMatch{
		Contractor:          contractor,
		Score:               total,
		Availability:        availability,
		SpecialtyMatch:      direct,
		WorkloadFactor:      workload,
		RatingScore:         stats.RatingScore,
		ResponseTimeMinutes: stats.AvgResponseMinutes,
	}
}

// Rank scores every candidate and sorts descending by score. The sort is
// stable: equal scores keep the candidates' input order, so ranking is
// deterministic for identical inputs.
func (e *Engine) Rank(candidates []Candidate, category models.IssueCategory, urgencyMultiplier float64) []*models.ContractorMatch {
	matches := make([]*models.ContractorMatch, 0, len(candidates))
	for _, cand := range candidates {
		matches = append(matches, e.Score(cand.Contractor, cand.Stats, category, urgencyMultiplier))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if e.logger != nil && len(matches) > 0 {
		e.logger.Debug("Candidates ranked", map[string]interface{}{
			"category":   category,
			"candidates": len(matches),
			"topScore":   matches[0].Score,
			"multiplier": urgencyMultiplier,
		})
	}
	return matches
}

func availabilityFor(activeJobs, maxConcurrent int) models.Availability {
	switch {
	case activeJobs == 0:
		return models.Available
	case activeJobs < maxConcurrent:
		return models.Busy
	default:
		return models.Unavailable
	}
}
