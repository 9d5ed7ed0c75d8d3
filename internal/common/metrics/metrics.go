// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoutingDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_routing_decisions_total",
			Help: "Total number of routing decisions by outcome",
		},
		[]string{"outcome"}, // assigned, already_assigned, no_contractors, escalated, error
	)

	RoutingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dispatch_routing_duration_seconds",
			Help: "Duration of routing attempts in seconds",
		},
		[]string{"outcome"},
	)

	ContractorsScored = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_contractors_scored",
			Help:    "Number of contractors scored per routing attempt",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		},
	)

	RulesEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_rules_evaluated_total",
			Help: "Total number of workflow rules evaluated by result",
		},
		[]string{"trigger", "result"}, // matched, skipped, failed
	)

	RuleActionsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_rule_actions_executed_total",
			Help: "Total number of rule actions executed by kind",
		},
		[]string{"action"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_notifications_sent_total",
			Help: "Total number of notifications delivered by channel",
		},
		[]string{"channel"},
	)

	NotificationsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_notifications_suppressed_total",
			Help: "Total number of notifications suppressed by the frequency throttle",
		},
		[]string{"frequency"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_notifications_failed_total",
			Help: "Total number of notification delivery failures by channel",
		},
		[]string{"channel"},
	)

	ClassifierFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_classifier_fallbacks_total",
			Help: "Total number of classifications served by the keyword fallback",
		},
	)
)
