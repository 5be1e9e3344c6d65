// Package metrics holds the prometheus instruments shared across the bot
// core. Instruments register against the default registry exactly once.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	UsageDecisions      *prometheus.CounterVec
	BroadcastRuns       *prometheus.CounterVec
	BroadcastDeliveries *prometheus.CounterVec
	QuizAnswers         *prometheus.CounterVec
	SchedulerFires      *prometheus.CounterVec
	CollaboratorErrors  *prometheus.CounterVec
}

var (
	once     sync.Once
	instance *Metrics
)

// New returns the process-wide instrument set.
func New() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			UsageDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ahlabot_usage_decisions_total",
				Help: "Quota decisions by kind and outcome (allowed, denied, premium).",
			}, []string{"kind", "outcome"}),
			BroadcastRuns: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ahlabot_broadcast_runs_total",
				Help: "Broadcast dispatcher runs by content kind.",
			}, []string{"kind"}),
			BroadcastDeliveries: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ahlabot_broadcast_deliveries_total",
				Help: "Per-recipient broadcast delivery outcomes (sent, skipped, failed).",
			}, []string{"kind", "outcome"}),
			QuizAnswers: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ahlabot_quiz_answers_total",
				Help: "Quiz answers by outcome (correct, wrong, duplicate).",
			}, []string{"outcome"}),
			SchedulerFires: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ahlabot_scheduler_fires_total",
				Help: "Daily scheduler fires by job and result.",
			}, []string{"job", "result"}),
			CollaboratorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ahlabot_collaborator_errors_total",
				Help: "Failures talking to external providers after retries.",
			}, []string{"provider", "class"}),
		}
	})
	return instance
}
