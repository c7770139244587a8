package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exposed on /metrics. Violation counts are labeled by type so
// the ops dashboard can distinguish tab switches from clipboard abuse.
var (
	ActiveExamConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "examguard_active_exam_connections",
		Help: "Currently open student exam WebSocket connections.",
	})

	ViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "examguard_violations_total",
		Help: "Accepted anti-cheat violations by type.",
	}, []string{"type"})

	AutosavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "examguard_autosaves_total",
		Help: "Answer save attempts by outcome.",
	}, []string{"outcome"})

	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "examguard_submissions_total",
		Help: "Exam submissions by trigger (voluntary, time_up, max_violations).",
	}, []string{"trigger"})
)
