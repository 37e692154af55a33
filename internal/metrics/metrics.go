package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VitalsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardian_vitals_processed_total",
		Help: "Total number of vital sign readings processed, labelled by metric.",
	}, []string{"metric"})

	MotionEventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardian_motion_events_processed_total",
		Help: "Total number of motion sensor events processed.",
	})

	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardian_alerts_raised_total",
		Help: "Total number of alerts raised, labelled by source and severity.",
	}, []string{"source", "severity"})

	RemindersTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardian_reminders_triggered_total",
		Help: "Total number of reminders triggered, labelled by kind.",
	}, []string{"kind"})

	RemindersAcknowledged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardian_reminders_acknowledged_total",
		Help: "Total number of reminders acknowledged.",
	})

	EmergencyMode = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "guardian_emergency_mode",
		Help: "Whether the coordinator is in emergency mode (0 or 1).",
	})

	NotifyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardian_notify_failures_total",
		Help: "Total number of failed alert notifications, labelled by channel.",
	}, []string{"channel"})
)
