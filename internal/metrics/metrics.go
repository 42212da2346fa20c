// Package metrics exposes Prometheus counters for outbound delivery.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesSent counts successful sends by channel and source
	// ("campaign" or "trigger").
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_messages_sent_total",
		Help: "Outbound messages sent successfully.",
	}, []string{"channel", "source"})

	// MessagesFailed counts failed sends by channel and source.
	MessagesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_messages_failed_total",
		Help: "Outbound messages that failed to send.",
	}, []string{"channel", "source"})

	// TriggerEvents counts lifecycle events handled by trigger key.
	TriggerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_trigger_events_total",
		Help: "Lifecycle trigger events processed.",
	}, []string{"trigger"})

	// DripTicks counts scheduler passes by outcome ("ok"/"error").
	DripTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_drip_ticks_total",
		Help: "Drip scheduler ticks by outcome.",
	}, []string{"outcome"})
)
