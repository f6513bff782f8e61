package main

import (
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/flagkit/flagkit/client"
)

func newMetrics() client.Metrics {
	const namespace, subsystem = "flagkit", "client"
	return client.Metrics{
		Resolutions: kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "resolutions_total",
			Help:      "Live variable resolutions, by where the value came from.",
		}, []string{"reason"}),
		Tracked: kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_tracked_total",
			Help:      "Custom events recorded, by event name.",
		}, []string{"event"}),
		Dropped: kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_evicted_total",
			Help:      "Events evicted from a full queue before delivery.",
		}, []string{}),
		QueueDepth: kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_depth",
			Help:      "Events waiting for delivery.",
		}, []string{}),
	}
}
