// Package metrics holds the Prometheus collectors for both controllers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "revshift"

var (
	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hotplug",
		Name:      "ticks_total",
		Help:      "Hotplug ticks by outcome (evaluated, invalid, disabled)",
	}, []string{"result"})

	Load = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "hotplug",
		Name:      "load",
		Help:      "Last sampled aggregate load, frequency scaled (100 per fully busy unit)",
	})

	ActiveUnits = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "hotplug",
		Name:      "active_units",
		Help:      "Units online after the last tick or fast-path action",
	})

	Debounce = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "hotplug",
		Name:      "debounce",
		Help:      "Debounce counter values after the last tick",
	}, []string{"counter"})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hotplug",
		Name:      "transitions_total",
		Help:      "Unit online/offline attempts by direction and result",
	}, []string{"direction", "result"})

	FastPathTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hotplug",
		Name:      "fastpath_total",
		Help:      "Fast-path task runs by kind (boost, deferred_down)",
	}, []string{"kind"})

	PressureLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "vmpressure",
		Name:      "level",
		Help:      "Last published pressure level (1024 low, 1048576 medium, 1073741824 oom)",
	})

	PressureScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "vmpressure",
		Name:      "score",
		Help:      "Last computed 0-100 pressure score",
	})

	RecomputeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "vmpressure",
		Name:      "recompute_total",
		Help:      "Pressure recompute runs by outcome (computed, starved, escalated)",
	}, []string{"result"})

	Watchers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "vmpressure",
		Name:      "watchers",
		Help:      "Registered pressure watchers",
	})

	WakeupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "vmpressure",
		Name:      "wakeups_total",
		Help:      "Watchers woken by a level crossing",
	})
)

// SetDebounce publishes the three hotplug debounce counters.
func SetDebounce(shiftDiff, shiftDiffAll, downDiff uint32) {
	Debounce.WithLabelValues("shift_diff").Set(float64(shiftDiff))
	Debounce.WithLabelValues("shift_diff_all").Set(float64(shiftDiffAll))
	Debounce.WithLabelValues("down_diff").Set(float64(downDiff))
}

// IncTransition records one online/offline attempt.
func IncTransition(online bool, err error) {
	dir := "offline"
	if online {
		dir = "online"
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	TransitionsTotal.WithLabelValues(dir, result).Inc()
}
