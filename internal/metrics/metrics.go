package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// eventsDispatchedTotal counts new-API dispatches.
	// Labels:
	// - kind:   authenticated | failed_to_authenticate | logged_in | failed_to_log_in | logged_out
	// - origin: new | legacy
	eventsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seclink",
			Subsystem: "dispatch",
			Name:      "events_total",
			Help:      "Security events dispatched through the new listener API.",
		},
		[]string{"kind", "origin"},
	)

	// listenerInvocationsTotal counts listener calls by outcome.
	// Labels:
	// - kind:   event kind
	// - result: continue | stop | panic
	listenerInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seclink",
			Subsystem: "dispatch",
			Name:      "listener_invocations_total",
			Help:      "Listener invocations by event kind and outcome.",
		},
		[]string{"kind", "result"},
	)

	// loopDropsTotal counts echoes dropped by a bridge.
	// Labels:
	// - bridge: legacy_to_new | new_to_legacy
	// - kind:   event kind
	loopDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seclink",
			Subsystem: "bridge",
			Name:      "loop_drops_total",
			Help:      "Events dropped by a bridge to prevent re-dispatch loops.",
		},
		[]string{"bridge", "kind"},
	)

	// legacyForwardTotal counts New->Legacy forwarding attempts.
	// Labels:
	// - kind:   event kind
	// - result: success | failure
	legacyForwardTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seclink",
			Subsystem: "bridge",
			Name:      "legacy_forward_total",
			Help:      "Events forwarded to the legacy firing layer by result.",
		},
		[]string{"kind", "result"},
	)
)

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// IncEventDispatched increments the dispatch counter.
func IncEventDispatched(kind string, fromLegacy bool) {
	origin := "new"
	if fromLegacy {
		origin = "legacy"
	}
	eventsDispatchedTotal.WithLabelValues(orUnknown(kind), origin).Inc()
}

// IncListenerInvocation increments the listener outcome counter.
func IncListenerInvocation(kind, result string) {
	listenerInvocationsTotal.WithLabelValues(orUnknown(kind), orUnknown(result)).Inc()
}

// IncLoopDrop increments the loop prevention counter.
func IncLoopDrop(bridge, kind string) {
	loopDropsTotal.WithLabelValues(orUnknown(bridge), orUnknown(kind)).Inc()
}

// IncLegacyForward increments the legacy forwarding counter.
func IncLegacyForward(kind, result string) {
	legacyForwardTotal.WithLabelValues(orUnknown(kind), orUnknown(result)).Inc()
}
