package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MME-specific metrics for the EMM Attach procedure
var (
	RegisteredUEs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mme_registered_ues_total",
			Help: "Total number of UEs currently in EMM-REGISTERED state",
		},
	)

	AttachAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mme_attach_attempts_total",
			Help: "Total number of Attach Request events processed",
		},
		[]string{"result"}, // accepted, rejected, duplicate, restarted
	)

	AttachRejects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mme_attach_rejects_total",
			Help: "Total number of Attach Reject messages sent, by EMM cause",
		},
		[]string{"cause"},
	)

	AttachAborts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mme_attach_aborts_total",
			Help: "Total number of Attach procedures aborted",
		},
	)

	T3450Retransmissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mme_t3450_retransmissions_total",
			Help: "Total number of Attach Accept retransmissions due to T3450 expiry",
		},
	)

	T3450Exhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mme_t3450_exhausted_total",
			Help: "Total number of times T3450 reached ATTACH_COUNTER_MAX without Attach Complete",
		},
	)

	GUTIReallocations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mme_guti_reallocations_total",
			Help: "Total number of GUTI allocations performed during Attach",
		},
	)

	ActiveUEContexts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mme_active_ue_contexts",
			Help: "Number of UE EMM contexts currently held in the context store",
		},
	)
)

// SetRegisteredUEs sets the count of registered UEs.
func SetRegisteredUEs(count int) {
	RegisteredUEs.Set(float64(count))
}

// RecordAttachAttempt records the outcome of processing one Attach Request event.
func RecordAttachAttempt(result string) {
	AttachAttempts.WithLabelValues(result).Inc()
}

// RecordAttachReject records an Attach Reject emission with its cause.
func RecordAttachReject(cause string) {
	AttachRejects.WithLabelValues(cause).Inc()
}

// RecordAttachAbort records an aborted Attach procedure.
func RecordAttachAbort() {
	AttachAborts.Inc()
}

// RecordT3450Retransmission records one Attach Accept retransmission.
func RecordT3450Retransmission() {
	T3450Retransmissions.Inc()
}

// RecordT3450Exhausted records T3450 reaching ATTACH_COUNTER_MAX.
func RecordT3450Exhausted() {
	T3450Exhausted.Inc()
}

// RecordGUTIReallocation records a GUTI allocation.
func RecordGUTIReallocation() {
	GUTIReallocations.Inc()
}

// SetActiveUEContexts sets the number of contexts currently in the store.
func SetActiveUEContexts(count int) {
	ActiveUEContexts.Set(float64(count))
}
