package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(requestsSubmittedTotal, requestsFinishedTotal, schedulingFailuresTotal, reconcilerActionsTotal)
}

var (
	requestsSubmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transcription_requests_submitted_total",
			Help: "Total number of accepted transcription submissions.",
		},
	)

	requestsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcription_requests_finished_total",
			Help: "Total number of requests that reached a terminal status, labeled by status.",
		},
		[]string{"status"}, // 'done', 'error'
	)

	schedulingFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transcription_scheduling_failures_total",
			Help: "Submissions rejected because background processing could not be scheduled.",
		},
	)

	reconcilerActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcription_reconciler_actions_total",
			Help: "Stale requests handled by the reconciler, labeled by action.",
		},
		[]string{"action"}, // 'requeued', 'failed'
	)
)

func IncRequestSubmitted() { requestsSubmittedTotal.Inc() }

func IncRequestFinished(status string) {
	requestsFinishedTotal.WithLabelValues(norm(status)).Inc()
}

func IncSchedulingFailure() { schedulingFailuresTotal.Inc() }

func IncReconcilerAction(action string) {
	reconcilerActionsTotal.WithLabelValues(norm(action)).Inc()
}
