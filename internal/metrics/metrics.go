package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billbot_cycles_total",
			Help: "Dispatch cycles, by result",
		},
		[]string{"result"}, // result: ok, store_error, window_closed
	)

	RemindersSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billbot_reminders_sent_total",
			Help: "Reminder occurrences delivered and logged",
		},
	)

	SendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billbot_send_failures_total",
			Help: "Reminder sends that failed, by kind",
		},
		[]string{"kind"}, // kind: transient, permanent, store
	)

	DuplicateOccurrences = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billbot_duplicate_occurrences_total",
			Help: "Occurrences skipped because the send log already had them",
		},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "billbot_cycle_duration_seconds",
			Help:    "Wall time of one due-detection and dispatch cycle",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
	)
)

func RecordCycle(result string, duration time.Duration) {
	CyclesTotal.WithLabelValues(result).Inc()
	CycleDuration.Observe(duration.Seconds())
}

// Handler exposes /metrics plus a trivial /healthz.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
