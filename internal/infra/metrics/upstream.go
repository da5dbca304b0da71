package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(upstreamLatencyMs, reviewTokensIn)
}

var (
	upstreamLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_call_latency_ms",
			Help:    "Latency of transcription and review calls in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
		[]string{"provider", "stage", "success"},
	)

	reviewTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_prompt_tokens",
			Help: "Sum of prompt tokens sent to the reviewer per provider/model.",
		},
		[]string{"provider", "model"},
	)
)

// ObserveUpstream records one call to an external provider.
// stage is "transcription" or "review".
func ObserveUpstream(provider, stage string, latency time.Duration, success bool) {
	upstreamLatencyMs.WithLabelValues(norm(provider), norm(stage), strconv.FormatBool(success)).
		Observe(float64(latency / time.Millisecond))
}

func AddReviewTokens(provider, model string, tokens int) {
	reviewTokensIn.WithLabelValues(norm(provider), norm(model)).Add(float64(tokens))
}
