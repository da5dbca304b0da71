package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheRequestsTotal, stashRequestsTotal) }

var (
	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Tracks cache hits and misses for various caches.",
		},
		[]string{"cache", "result"}, // e.g., cache="user", result="hit"
	)

	stashRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_stash_requests_total",
			Help: "Audio stash operations by result.",
		},
		[]string{"op", "result"}, // e.g., op="get", result="miss"
	)
)

func IncCacheRequest(cacheName, result string) {
	cacheRequestsTotal.WithLabelValues(norm(cacheName), norm(result)).Inc()
}

func IncStashRequest(op, result string) {
	stashRequestsTotal.WithLabelValues(norm(op), norm(result)).Inc()
}
