package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Upstream request metrics
var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of AJAX requests sent to the provider.",
		},
		[]string{"action", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		UpstreamRequestsTotal,
	)
}
