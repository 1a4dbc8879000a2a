package upstream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factfan_upstream_requests_total",
			Help: "Outbound upstream calls by upstream and outcome",
		},
		[]string{"upstream", "outcome"},
	)

	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "factfan_upstream_request_duration_seconds",
			Help: "Time from sending an upstream request to decoding its body",
		},
		[]string{"upstream"},
	)
)

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}
