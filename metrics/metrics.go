package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LaddersComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dca_ladders_computed_total",
			Help: "Total number of ladders computed (by direction).",
		},
		[]string{"direction"},
	)

	InvalidInputs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dca_ladder_invalid_input_total",
			Help: "Ladder requests rejected for invalid input (by field).",
		},
		[]string{"field"},
	)

	RulesCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dca_rules_cache_total",
			Help: "Rules cache lookups by result (hit, miss, stale).",
		},
		[]string{"result"},
	)

	LadderOrders = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dca_ladder_orders",
			Help:    "Number of orders per computed ladder.",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)
)

func init() {
	prometheus.MustRegister(LaddersComputed, InvalidInputs, RulesCache, LadderOrders)
}

// Direction labels a ladder for LaddersComputed.
func Direction(long bool) string {
	if long {
		return "long"
	}
	return "short"
}
