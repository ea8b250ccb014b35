package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	processedBundlesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processed_bundles_total",
			Help: "Total number of processed bundles",
		},
		[]string{"status"},
	)
	submittedTransactionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submitted_transactions_total",
			Help: "Total number of transactions submitted inside bundles",
		},
		[]string{"status"},
	)
	resultLookupsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_lookups_total",
			Help: "Total number of bundle result cache lookups",
		},
		[]string{"outcome"},
	)
)

func init() {
	bundlerRegisterer := prometheus.WrapRegistererWithPrefix("bundler_", prometheus.DefaultRegisterer)
	bundlerRegisterer.MustRegister(processedBundlesCounter)
	bundlerRegisterer.MustRegister(submittedTransactionsCounter)
	bundlerRegisterer.MustRegister(resultLookupsCounter)
}
