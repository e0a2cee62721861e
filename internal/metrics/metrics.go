// Package metrics holds the Prometheus collectors shared by the server,
// the worker and the aggregation layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "financialchecker"

var (
	Registry = prometheus.NewRegistry()

	TransactionsInserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_inserted_total",
			Help:      "Transactions written to the store, by type.",
		},
		[]string{"type"},
	)

	StoreFetchErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_fetch_errors_total",
			Help:      "Failed full reads of the transaction store.",
		},
	)

	AggregateRefresh = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_refresh_seconds",
			Help:      "Time spent re-reading and partitioning the store.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route pattern and status code.",
		},
		[]string{"route", "code"},
	)

	Rates = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_of_change",
			Help:      "Latest estimated rate over the worker's trailing window, by kind and period.",
		},
		[]string{"kind", "period"},
	)

	RatesComputed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rates_computed_total",
			Help:      "Rate snapshots computed by the worker.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		TransactionsInserted,
		StoreFetchErrors,
		AggregateRefresh,
		HTTPRequests,
		Rates,
		RatesComputed,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
