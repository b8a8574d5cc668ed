package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReconcileRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intern_reconcile_records_total",
			Help: "Intern records processed by bulk upsert, by outcome",
		},
		[]string{"outcome"}, // matched, modified, upserted, failed
	)

	ReconcileBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intern_reconcile_batches_total",
			Help: "Bulk upsert batches, by result",
		},
		[]string{"result"}, // ok, invalid, error
	)

	VerifyLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intern_verify_total",
			Help: "Intern verification lookups, by result",
		},
		[]string{"result"}, // found, not_found, invalid, error
	)

	ContactSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact form submissions, by result",
		},
		[]string{"result"}, // ok, invalid, store_error, mail_error
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
