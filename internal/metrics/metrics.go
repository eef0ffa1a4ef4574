// Package metrics defines the Prometheus metrics recorded during an archive run.
//
// All metrics are registered on the default registry via promauto and exposed by
// the api and worker processes on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistryRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accounts_registry_requests_total",
		Help: "Registry API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	RegistryRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "accounts_registry_request_duration_seconds",
		Help:    "Registry API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	RateLimitPausesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accounts_rate_limit_pauses_total",
		Help: "Number of fixed pauses taken because the registry rate limit was nearly exhausted",
	})

	RateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "accounts_rate_limit_remaining",
		Help: "Last observed value of the registry x-ratelimit-remain header",
	})

	ArtifactsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accounts_artifacts_total",
		Help: "Selected accounts documents by archive result",
	}, []string{"result"})

	CompaniesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accounts_companies_total",
		Help: "Processed companies by outcome",
	}, []string{"outcome"})
)

// Artifact results.
const (
	ResultArchived      = "archived"
	ResultFailed        = "failed"
	ResultPersistFailed = "persist_failed"
)

// Company outcomes.
const (
	OutcomeNoHistory = "no_history"
	OutcomeNoFilings = "no_full_accounts"
	OutcomeArchived  = "archived"
	OutcomePartial   = "partial"
	OutcomeFailed    = "failed"
)
