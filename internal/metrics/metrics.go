// Package metrics Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emerald_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emerald_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	StageGateRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emerald_stage_gate_rejections_total",
		Help: "Stage status changes rejected because a same-item prerequisite is not completed.",
	})

	ProgressRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emerald_progress_recomputes_total",
		Help: "Project progress recomputations.",
	})

	WarehouseTransactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emerald_warehouse_transactions_total",
			Help: "Applied warehouse transactions by type.",
		},
		[]string{"type"},
	)

	WarehouseStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emerald_warehouse_status_changes_total",
			Help: "Warehouse item status writes by new status.",
		},
		[]string{"status"},
	)
)
