package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "backoffice_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	dispatchExportTotal *prometheus.CounterVec
	dispatchImportRows  *prometheus.CounterVec

	settlementReconcileTotal   *prometheus.CounterVec
	settlementReconcileLatency *prometheus.HistogramVec
	settlementDiscrepancyTotal prometheus.Counter
)

// Init 注册指标收集器，重复调用是安全的
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		dispatchExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dispatch_export_total",
				Help: "Total dispatch manifest exports by result",
			},
			[]string{"result"},
		)
		dispatchImportRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dispatch_import_rows_total",
				Help: "Total imported delivery result rows by outcome",
			},
			[]string{"outcome"},
		)

		settlementReconcileTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_reconcile_total",
				Help: "Total settlement reconciliations by path and result",
			},
			[]string{"path", "result"},
		)
		settlementReconcileLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "settlement_reconcile_latency_seconds",
				Help:    "Settlement reconciliation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		)
		settlementDiscrepancyTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_discrepancy_total",
				Help: "Total settlements reconciled with a non-zero discrepancy",
			},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			dispatchExportTotal,
			dispatchImportRows,
			settlementReconcileTotal,
			settlementReconcileLatency,
			settlementDiscrepancyTotal,
		)
	})
}

// GinMiddleware 记录 HTTP 请求量与耗时
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if httpRequests != nil {
			httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		}
		if httpLatency != nil {
			httpLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		}
	}
}

// IncDispatchExport 记录一次派送清单导出
func IncDispatchExport(success bool) {
	if dispatchExportTotal == nil {
		return
	}
	result := resultSuccess
	if !success {
		result = resultError
	}
	dispatchExportTotal.WithLabelValues(result).Inc()
}

// AddDispatchImportRows 按回执结果累计导入行数
func AddDispatchImportRows(outcome string, n int) {
	if dispatchImportRows == nil || n <= 0 {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	dispatchImportRows.WithLabelValues(outcome).Add(float64(n))
}

// ObserveSettlementReconcile 记录一次对账的路径、结果与耗时
func ObserveSettlementReconcile(path string, err error, duration time.Duration) {
	if path == "" {
		path = "unknown"
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if settlementReconcileTotal != nil {
		settlementReconcileTotal.WithLabelValues(path, result).Inc()
	}
	if settlementReconcileLatency != nil {
		settlementReconcileLatency.WithLabelValues(path).Observe(duration.Seconds())
	}
}

// IncSettlementDiscrepancy 记录一次带差异的对账结果
func IncSettlementDiscrepancy() {
	if settlementDiscrepancyTotal != nil {
		settlementDiscrepancyTotal.Inc()
	}
}
