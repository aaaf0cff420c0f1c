// Package metrics provides Prometheus metrics for the file managers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Collector holds the file manager metrics.
type Collector struct {
	operations       *prometheus.CounterVec
	downloadBytes    prometheus.Counter
	downloadDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filebox_operations_total",
				Help: "Total number of file manager operations",
			},
			[]string{"op", "result"},
		),
		downloadBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "filebox_download_bytes_total",
				Help: "Total bytes written by downloads",
			},
		),
		downloadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "filebox_download_duration_seconds",
				Help:    "Download duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordOperation counts one finished operation.
func (c *Collector) RecordOperation(op string, ok bool) {
	if c == nil {
		return
	}
	result := ResultOK
	if !ok {
		result = ResultError
	}
	c.operations.WithLabelValues(op, result).Inc()
}

// RecordDownload records a completed download.
func (c *Collector) RecordDownload(bytes int64, d time.Duration) {
	if c == nil {
		return
	}
	c.downloadBytes.Add(float64(bytes))
	c.downloadDuration.Observe(d.Seconds())
}

// Operations exposes the operation counter, mainly for tests.
func (c *Collector) Operations() *prometheus.CounterVec { return c.operations }

// DownloadBytes exposes the byte counter, mainly for tests.
func (c *Collector) DownloadBytes() prometheus.Counter { return c.downloadBytes }
