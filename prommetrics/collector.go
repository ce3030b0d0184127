// Package prommetrics exports kdvec operational metrics to Prometheus.
//
//	c := prommetrics.New(prometheus.DefaultRegisterer)
//	idx, _ := kdvec.New(128, kdvec.WithMetricsCollector(c))
package prommetrics

import (
	"time"

	"github.com/hupe1980/kdvec"
	"github.com/prometheus/client_golang/prometheus"
)

var _ kdvec.MetricsCollector = (*Collector)(nil)

// Collector implements kdvec.MetricsCollector with Prometheus instruments.
type Collector struct {
	opLatency       *prometheus.HistogramVec
	visited         prometheus.Histogram
	pruned          prometheus.Counter
	batchItems      *prometheus.CounterVec
	recordsReleased prometheus.Counter
	bytesReleased   prometheus.Counter
}

// New creates a Collector and registers it with reg. A nil reg leaves the
// instruments unregistered.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kdvec_operation_latency_seconds",
			Help:    "Latency of index operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		visited: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kdvec_search_nodes_visited",
			Help:    "Tree nodes evaluated per search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kdvec_search_subtrees_pruned_total",
			Help: "Total subtrees skipped by the hyperplane test",
		}),
		batchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kdvec_batch_insert_items_total",
			Help: "Total items processed by batch inserts",
		}, []string{"status"}),
		recordsReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kdvec_records_released_total",
			Help: "Total records released by index teardown",
		}),
		bytesReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kdvec_bytes_released_total",
			Help: "Total record bytes released by index teardown",
		}),
	}

	if reg != nil {
		reg.MustRegister(c.opLatency, c.visited, c.pruned, c.batchItems, c.recordsReleased, c.bytesReleased)
	}
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordInsert implements kdvec.MetricsCollector.
func (c *Collector) RecordInsert(d time.Duration, err error) {
	c.opLatency.WithLabelValues("insert", status(err)).Observe(d.Seconds())
}

// RecordBatchInsert implements kdvec.MetricsCollector.
func (c *Collector) RecordBatchInsert(count, failed int, d time.Duration) {
	st := "success"
	if failed > 0 {
		st = "error"
	}
	c.opLatency.WithLabelValues("batch_insert", st).Observe(d.Seconds())
	c.batchItems.WithLabelValues("success").Add(float64(count - failed))
	c.batchItems.WithLabelValues("error").Add(float64(failed))
}

// RecordSearch implements kdvec.MetricsCollector.
func (c *Collector) RecordSearch(k int, stats kdvec.SearchStats, d time.Duration, err error) {
	c.opLatency.WithLabelValues("search", status(err)).Observe(d.Seconds())
	if err == nil {
		c.visited.Observe(float64(stats.Visited))
		c.pruned.Add(float64(stats.Pruned))
	}
}

// RecordBatchSearch implements kdvec.MetricsCollector.
func (c *Collector) RecordBatchSearch(queries int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("batch_search", status(err)).Observe(d.Seconds())
}

// RecordClose implements kdvec.MetricsCollector.
func (c *Collector) RecordClose(released int, bytes int64) {
	c.recordsReleased.Add(float64(released))
	c.bytesReleased.Add(float64(bytes))
}
