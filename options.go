package kdvec

import (
	"log/slog"

	"github.com/hupe1980/kdvec/distance"
	"github.com/hupe1980/kdvec/resource"
)

type options struct {
	metric           distance.Metric
	metricsCollector MetricsCollector
	logger           *Logger
	resources        resource.Config
	controller       *resource.Controller
	blockingMemory   bool
	batchParallelism int
}

// Option configures Index construction.
type Option func(*options)

// WithMetric selects the distance metric. The default is
// distance.MetricSquaredL2; distance.MetricL2 returns true Euclidean
// distances with identical ranking.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &kdvec.BasicMetricsCollector{}
//	idx, _ := kdvec.New(128, kdvec.WithMetricsCollector(metrics))
//	// ... use idx ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := kdvec.NewJSONLogger(slog.LevelInfo)
//	idx, _ := kdvec.New(128, kdvec.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMemoryLimit caps the bytes held by stored records. Inserts that would
// exceed the limit fail with ErrMemoryLimit. 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.resources.MemoryLimitBytes = bytes
	}
}

// WithBlockingMemory makes inserts wait for memory to be released (by
// closing an index that shares the controller) instead of failing at once
// with ErrMemoryLimit. The wait ends when the insert's context is done, and
// the resulting error wraps both ErrMemoryLimit and the context error.
func WithBlockingMemory() Option {
	return func(o *options) {
		o.blockingMemory = true
	}
}

// WithMaxConcurrentSearches bounds how many searches run at once.
// 0 defaults to GOMAXPROCS.
func WithMaxConcurrentSearches(n int) Option {
	return func(o *options) {
		o.resources.MaxConcurrentSearches = int64(n)
	}
}

// WithQueryRateLimit limits searches to qps per second with the given burst.
func WithQueryRateLimit(qps float64, burst int) Option {
	return func(o *options) {
		o.resources.QueriesPerSecond = qps
		o.resources.QueryBurst = burst
	}
}

// WithResourceController shares an existing controller between indexes.
// It overrides WithMemoryLimit, WithMaxConcurrentSearches and
// WithQueryRateLimit.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithBatchParallelism bounds the goroutines used by SearchBatch.
// 0 defaults to GOMAXPROCS.
func WithBatchParallelism(n int) Option {
	return func(o *options) {
		o.batchParallelism = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metric:           distance.MetricSquaredL2,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
