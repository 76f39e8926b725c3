package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tagratio/internal/store"
)

var (
	tagRatioDesc = prometheus.NewDesc(
		"tagratio_tag_ratio",
		"Smoothed real/AI frequency ratio of the top-ranked tags",
		[]string{"tag"},
		nil,
	)
	tagCountDesc = prometheus.NewDesc(
		"tagratio_tags",
		"Number of tags in the frequency store",
		nil,
		nil,
	)
)

// TagCollector is a custom Prometheus collector that reads the top-ranked
// tag records from the store on each scrape.
type TagCollector struct {
	store store.Store
	limit int
	log   *zap.Logger
}

// NewTagCollector creates a collector exporting up to limit tags.
func NewTagCollector(s store.Store, limit int, log *zap.Logger) *TagCollector {
	if log == nil {
		log = zap.NewNop()
	}
	return &TagCollector{store: s, limit: limit, log: log}
}

// Describe sends the metric descriptors to the channel.
func (c *TagCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- tagRatioDesc
	ch <- tagCountDesc
}

// Collect queries the store and emits the tag count and top ratios as gauges.
func (c *TagCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := c.store.CountTagRecords(ctx)
	if err != nil {
		c.log.Error("failed to collect tag count", zap.Error(err))
		return
	}
	ch <- prometheus.MustNewConstMetric(tagCountDesc, prometheus.GaugeValue, float64(count))

	records, err := c.store.ListTagRecords(ctx, c.limit)
	if err != nil {
		c.log.Error("failed to collect tag ratios", zap.Error(err))
		return
	}
	for _, r := range records {
		ch <- prometheus.MustNewConstMetric(tagRatioDesc, prometheus.GaugeValue, r.Ratio, r.Tag)
	}
}

// Metrics holds the service counters. A nil *Metrics records nothing.
type Metrics struct {
	scores            *prometheus.CounterVec
	extractorFailures prometheus.Counter
	indexRuns         *prometheus.CounterVec
	indexDuration     prometheus.Histogram
}

// New registers the tag collector and the service counters with reg.
func New(reg prometheus.Registerer, s store.Store, limit int, log *zap.Logger) *Metrics {
	m := &Metrics{
		scores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tagratio_scores_total",
			Help: "Scored tag sets by verdict",
		}, []string{"verdict"}),
		extractorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tagratio_extractor_failures_total",
			Help: "Files whose metadata extraction failed",
		}),
		indexRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tagratio_index_runs_total",
			Help: "Index runs by write mode and outcome",
		}, []string{"mode", "outcome"}),
		indexDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tagratio_index_duration_seconds",
			Help:    "Duration of index runs",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
	}
	reg.MustRegister(
		NewTagCollector(s, limit, log),
		m.scores,
		m.extractorFailures,
		m.indexRuns,
		m.indexDuration,
	)
	return m
}

// RecordScore counts a scoring verdict.
func (m *Metrics) RecordScore(isAI bool) {
	if m == nil {
		return
	}
	verdict := "real"
	if isAI {
		verdict = "ai"
	}
	m.scores.WithLabelValues(verdict).Inc()
}

// RecordExtractFailure counts a failed extraction.
func (m *Metrics) RecordExtractFailure() {
	if m == nil {
		return
	}
	m.extractorFailures.Inc()
}

// RecordIndexRun counts an index run and observes its duration.
func (m *Metrics) RecordIndexRun(mode string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.indexRuns.WithLabelValues(mode, outcome).Inc()
	m.indexDuration.Observe(elapsed.Seconds())
}
