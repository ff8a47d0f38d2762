// Package metrics exposes Prometheus counters for annotation runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so that several collectors can coexist
// in one process (tests, embedded use). A nil *Collector is a no-op.
type Collector struct {
	registry  *prometheus.Registry
	documents *prometheus.CounterVec
	sentences prometheus.Counter
	skipped   prometheus.Counter
	latency   prometheus.Histogram
}

// New creates a collector with Go runtime and process metrics registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "annotator_documents_total",
				Help: "Documents processed, by outcome.",
			},
			[]string{"outcome"},
		),
		sentences: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "annotator_sentences_total",
				Help: "Sentences emitted.",
			},
		),
		skipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "annotator_input_skipped_total",
				Help: "Malformed input lines skipped by the reader.",
			},
		),
		latency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "annotator_annotate_seconds",
				Help:    "Time spent annotating one document.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
		),
	}
	c.registry.MustRegister(
		c.documents, c.sentences, c.skipped, c.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Document counts one document outcome and its emitted sentences.
func (c *Collector) Document(outcome string, sentences int) {
	if c == nil {
		return
	}
	c.documents.WithLabelValues(outcome).Inc()
	if sentences > 0 {
		c.sentences.Add(float64(sentences))
	}
}

// ObserveAnnotate records the duration of one annotation call.
func (c *Collector) ObserveAnnotate(d time.Duration) {
	if c == nil {
		return
	}
	c.latency.Observe(d.Seconds())
}

// InputSkipped counts one skipped input line.
func (c *Collector) InputSkipped() {
	if c == nil {
		return
	}
	c.skipped.Inc()
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the exposition format for this collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
