package enrich

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts enrichment outcomes per vendor. All methods are nil-safe so
// the orchestrator works without a registry wired in.
type Metrics struct {
	productsProcessed *prometheus.CounterVec
	productsUpdated   *prometheus.CounterVec
	skusEnriched      *prometheus.CounterVec
	skusSkipped       *prometheus.CounterVec
	imagesAdded       *prometheus.CounterVec
	errors            *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		productsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enricher_products_processed_total",
			Help: "Product groups processed, successful or not.",
		}, []string{"vendor"}),
		productsUpdated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enricher_products_updated_total",
			Help: "Product groups that received at least one write.",
		}, []string{"vendor"}),
		skusEnriched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enricher_skus_enriched_total",
			Help: "SKUs that received enrichment data.",
		}, []string{"vendor"}),
		skusSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enricher_skus_skipped_total",
			Help: "SKUs skipped because their product page was not found or empty.",
		}, []string{"vendor"}),
		imagesAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enricher_images_added_total",
			Help: "Media assets written to the catalog.",
		}, []string{"vendor"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enricher_errors_total",
			Help: "Per-product errors during enrichment runs.",
		}, []string{"vendor"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enricher_run_duration_seconds",
			Help:    "Wall-clock duration of a full enrichment run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"vendor"}),
	}

	reg.MustRegister(
		m.productsProcessed, m.productsUpdated,
		m.skusEnriched, m.skusSkipped,
		m.imagesAdded, m.errors, m.runDuration,
	)

	return m
}

func (m *Metrics) ProductProcessed(vendor string) {
	if m == nil {
		return
	}
	m.productsProcessed.WithLabelValues(vendor).Inc()
}

func (m *Metrics) ProductUpdated(vendor string) {
	if m == nil {
		return
	}
	m.productsUpdated.WithLabelValues(vendor).Inc()
}

func (m *Metrics) SkusEnriched(vendor string, n int) {
	if m == nil {
		return
	}
	m.skusEnriched.WithLabelValues(vendor).Add(float64(n))
}

func (m *Metrics) SkusSkipped(vendor string, n int) {
	if m == nil {
		return
	}
	m.skusSkipped.WithLabelValues(vendor).Add(float64(n))
}

func (m *Metrics) ImagesAdded(vendor string, n int) {
	if m == nil {
		return
	}
	m.imagesAdded.WithLabelValues(vendor).Add(float64(n))
}

func (m *Metrics) Error(vendor string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(vendor).Inc()
}

func (m *Metrics) ObserveRunDuration(vendor string, seconds float64) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(vendor).Observe(seconds)
}
