package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AnalysisCounter reports how many analyses are stored.
type AnalysisCounter interface {
	Count(ctx context.Context) (int, error)
}

// AnalysisCollector implements prometheus.Collector for the analysis store.
// It queries the store lazily on each scrape rather than tracking state.
type AnalysisCollector struct {
	store   AnalysisCounter
	timeout time.Duration
	log     *slog.Logger

	stored *prometheus.Desc
	up     *prometheus.Desc
}

// NewAnalysisCollector creates a collector that counts stored analyses on demand.
func NewAnalysisCollector(store AnalysisCounter) *AnalysisCollector {
	return &AnalysisCollector{
		store:   store,
		timeout: 5 * time.Second,
		log:     slog.With("component", "analysis-collector"),

		stored: prometheus.NewDesc(
			"cinesplit_analyses_stored",
			"Number of movie analyses in the store.",
			nil, nil,
		),
		up: prometheus.NewDesc(
			"cinesplit_store_up",
			"Whether the last store query succeeded (1) or failed (0).",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *AnalysisCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.stored
	ch <- c.up
}

// Collect implements prometheus.Collector.
func (c *AnalysisCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	n, err := c.store.Count(ctx)
	if err != nil {
		c.log.Warn("failed to count analyses", "error", err)
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.stored, prometheus.GaugeValue, float64(n))
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
}
