package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// BillboardRows counts batch rows by outcome: succeeded, failed or skipped.
	BillboardRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poi_scraper",
		Subsystem: "batch",
		Name:      "billboard_rows_total",
		Help:      "Billboard rows handled by the batch driver",
	}, []string{"outcome"})

	ListingsScraped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poi_scraper",
		Subsystem: "scrape",
		Name:      "listings_total",
		Help:      "Listings extracted from search results",
	}, []string{"poi"})

	CategoryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "poi_scraper",
		Subsystem: "scrape",
		Name:      "category_duration_seconds",
		Help:      "Time to load and extract one category search page",
		Buckets:   []float64{1, 2, 3, 5, 10, 20, 30, 60},
	}, []string{"poi"})

	RecordsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "poi_scraper",
		Subsystem: "storage",
		Name:      "records_persisted_total",
		Help:      "Scored records appended to poi_billboards",
	})

	LastBatchFinished = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "poi_scraper",
		Subsystem: "batch",
		Name:      "last_finished_timestamp_seconds",
		Help:      "Unix time the last batch finished",
	})
)

// Outcome labels for BillboardRows.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// ObserveCategory records one category scrape.
func ObserveCategory(poi string, listings int, took time.Duration) {
	ListingsScraped.WithLabelValues(poi).Add(float64(listings))
	CategoryDuration.WithLabelValues(poi).Observe(took.Seconds())
}

// Push sends the default registry to a Prometheus Pushgateway. Batch runs use
// it since they exit before a scrape could happen.
func Push(url, job string) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(prometheus.DefaultGatherer).Push()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
