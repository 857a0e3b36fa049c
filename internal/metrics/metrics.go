// Package metrics exposes Prometheus counters for the dispatch pipeline.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the dispatcher and bot report to.
type Recorder interface {
	RecordCycle(duration time.Duration, err error)
	RecordFetchFailure()
	RecordScanFault()
	RecordNotification(err error)
	RecordSkippedCycle()
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	skipped       prometheus.Counter
	fetchFail     prometheus.Counter
	scanFaults    prometheus.Counter
	notifications *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mangabot_dispatch_cycles_total",
			Help: "Dispatch cycles by outcome.",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mangabot_dispatch_cycle_seconds",
			Help:    "Duration of dispatch cycles.",
			Buckets: prometheus.DefBuckets,
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mangabot_dispatch_cycles_skipped_total",
			Help: "Scheduled ticks skipped because a cycle was still running.",
		}),
		fetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mangabot_listing_fetch_fail_total",
			Help: "Failed downloads of the listing page.",
		}),
		scanFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mangabot_scan_faults_total",
			Help: "Chapter rows skipped because they could not be parsed.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mangabot_notifications_total",
			Help: "Chapter notifications by outcome.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.cycles,
		c.cycleDuration,
		c.skipped,
		c.fetchFail,
		c.scanFaults,
		c.notifications,
	)
	return c
}

// RecordCycle records a finished dispatch cycle.
func (c *Collector) RecordCycle(duration time.Duration, err error) {
	c.cycles.WithLabelValues(result(err)).Inc()
	c.cycleDuration.Observe(duration.Seconds())
}

// RecordFetchFailure records a failed listing download.
func (c *Collector) RecordFetchFailure() {
	c.fetchFail.Inc()
}

// RecordScanFault records a skipped chapter row.
func (c *Collector) RecordScanFault() {
	c.scanFaults.Inc()
}

// RecordNotification records one notification attempt.
func (c *Collector) RecordNotification(err error) {
	c.notifications.WithLabelValues(result(err)).Inc()
}

// RecordSkippedCycle records a tick dropped by the overlap guard.
func (c *Collector) RecordSkippedCycle() {
	c.skipped.Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordCycle(time.Duration, error) {}
func (Nop) RecordFetchFailure()              {}
func (Nop) RecordScanFault()                 {}
func (Nop) RecordNotification(error)         {}
func (Nop) RecordSkippedCycle()              {}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown metrics server", "error", err)
		}
	}()

	log.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
