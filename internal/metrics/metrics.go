// Package metrics exposes the latest meter reading to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"wattsup-logger/internal/protocol"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	power = prometheus.NewDesc(
		"wattsup_power_watts",
		"Last sampled power in watts",
		nil, nil,
	)
	voltage = prometheus.NewDesc(
		"wattsup_voltage_volts",
		"Last sampled line voltage in volts",
		nil, nil,
	)
	current = prometheus.NewDesc(
		"wattsup_current_amps",
		"Last sampled current in amperes",
		nil, nil,
	)
	elapsed = prometheus.NewDesc(
		"wattsup_elapsed_seconds",
		"Virtual elapsed time of the last sample in seconds",
		nil, nil,
	)
	samples = prometheus.NewDesc(
		"wattsup_samples_total",
		"Samples accepted since start",
		nil, nil,
	)
	energy = prometheus.NewDesc(
		"wattsup_energy_joules_total",
		"Energy measured since start in joules",
		nil, nil,
	)
)

// Exporter is a prometheus.Collector fed by the acquisition session.
type Exporter struct {
	interval float64

	mu      sync.Mutex
	last    protocol.Sample
	count   uint64
	joules  float64
	sampled bool
}

// NewExporter returns an exporter for samples taken every interval seconds
// and registers it with reg.
func NewExporter(interval int, reg prometheus.Registerer) *Exporter {
	e := &Exporter{interval: float64(interval)}
	reg.MustRegister(e)
	return e
}

// Observe records s as the latest reading.
func (e *Exporter) Observe(s protocol.Sample) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = s
	e.count++
	e.joules += s.Power * e.interval
	e.sampled = true
}

// Describe sends every descriptor, including gauges that are only
// collected once a sample has arrived.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{power, voltage, current, elapsed, samples, energy} {
		ch <- d
	}
}

func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	e.mu.Lock()
	last, count, joules, sampled := e.last, e.count, e.joules, e.sampled
	e.mu.Unlock()

	ch <- prometheus.MustNewConstMetric(samples, prometheus.CounterValue, float64(count))
	ch <- prometheus.MustNewConstMetric(energy, prometheus.CounterValue, joules)
	if !sampled {
		return
	}
	ch <- prometheus.MustNewConstMetric(power, prometheus.GaugeValue, last.Power)
	ch <- prometheus.MustNewConstMetric(voltage, prometheus.GaugeValue, last.Voltage)
	ch <- prometheus.MustNewConstMetric(current, prometheus.GaugeValue, last.Current)
	ch <- prometheus.MustNewConstMetric(elapsed, prometheus.GaugeValue, float64(last.Index))
}

// Serve exposes reg on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, reg prometheus.Gatherer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", "err", err)
		}
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
