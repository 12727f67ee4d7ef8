// Package metrics exposes service and fleet health to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
)

// Collector owns a private registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	fleetEquipment   *prometheus.GaugeVec
	readings         *prometheus.CounterVec
	summaryLookups   *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
}

// NewCollector creates and registers the service metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		fleetEquipment: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fleet_equipment_by_status",
				Help: "Equipment per maintenance status in the last computed fleet summary",
			},
			[]string{"owner", "status"},
		),
		readings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equipment_readings_total",
				Help: "Meter readings received over MQTT",
			},
			[]string{"result"},
		),
		summaryLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleet_summary_lookups_total",
				Help: "Fleet summary requests by cache outcome",
			},
			[]string{"cache"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Time taken to serve API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "code"},
		),
		requestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "API requests currently being served",
		}),
	}

	c.registry.MustRegister(
		c.fleetEquipment,
		c.readings,
		c.summaryLookups,
		c.requestDuration,
		c.requestsInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry the collector reports to.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordFleet publishes the status counts of one owner's fleet. An empty fleet drops
// the owner's series.
func (c *Collector) RecordFleet(ownerID string, summary maintenance.FleetSummary) {
	if summary.Total == 0 {
		c.ForgetFleet(ownerID)
		return
	}
	c.fleetEquipment.WithLabelValues(ownerID, string(maintenance.StatusGood)).Set(float64(summary.Good))
	c.fleetEquipment.WithLabelValues(ownerID, string(maintenance.StatusDueSoon)).Set(float64(summary.DueSoon))
	c.fleetEquipment.WithLabelValues(ownerID, string(maintenance.StatusOverdue)).Set(float64(summary.Overdue))
}

// ForgetFleet removes an owner's gauges.
func (c *Collector) ForgetFleet(ownerID string) {
	c.fleetEquipment.DeletePartialMatch(prometheus.Labels{"owner": ownerID})
}

// RecordReading counts a received meter reading by outcome, e.g. "applied" or "ignored".
func (c *Collector) RecordReading(result string) {
	c.readings.WithLabelValues(result).Inc()
}

// RecordSummaryLookup counts a fleet summary request as a cache hit or miss.
func (c *Collector) RecordSummaryLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	c.summaryLookups.WithLabelValues(outcome).Inc()
}

// Instrument wraps next, timing each request under route.
func (c *Collector) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.requestsInFlight.Inc()
		defer c.requestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		c.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
