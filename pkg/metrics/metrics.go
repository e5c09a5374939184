package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/lintang-b-s/osm-geoenrich/pkg/stream"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the prometheus metrics of the stream enricher and the query server.
type Collector struct {
	gatherer prometheus.Gatherer

	RecordsProcessed    prometheus.Counter
	RecordsFailed       prometheus.Counter
	RecordsDeadLettered prometheus.Counter
	PipelineState       prometheus.Gauge
	EnrichDuration      prometheus.Histogram
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
}

// NewCollector registers the metrics against reg, the default registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		RecordsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geoenrich_records_processed_total",
			Help: "Stream records enriched and published.",
		}),
		RecordsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geoenrich_records_failed_total",
			Help: "Failed attempts to enrich or publish a stream record.",
		}),
		RecordsDeadLettered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geoenrich_records_dead_lettered_total",
			Help: "Stream records moved to the dead-letter stream.",
		}),
		PipelineState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "geoenrich_pipeline_state",
			Help: "Stream enricher state: 0 waiting, 1 processing, 2 publishing, 3 backoff.",
		}),
		EnrichDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "geoenrich_record_duration_seconds",
			Help:    "Time to enrich and publish one stream record.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geoenrich_http_requests_total",
			Help: "Handled query requests by route and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geoenrich_http_request_duration_seconds",
			Help:    "Query request latency in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"route"}),
	}

	for _, col := range []prometheus.Collector{
		c.RecordsProcessed, c.RecordsFailed, c.RecordsDeadLettered, c.PipelineState,
		c.EnrichDuration, c.HTTPRequests, c.HTTPDuration,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) StateChanged(s stream.State) {
	c.PipelineState.Set(float64(s))
}

func (c *Collector) Processed(d time.Duration) {
	c.RecordsProcessed.Inc()
	c.EnrichDuration.Observe(d.Seconds())
}

func (c *Collector) Failed() {
	c.RecordsFailed.Inc()
}

func (c *Collector) DeadLettered() {
	c.RecordsDeadLettered.Inc()
}

func (c *Collector) ObserveHTTP(route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the registry the collector was registered with.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
