package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Instruments are the service's own counters, kept on a private registry.
// One set lives for the whole process so values survive reloads.
// A nil *Instruments is valid and records nothing.
type Instruments struct {
	registry *prometheus.Registry

	subscribers       prometheus.Gauge
	broadcasts        prometheus.Counter
	broadcastFailures prometheus.Counter
	requests          *prometheus.CounterVec
	authRejections    *prometheus.CounterVec
	sampleDuration    prometheus.Histogram
}

// NewInstruments creates and registers all collectors
func NewInstruments() *Instruments {
	reg := prometheus.NewRegistry()
	i := &Instruments{
		registry: reg,
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "smanager",
			Name:      "push_subscribers",
			Help:      "Live WebSocket subscribers.",
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smanager",
			Name:      "broadcast_ticks_total",
			Help:      "Broadcast ticks that delivered a snapshot to at least one subscriber.",
		}),
		broadcastFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smanager",
			Name:      "broadcast_failures_total",
			Help:      "Subscribers dropped after a failed delivery.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smanager",
			Name:      "http_requests_total",
			Help:      "Pull requests by handler and status code.",
		}, []string{"handler", "code"}),
		authRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smanager",
			Name:      "auth_rejections_total",
			Help:      "Requests and handshakes refused for a missing or wrong token.",
		}, []string{"endpoint"}),
		sampleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "smanager",
			Name:      "sample_duration_seconds",
			Help:      "Time spent reading host counters per tick.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
	}

	reg.MustRegister(
		i.subscribers,
		i.broadcasts,
		i.broadcastFailures,
		i.requests,
		i.authRejections,
		i.sampleDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return i
}

// Handler serves the registry in Prometheus text format
func (i *Instruments) Handler() http.Handler {
	return promhttp.HandlerFor(i.registry, promhttp.HandlerOpts{})
}

// ObserveSample records how long one sampling tick took
func (i *Instruments) ObserveSample(d time.Duration) {
	if i == nil {
		return
	}
	i.sampleDuration.Observe(d.Seconds())
}

func (i *Instruments) setSubscribers(n int) {
	if i == nil {
		return
	}
	i.subscribers.Set(float64(n))
}

func (i *Instruments) broadcastTick() {
	if i == nil {
		return
	}
	i.broadcasts.Inc()
}

func (i *Instruments) broadcastFailure() {
	if i == nil {
		return
	}
	i.broadcastFailures.Inc()
}

func (i *Instruments) authRejected(endpoint string) {
	if i == nil {
		return
	}
	i.authRejections.WithLabelValues(endpoint).Inc()
}

// instrument counts responses of h by status code
func (i *Instruments) instrument(name string, h http.Handler) http.Handler {
	if i == nil {
		return h
	}
	return promhttp.InstrumentHandlerCounter(i.requests.MustCurryWith(prometheus.Labels{"handler": name}), h)
}
