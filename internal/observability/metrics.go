package observability

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "orcamentox"

// Metrics groups the Prometheus collectors for the request pipeline. Every
// method is safe on a nil *Metrics so services can run without them.
type Metrics struct {
	registry *prometheus.Registry

	http httpCollectors

	relaySends       *prometheus.CounterVec
	relayLatency     *prometheus.HistogramVec
	fanouts          *prometheus.CounterVec
	fanoutRecipients prometheus.Histogram
	proposals        *prometheus.CounterVec
	requestEvents    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		http:     newHTTPCollectors(),
		relaySends: counterVec("relay_messages_total",
			"WhatsApp relay sends by message template and outcome.",
			"template", "outcome"),
		relayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "relay_send_duration_seconds",
			Help:      "Relay send latency by message template.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"template"}),
		fanouts: counterVec("fanout_batches_total",
			"Provider fan-outs by result.",
			"result"),
		fanoutRecipients: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "fanout_recipients",
			Help:      "Matched providers per fan-out that reached the relay.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		proposals: counterVec("proposals_submitted_total",
			"Submitted proposals by client notification outcome.",
			"notification"),
		requestEvents: counterVec("request_events_total",
			"Consumed request.created events by handling outcome.",
			"outcome"),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.http.requests,
		m.http.latency,
		m.relaySends,
		m.relayLatency,
		m.fanouts,
		m.fanoutRecipients,
		m.proposals,
		m.requestEvents,
	)
	return m
}

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	}, labels)
}

// Handler serves this registry, falling back to the global one.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRelaySend(template, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	template = label(template)
	m.relaySends.WithLabelValues(template, label(outcome)).Inc()
	m.relayLatency.WithLabelValues(template).Observe(max(elapsed, 0).Seconds())
}

// ObserveFanout counts a fan-out by result; recipients are recorded only
// when at least one provider was messaged.
func (m *Metrics) ObserveFanout(result string, recipients int) {
	if m == nil {
		return
	}
	m.fanouts.WithLabelValues(label(result)).Inc()
	if recipients > 0 {
		m.fanoutRecipients.Observe(float64(recipients))
	}
}

func (m *Metrics) IncProposalSubmitted(notification string) {
	if m == nil {
		return
	}
	m.proposals.WithLabelValues(label(notification)).Inc()
}

func (m *Metrics) IncRequestEvent(outcome string) {
	if m == nil {
		return
	}
	m.requestEvents.WithLabelValues(label(outcome)).Inc()
}

func label(value string) string {
	if v := strings.ToLower(strings.TrimSpace(value)); v != "" {
		return v
	}
	return "unknown"
}
