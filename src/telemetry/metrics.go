package telemetry

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "murmur"

// Metrics holds the counters of one node. Every node owns its own registry so
// that several nodes can live in the same process, as they do in the in-memory
// network.
type Metrics struct {
	Registry *prometheus.Registry

	MessagesReceived *prometheus.CounterVec
	MessagesSent     *prometheus.CounterVec
	GossipSweeps     prometheus.Counter
	ValuesKnown      prometheus.Gauge
	Neighbors        prometheus.Gauge
}

// NewMetrics creates and registers the node metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_received_total",
				Help:      "Inbound messages dispatched, by body type.",
			},
			[]string{"type"},
		),

		MessagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_sent_total",
				Help:      "Outbound messages written, by body type.",
			},
			[]string{"type"},
		),

		GossipSweeps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gossip_sweeps_total",
				Help:      "Anti-entropy sweeps run by the event loop.",
			},
		),

		ValuesKnown: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "values_known",
				Help:      "Distinct broadcast values held by the node.",
			},
		),

		Neighbors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "neighbors",
				Help:      "Peers the node gossips to.",
			},
		),
	}

	m.Registry.MustRegister(m.Collectors()...)

	return m
}

// Collectors returns every metric of the node, for registration in a shared
// registry.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesReceived,
		m.MessagesSent,
		m.GossipSweeps,
		m.ValuesKnown,
		m.Neighbors,
	}
}

// Received counts an inbound message of type t.
func (m *Metrics) Received(t string) {
	m.MessagesReceived.WithLabelValues(t).Inc()
}

// Sent counts an outbound message of type t.
func (m *Metrics) Sent(t string) {
	m.MessagesSent.WithLabelValues(t).Inc()
}

// Snapshot gathers the registry into a flat map keyed by metric name, with
// labels appended as name{label="value"}. Metric names lose the namespace
// prefix.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	families, err := m.Registry.Gather()
	if err != nil {
		return nil, err
	}

	res := make(map[string]float64)
	for _, f := range families {
		name := strings.TrimPrefix(f.GetName(), namespace+"_")
		for _, metric := range f.GetMetric() {
			key := name
			if labels := metric.GetLabel(); len(labels) > 0 {
				pairs := make([]string, 0, len(labels))
				for _, l := range labels {
					pairs = append(pairs, l.GetName()+"=\""+l.GetValue()+"\"")
				}
				sort.Strings(pairs)
				key += "{" + strings.Join(pairs, ",") + "}"
			}

			switch {
			case metric.GetCounter() != nil:
				res[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				res[key] = metric.GetGauge().GetValue()
			}
		}
	}

	return res, nil
}

// Total sums every series of a metric, e.g. all types of messages_sent_total.
func Total(snapshot map[string]float64, name string) float64 {
	var sum float64
	for k, v := range snapshot {
		if k == name || strings.HasPrefix(k, name+"{") {
			sum += v
		}
	}
	return sum
}
