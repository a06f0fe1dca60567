package metrics

import "github.com/prometheus/client_golang/prometheus"

// DialogueMetrics exposes counters/histograms for turn processing.
type DialogueMetrics struct {
	turnsTotal       *prometheus.CounterVec
	turnLatency      *prometheus.HistogramVec
	knowledgeUpdates *prometheus.CounterVec
}

func NewDialogueMetrics(reg prometheus.Registerer) *DialogueMetrics {
	m := &DialogueMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omniassist",
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Total processed conversation turns",
		}, []string{"channel", "topic"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "omniassist",
			Subsystem: "dialogue",
			Name:      "turn_latency_seconds",
			Help:      "Latency of turn processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
		knowledgeUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omniassist",
			Subsystem: "knowledge",
			Name:      "updates_total",
			Help:      "Total knowledge base updates",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency, m.knowledgeUpdates)
	return m
}

func (m *DialogueMetrics) ObserveTurn(channel, topic string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(channel, topic).Inc()
	m.turnLatency.WithLabelValues(channel).Observe(seconds)
}

func (m *DialogueMetrics) ObserveKnowledgeUpdate(status string) {
	if m == nil {
		return
	}
	m.knowledgeUpdates.WithLabelValues(status).Inc()
}
