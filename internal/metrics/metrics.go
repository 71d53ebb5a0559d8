package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for statement extraction.
type Metrics struct {
	// Strategy attempts by strategy (ai, table, text) and outcome (ok, failed)
	StrategyOutcome *prometheus.CounterVec

	// Documents by final status (ok, unparsed, failed, cancelled)
	Documents *prometheus.CounterVec

	// Classified transactions by extraction method and direction
	Transactions *prometheus.CounterVec

	// Classifications below the review threshold
	LowConfidence prometheus.Counter

	// AI extractor call latency, including timeouts
	AILatency prometheus.Histogram
}

// New registers all extraction metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StrategyOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vindicate_extraction_strategy_total",
			Help: "Extraction strategy attempts by strategy and outcome",
		}, []string{"strategy", "outcome"}),

		Documents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vindicate_extraction_documents_total",
			Help: "Documents processed by final status",
		}, []string{"status"}),

		Transactions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vindicate_classified_transactions_total",
			Help: "Classified transactions by extraction method and direction",
		}, []string{"method", "direction"}),

		LowConfidence: f.NewCounter(prometheus.CounterOpts{
			Name: "vindicate_classification_low_confidence_total",
			Help: "Classifications below the review threshold",
		}),

		AILatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vindicate_ai_extract_duration_seconds",
			Help:    "Duration of AI extractor calls",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
	}
}

// ObserveStrategy records one strategy attempt.
func (m *Metrics) ObserveStrategy(strategy, outcome string) {
	if m != nil {
		m.StrategyOutcome.WithLabelValues(strategy, outcome).Inc()
	}
}

// ObserveDocument records a document's final status.
func (m *Metrics) ObserveDocument(status string) {
	if m != nil {
		m.Documents.WithLabelValues(status).Inc()
	}
}

// ObserveTransaction records one classified transaction.
func (m *Metrics) ObserveTransaction(method, direction string) {
	if m != nil {
		m.Transactions.WithLabelValues(method, direction).Inc()
	}
}

// IncLowConfidence counts a low-confidence classification.
func (m *Metrics) IncLowConfidence() {
	if m != nil {
		m.LowConfidence.Inc()
	}
}

// ObserveAILatency records the duration of an AI extractor call.
func (m *Metrics) ObserveAILatency(d time.Duration) {
	if m != nil {
		m.AILatency.Observe(d.Seconds())
	}
}

// WriteTextfile writes the gathered metrics in the node_exporter textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
