package metrics

import "github.com/prometheus/client_golang/prometheus"

// Indexer holds the ingestion job metrics. Registered on its own registry,
// so a job binary can expose them without the API metrics.
type Indexer struct {
	RowsTotal     *prometheus.CounterVec
	ChunksTotal   *prometheus.CounterVec
	BatchesTotal  prometheus.Counter
	BatchDuration *prometheus.HistogramVec
}

// NewIndexer creates and registers indexer metrics on reg.
func NewIndexer(reg prometheus.Registerer) *Indexer {
	m := &Indexer{
		RowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "rows_total",
			Help:      "Source rows by outcome",
		}, []string{"status"}), // "accepted" / "skipped"

		ChunksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "chunks_total",
			Help:      "Chunk documents by outcome",
		}, []string{"status", "reason"}),

		BatchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "batches_total",
			Help:      "Embed+bulk batches processed",
		}),

		BatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "batch_duration_seconds",
			Help:      "Batch stage duration",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}), // "embed" / "bulk"
	}
	if reg != nil {
		reg.MustRegister(m.RowsTotal, m.ChunksTotal, m.BatchesTotal, m.BatchDuration)
	}
	return m
}
