package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Daemon metrics for record-source reindexing and the indexing switch.
var (
	ReindexDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esmapd",
			Name:      "reindex_documents_total",
			Help:      "Documents re-indexed from the record source",
		},
		[]string{"doc_type"},
	)

	ReindexErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esmapd",
			Name:      "reindex_errors_total",
			Help:      "Document types whose reindex failed",
		},
		[]string{"doc_type"},
	)

	IndexingDisabled = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "esmapd",
			Name:      "indexing_disabled",
			Help:      "1 while index and delete calls are no-ops",
		},
	)
)

var registerDaemonMetrics sync.Once

// RegisterDaemonMetrics registers the daemon metrics on the default registry. Safe to call more than once.
func RegisterDaemonMetrics() {
	registerDaemonMetrics.Do(func() {
		prometheus.MustRegister(ReindexDocumentsTotal)
		prometheus.MustRegister(ReindexErrorsTotal)
		prometheus.MustRegister(IndexingDisabled)
	})
}

// SetIndexingDisabled mirrors the client's indexing switch.
func SetIndexingDisabled(disabled bool) {
	if disabled {
		IndexingDisabled.Set(1)
		return
	}
	IndexingDisabled.Set(0)
}
