package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are observational only; no control decision reads them.
type Metrics struct {
	FilesProcessed   prometheus.Counter
	FilesFailed      *prometheus.CounterVec
	RecordsExtracted prometheus.Counter
	RecordsHeld      prometheus.Gauge
	BatchDuration    prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		FilesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "csvcenter_files_processed_total",
			Help: "Total number of uploaded files attempted",
		}),
		FilesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "csvcenter_files_failed_total",
			Help: "Total number of files skipped, by failing stage",
		}, []string{"stage"}),
		RecordsExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "csvcenter_records_extracted_total",
			Help: "Total number of records appended from successful extractions",
		}),
		RecordsHeld: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "csvcenter_records_held",
			Help: "Current number of records in the store",
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "csvcenter_batch_duration_seconds",
			Help:    "Wall-clock duration of extraction batches",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

func (m *Metrics) FileProcessed() {
	m.FilesProcessed.Inc()
}

func (m *Metrics) FileFailed(stage string) {
	m.FilesFailed.WithLabelValues(stage).Inc()
}

func (m *Metrics) RecordsAdded(n int) {
	m.RecordsExtracted.Add(float64(n))
}

func (m *Metrics) SetRecordsHeld(n int) {
	m.RecordsHeld.Set(float64(n))
}

func (m *Metrics) ObserveBatch(seconds float64) {
	m.BatchDuration.Observe(seconds)
}
