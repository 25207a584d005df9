package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type importMetrics struct {
	runsTotal     *prometheus.CounterVec
	recordsTotal  *prometheus.CounterVec
	linksTotal    *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastSuccessAt prometheus.Gauge
}

var importMetricsSingleton = sync.OnceValue(func() *importMetrics {
	return &importMetrics{
		runsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registry",
			Subsystem: "dataset_import",
			Name:      "runs_total",
			Help:      "Total number of committed dataset imports.",
		}, []string{"trigger"}),
		recordsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registry",
			Subsystem: "dataset_import",
			Name:      "records_total",
			Help:      "Faculty and paper records processed by committed imports.",
		}, []string{"entity", "result"}),
		linksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registry",
			Subsystem: "dataset_import",
			Name:      "links_total",
			Help:      "Authorship link attempts by strategy.",
		}, []string{"strategy"}),
		runDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "registry",
			Subsystem: "dataset_import",
			Name:      "duration_seconds",
			Help:      "Wall time of committed dataset imports.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}),
		lastSuccessAt: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "registry",
			Subsystem: "dataset_import",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last committed dataset import.",
		}),
	}
})

func recordImportMetrics(trigger string, summary *DatasetImportSummary) {
	if summary == nil {
		return
	}
	if trigger == "" {
		trigger = "unknown"
	}
	m := importMetricsSingleton()
	m.runsTotal.WithLabelValues(trigger).Inc()
	m.recordsTotal.WithLabelValues("faculty", "created").Add(float64(summary.FacultyCreated))
	m.recordsTotal.WithLabelValues("faculty", "updated").Add(float64(summary.FacultyUpdated))
	m.recordsTotal.WithLabelValues("faculty", "skipped").Add(float64(summary.FacultySkipped))
	m.recordsTotal.WithLabelValues("paper", "created").Add(float64(summary.PapersCreated))
	m.recordsTotal.WithLabelValues("paper", "updated").Add(float64(summary.PapersUpdated))
	m.recordsTotal.WithLabelValues("paper", "skipped").Add(float64(summary.PapersSkipped))
	m.linksTotal.WithLabelValues("doi").Add(float64(summary.DOILinkAttempts))
	m.linksTotal.WithLabelValues("name").Add(float64(summary.NameLinkAttempts))
	m.runDuration.Observe(summary.Duration.Seconds())
	m.lastSuccessAt.SetToCurrentTime()
}
