// Package metrics exposes prometheus collectors for cleanup and analytics runs.
//
// Collectors:
//   - assetsweep_runs_total{mode,status}
//   - assetsweep_assets_scanned_total{mode}
//   - assetsweep_assets_deleted_total{mode,dry_run}
//   - assetsweep_assets_skipped_total{mode}
//   - assetsweep_delete_errors_total{mode}
//   - assetsweep_storage_reclaimed_bytes_total{mode}
//   - assetsweep_run_duration_seconds{mode}
//   - assetsweep_collection_assets / assetsweep_collection_waste_bytes (last analytics run)
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	runs            *prometheus.CounterVec
	scanned         *prometheus.CounterVec
	deleted         *prometheus.CounterVec
	skipped         *prometheus.CounterVec
	deleteErrors    *prometheus.CounterVec
	reclaimed       *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	collection      prometheus.Gauge
	collectionWaste prometheus.Gauge
}

// New registers the collectors on reg. Use prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assetsweep_runs_total",
			Help: "Cleanup and analytics invocations by outcome",
		}, []string{"mode", "status"}),
		scanned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assetsweep_assets_scanned_total",
			Help: "Asset records decoded during scans",
		}, []string{"mode"}),
		deleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assetsweep_assets_deleted_total",
			Help: "Assets deleted, or counted as deleted in dry runs",
		}, []string{"mode", "dry_run"}),
		skipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assetsweep_assets_skipped_total",
			Help: "Matching assets left in place because max deletions was reached",
		}, []string{"mode"}),
		deleteErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assetsweep_delete_errors_total",
			Help: "Individual delete operations that failed",
		}, []string{"mode"}),
		reclaimed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assetsweep_storage_reclaimed_bytes_total",
			Help: "Estimated bytes reclaimed by real deletions",
		}, []string{"mode"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assetsweep_run_duration_seconds",
			Help:    "Wall time of a full invocation",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		}, []string{"mode"}),
		collection: f.NewGauge(prometheus.GaugeOpts{
			Name: "assetsweep_collection_assets",
			Help: "Assets seen by the last analytics run",
		}),
		collectionWaste: f.NewGauge(prometheus.GaugeOpts{
			Name: "assetsweep_collection_waste_bytes",
			Help: "Estimated waste reported by the last analytics run",
		}),
	}
}

// RunReport is the slice of a run result the collectors care about.
type RunReport struct {
	Mode      string
	DryRun    bool
	Scanned   int
	Deleted   int
	Skipped   int
	Errors    int
	Reclaimed int64
	Duration  time.Duration
	Failed    bool
}

// ObserveRun is safe on a nil receiver.
func (m *Metrics) ObserveRun(r RunReport) {
	if m == nil {
		return
	}
	status := "success"
	if r.Failed {
		status = "failure"
	}
	m.runs.WithLabelValues(r.Mode, status).Inc()
	m.scanned.WithLabelValues(r.Mode).Add(float64(r.Scanned))
	m.deleted.WithLabelValues(r.Mode, strconv.FormatBool(r.DryRun)).Add(float64(r.Deleted))
	m.skipped.WithLabelValues(r.Mode).Add(float64(r.Skipped))
	m.deleteErrors.WithLabelValues(r.Mode).Add(float64(r.Errors))
	if !r.DryRun {
		m.reclaimed.WithLabelValues(r.Mode).Add(float64(r.Reclaimed))
	}
	m.runDuration.WithLabelValues(r.Mode).Observe(r.Duration.Seconds())
}

func (m *Metrics) ObserveCollection(total int, wasteBytes int64) {
	if m == nil {
		return
	}
	m.collection.Set(float64(total))
	m.collectionWaste.Set(float64(wasteBytes))
}
