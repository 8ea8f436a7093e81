package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the solver metrics of one process. A nil *Registry records
// nothing, so callers never need to check.
type Registry struct {
	PointsTotal      *prometheus.CounterVec
	NewtonIterations *prometheus.HistogramVec
	GminSteppingRuns prometheus.Counter
	RunDuration      *prometheus.HistogramVec
	Unknowns         prometheus.Gauge

	registry *prometheus.Registry
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.PointsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "spice_points_total",
			Help: "Analysis points solved, by analysis and outcome",
		},
		[]string{"analysis", "status"},
	)

	r.NewtonIterations = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spice_newton_iterations",
			Help:    "Newton iterations needed per analysis point",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"analysis"},
	)

	r.GminSteppingRuns = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "spice_gmin_stepping_total",
			Help: "Operating points that fell back to gmin stepping",
		},
	)

	r.RunDuration = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spice_run_duration_seconds",
			Help:    "Wall time of a whole analysis run",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60},
		},
		[]string{"analysis"},
	)

	r.Unknowns = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "spice_unknowns",
			Help: "Size of the last MNA system",
		},
	)

	return r
}

func (r *Registry) Prometheus() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordPoint counts one solved or failed point. iterations is ignored for
// failed points.
func (r *Registry) RecordPoint(analysis string, ok bool, iterations int) {
	if r == nil {
		return
	}
	r.PointsTotal.WithLabelValues(analysis, status(ok)).Inc()
	if ok && iterations > 0 {
		r.NewtonIterations.WithLabelValues(analysis).Observe(float64(iterations))
	}
}

func (r *Registry) RecordGminStepping() {
	if r == nil {
		return
	}
	r.GminSteppingRuns.Inc()
}

func (r *Registry) RecordRun(analysis string, unknowns int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.Unknowns.Set(float64(unknowns))
	r.RunDuration.WithLabelValues(analysis).Observe(elapsed.Seconds())
}

// WriteTextfile dumps every metric in the Prometheus text format, for the
// node exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
