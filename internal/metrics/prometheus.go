// Package metrics records engine activity as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ErrNoTextfilePath = errors.New("metrics: textfile path is empty")

// Manager owns a private registry. A nil *Manager is valid and records nothing.
type Manager struct {
	namespace string
	subsystem string
	buckets   []float64
	registry  *prometheus.Registry

	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	workers       prometheus.Gauge
	workerRisk    *prometheus.GaugeVec
	teamFitness   *prometheus.GaugeVec
	teamShortfall *prometheus.GaugeVec
	trials        *prometheus.CounterVec
	improvement   *prometheus.GaugeVec
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "crewopt",
		subsystem: "engine",
		buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Engine invocations by engine and outcome",
	}, []string{"engine", "status"})

	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "Wall time of engine invocations",
		Buckets:   m.buckets,
	}, []string{"engine"})

	m.workers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulated_workers",
		Help:      "Workers with a forecast in the last simulation",
	})

	m.workerRisk = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_risk_score",
		Help:      "Simulated probability of unsatisfactory performance per worker",
	}, []string{"worker"})

	m.teamFitness = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "team_fitness",
		Help:      "Best team fitness per task and scenario",
	}, []string{"task", "scenario"})

	m.teamShortfall = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "team_shortfall",
		Help:      "Unfilled role slots of the best team per task and scenario",
	}, []string{"task", "scenario"})

	m.trials = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duration_trials_total",
		Help:      "Duration experiments evaluated by design method",
	}, []string{"method"})

	m.improvement = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duration_improvement_percent",
		Help:      "Optimized duration improvement over the historical mean",
	}, []string{"task"})
}

// Registry exposes the underlying registry for gathering.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRun records one engine invocation.
func (m *Manager) ObserveRun(engine string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runs.WithLabelValues(engine, status).Inc()
	m.runDuration.WithLabelValues(engine).Observe(elapsed.Seconds())
}

// ObserveWorkerRisk records a worker forecast.
func (m *Manager) ObserveWorkerRisk(workerID string, risk float64) {
	if m == nil {
		return
	}
	m.workerRisk.WithLabelValues(workerID).Set(risk)
}

// SetSimulatedWorkers records how many workers got a forecast.
func (m *Manager) SetSimulatedWorkers(n int) {
	if m == nil {
		return
	}
	m.workers.Set(float64(n))
}

// ObserveTeam records the outcome of a team search.
func (m *Manager) ObserveTeam(task, scenario string, fitness float64, shortfall int) {
	if m == nil {
		return
	}
	m.teamFitness.WithLabelValues(task, scenario).Set(fitness)
	m.teamShortfall.WithLabelValues(task, scenario).Set(float64(shortfall))
}

// ObserveTrials counts evaluated duration experiments.
func (m *Manager) ObserveTrials(method string, trials int) {
	if m == nil {
		return
	}
	m.trials.WithLabelValues(method).Add(float64(trials))
}

// ObserveImprovement records a task's duration improvement.
func (m *Manager) ObserveImprovement(task string, pct float64) {
	if m == nil {
		return
	}
	m.improvement.WithLabelValues(task).Set(pct)
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *Manager) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if path == "" {
		return ErrNoTextfilePath
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
