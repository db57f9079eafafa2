// Package planner exposes the three engines behind one entry point each and
// chains them into a full planning run.
package planner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"crewopt/internal/fitness"
	"crewopt/internal/genetic"
	"crewopt/internal/metrics"
	"crewopt/internal/simulation"
	"crewopt/internal/stats"
	"crewopt/internal/taguchi"
	"crewopt/internal/workforce"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("crewopt.planner")

// Config gathers the settings of every engine.
type Config struct {
	Seed       int64             `koanf:"seed"`
	Simulation simulation.Config `koanf:"simulation"`
	Genetic    genetic.Options   `koanf:"genetic"`
	Duration   taguchi.Config    `koanf:"duration"`
	Fitness    fitness.Model     `koanf:"fitness"`
}

func DefaultConfig() Config {
	return Config{
		Simulation: simulation.DefaultConfig(),
		Genetic:    genetic.DefaultOptions(),
		Duration:   taguchi.DefaultConfig(),
		Fitness:    fitness.DefaultModel(),
	}
}

// Planner is safe for concurrent use.
type Planner struct {
	cfg     Config
	logger  zerolog.Logger
	metrics *metrics.Manager

	mu    sync.Mutex
	seeds *rand.Rand
	seed  int64
}

type Option func(*Planner)

func WithLogger(l zerolog.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

func WithMetrics(m *metrics.Manager) Option {
	return func(p *Planner) { p.metrics = m }
}

// New builds a planner. A zero Seed draws one from the clock; Seed reports it.
func New(cfg Config, opts ...Option) *Planner {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	p := &Planner{
		cfg:    cfg,
		logger: zerolog.Nop(),
		seeds:  rand.New(rand.NewSource(seed)),
		seed:   seed,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Seed returns the root seed all engine streams derive from.
func (p *Planner) Seed() int64 {
	return p.seed
}

func (p *Planner) nextSeed() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seeds.Int63()
}

// instrument opens a span and returns the function that closes it.
func (p *Planner) instrument(ctx context.Context, engine string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, "planner."+engine, trace.WithAttributes(attrs...))
	start := time.Now()
	return ctx, func(err error) {
		elapsed := time.Since(start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.logger.Warn().Err(err).Str("engine", engine).Dur("elapsed", elapsed).Msg("Engine run failed")
		} else {
			p.logger.Debug().Str("engine", engine).Dur("elapsed", elapsed).Msg("Engine run complete")
		}
		p.metrics.ObserveRun(engine, elapsed, err)
		span.End()
	}
}

// OptimizeDuration derives optimum durations for the catalog.
func (p *Planner) OptimizeDuration(ctx context.Context, catalog []workforce.TaskType, durations []workforce.DurationRecord, levelCount int, snrType stats.SNRType) (res taguchi.Result, err error) {
	ctx, done := p.instrument(ctx, "duration",
		attribute.Int("duration.tasks", len(catalog)),
		attribute.Int("duration.samples", len(durations)),
	)
	defer func() { done(err) }()

	opt := taguchi.NewOptimizer(p.cfg.Duration, taguchi.WithLogger(p.logger))
	opt.SetSeed(p.nextSeed())

	if p.cfg.Duration.PerTask {
		res, err = opt.OptimizePerTask(ctx, catalog, durations, levelCount, snrType)
	} else {
		res, err = opt.Optimize(ctx, catalog, durations, levelCount, snrType)
	}
	if err != nil {
		return taguchi.Result{}, err
	}

	p.metrics.ObserveTrials(string(res.Method), res.Trials*res.Repeats)
	for code, d := range res.Durations {
		if d.Improvement != nil {
			p.metrics.ObserveImprovement(code, *d.Improvement)
		}
	}
	if !res.Exact {
		p.logger.Info().Str("method", string(res.Method)).Msg("Duration optimum is approximate")
	}
	return res, nil
}

// SimulatePerformance forecasts every worker with history.
func (p *Planner) SimulatePerformance(ctx context.Context, performance []workforce.PerformanceRecord, workers []workforce.Worker, iterations int) (out simulation.Outcomes, err error) {
	ctx, done := p.instrument(ctx, "simulation",
		attribute.Int("simulation.workers", len(workers)),
		attribute.Int("simulation.records", len(performance)),
		attribute.Int("simulation.iterations", iterations),
	)
	defer func() { done(err) }()

	eng := simulation.NewEngine(p.cfg.Simulation, simulation.WithLogger(p.logger))
	eng.SetSeed(p.nextSeed())

	out, err = eng.Simulate(ctx, performance, workers, iterations)
	if err != nil {
		return nil, err
	}

	p.metrics.SetSimulatedWorkers(len(out))
	for id, o := range out {
		p.metrics.ObserveWorkerRisk(id, o.RiskScore)
	}
	return out, nil
}

// ConfiguredMutationRate asks OptimizeTeam for the configured mutation rate.
// Zero is a valid rate and disables mutation.
const ConfiguredMutationRate = -1.0

// OptimizeTeam searches for the best team. A zero population size or
// generation count, or a negative mutation rate, falls back to the configured
// options.
func (p *Planner) OptimizeTeam(ctx context.Context, task workforce.TaskType, workers []workforce.Worker, outcomes simulation.Outcomes, critical bool, populationSize, generations int, mutationRate float64) (res genetic.Result, err error) {
	return p.optimizeTeam(ctx, task, workers, outcomes, critical, populationSize, generations, mutationRate, p.nextSeed())
}

func (p *Planner) optimizeTeam(ctx context.Context, task workforce.TaskType, workers []workforce.Worker, outcomes simulation.Outcomes, critical bool, populationSize, generations int, mutationRate float64, seed int64) (res genetic.Result, err error) {
	scenario := genetic.ScenarioFor(critical)
	ctx, done := p.instrument(ctx, "genetic",
		attribute.String("genetic.task", task.Code),
		attribute.String("genetic.scenario", string(scenario)),
		attribute.Int("genetic.workers", len(workers)),
	)
	defer func() { done(err) }()

	opts := p.cfg.Genetic
	if populationSize > 0 {
		opts.PopulationSize = populationSize
	}
	if generations > 0 {
		opts.Generations = generations
	}
	if mutationRate >= 0 {
		opts.MutationRate = mutationRate
	}

	opt := genetic.NewOptimizer(opts, p.cfg.Fitness, genetic.WithLogger(p.logger))
	opt.SetSeed(seed)

	res, err = opt.Optimize(ctx, task, workers, outcomes, critical)
	if err != nil {
		return genetic.Result{}, err
	}
	p.metrics.ObserveTeam(task.Code, string(scenario), res.Fitness, res.TotalShortfall)
	if res.TotalShortfall > 0 {
		p.logger.Info().
			Str("task", task.Code).
			Str("scenario", string(scenario)).
			Int("shortfall", res.TotalShortfall).
			Msg("Team is understaffed")
	}
	return res, nil
}

// ErrNoInput is returned by RunAll when the dataset has no workers or no tasks.
var ErrNoInput = errors.New("planner: dataset has no workers or no tasks")

// Report is the output of a full planning run.
type Report struct {
	RunID      string               `json:"run_id"`
	Seed       int64                `json:"seed"`
	StartedAt  time.Time            `json:"started_at"`
	Elapsed    time.Duration        `json:"elapsed"`
	Simulation simulation.Outcomes  `json:"simulation"`
	Durations  taguchi.Result       `json:"durations"`
	Catalog    []workforce.TaskType `json:"catalog"`
	Teams      []genetic.Result     `json:"teams"`
}

// Team returns the team result for a task and scenario.
func (r Report) Team(code string, scenario genetic.Scenario) (genetic.Result, bool) {
	for _, t := range r.Teams {
		if t.TaskCode == code && t.Scenario == scenario {
			return t, true
		}
	}
	return genetic.Result{}, false
}

// RunAll simulates performance, optimizes durations, then searches teams for
// every task in both scenarios. Missing performance history is not fatal:
// teams are then scored without forecasts.
func (p *Planner) RunAll(ctx context.Context, ds workforce.Dataset) (rep Report, err error) {
	if len(ds.Workers) == 0 || len(ds.Tasks) == 0 {
		return Report{}, ErrNoInput
	}
	if err := ds.Validate(); err != nil {
		return Report{}, err
	}

	rep = Report{
		RunID:     uuid.NewString(),
		Seed:      p.seed,
		StartedAt: time.Now(),
	}
	ctx, done := p.instrument(ctx, "run_all", attribute.String("run.id", rep.RunID))
	defer func() { done(err) }()

	logger := p.logger.With().Str("run_id", rep.RunID).Logger()
	logger.Info().
		Int("workers", len(ds.Workers)).
		Int("tasks", len(ds.Tasks)).
		Int64("seed", p.seed).
		Msg("Planning run started")

	rep.Simulation, err = p.SimulatePerformance(ctx, ds.Performance, ds.Workers, 0)
	if errors.Is(err, simulation.ErrNoHistory) {
		logger.Warn().Msg("No performance history; teams will be scored without forecasts")
		err = nil
	}
	if err != nil {
		return Report{}, fmt.Errorf("simulation: %w", err)
	}

	rep.Durations, err = p.OptimizeDuration(ctx, ds.Tasks, ds.Durations, 0, "")
	if err != nil {
		return Report{}, fmt.Errorf("durations: %w", err)
	}

	rep.Catalog = make([]workforce.TaskType, len(ds.Tasks))
	for i, t := range ds.Tasks {
		if d, ok := rep.Durations.Get(t.Code); ok {
			t.EstimatedDuration = d.Duration
		}
		rep.Catalog[i] = t
	}

	rep.Teams, err = p.optimizeAllTeams(ctx, ds, rep.Simulation)
	if err != nil {
		return Report{}, fmt.Errorf("teams: %w", err)
	}

	rep.Elapsed = time.Since(rep.StartedAt)
	logger.Info().Dur("elapsed", rep.Elapsed).Int("teams", len(rep.Teams)).Msg("Planning run finished")
	return rep, nil
}
