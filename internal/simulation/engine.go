package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"time"

	"crewopt/internal/stats"
	"crewopt/internal/workforce"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Config tunes the Monte-Carlo forecast.
type Config struct {
	Iterations     int     `koanf:"iterations" validate:"gt=0"`
	RecentWindow   int     `koanf:"recent_window" validate:"gt=0"`
	RecentWeight   float64 `koanf:"recent_weight" validate:"gte=0,lte=1"`
	MinVariance    float64 `koanf:"min_variance" validate:"gt=0"`
	RiskThreshold  float64 `koanf:"risk_threshold" validate:"gt=0,lte=1"`
	DelayThreshold float64 `koanf:"delay_threshold" validate:"gt=0,ltefield=RiskThreshold"`
	Parallelism    int     `koanf:"parallelism" validate:"gte=0"`
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		Iterations:     10000,
		RecentWindow:   25,
		RecentWeight:   0.6,
		MinVariance:    0.01,
		RiskThreshold:  0.5,
		DelayThreshold: 0.3,
	}
}

// Engine performs the Monte-Carlo simulation.
type Engine struct {
	cfg    Config
	rng    *rand.Rand
	logger zerolog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger attaches a logger. Engines are silent by default.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRand injects the random source.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetSeed sets the random seed for deterministic results.
func (e *Engine) SetSeed(seed int64) {
	e.rng = rand.New(rand.NewSource(seed))
}

// Config returns the engine settings.
func (e *Engine) Config() Config {
	return e.cfg
}

// Simulate forecasts every worker with history. A zero iteration count uses
// the configured default.
func (e *Engine) Simulate(ctx context.Context, history []workforce.PerformanceRecord, workers []workforce.Worker, iterations int) (Outcomes, error) {
	if len(workers) == 0 {
		return nil, ErrNoWorkers
	}
	if len(history) == 0 {
		return nil, ErrNoHistory
	}
	if iterations == 0 {
		iterations = e.cfg.Iterations
	}
	if iterations < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidIterations, iterations)
	}

	idx := indexHistory(history)

	// Seeds are drawn up front in worker order so scheduling cannot change results.
	seeds := make([]int64, len(workers))
	for i := range workers {
		seeds[i] = e.rng.Int63()
	}

	results := make([]*Outcome, len(workers))

	g, gCtx := errgroup.WithContext(ctx)
	limit := e.cfg.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for i, w := range workers {
		profiles := idx.profiles(w.ID, e.cfg)
		if len(profiles) == 0 {
			continue
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			out := e.simulateWorker(rng, w.ID, profiles, iterations)
			results[i] = &out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	outcomes := make(Outcomes, len(workers))
	for _, r := range results {
		if r != nil {
			outcomes[r.WorkerID] = *r
		}
	}

	e.logger.Debug().
		Int("workers", len(workers)).
		Int("simulated", len(outcomes)).
		Int("iterations", iterations).
		Msg("Performance simulation finished")

	return outcomes, nil
}

func (e *Engine) simulateWorker(rng *rand.Rand, workerID string, profiles []Profile, iterations int) Outcome {
	pooled := make([]float64, 0, iterations*len(profiles))
	tasks := make([]TaskOutcome, 0, len(profiles))

	for _, p := range profiles {
		draws := e.draw(rng, p, iterations)
		risk, delay := e.shortfallRates(draws)
		tasks = append(tasks, TaskOutcome{
			TaskCode:         p.TaskCode,
			Mean:             stats.Mean(draws),
			Risk:             risk,
			DelayProbability: delay,
		})
		pooled = append(pooled, draws...)
	}

	risk, delay := e.shortfallRates(pooled)
	variance := stats.Variance(pooled)
	q := stats.Quantiles(pooled, 0.25, 0.75)

	return Outcome{
		WorkerID:         workerID,
		MeanPerformance:  stats.Mean(pooled),
		RiskScore:        risk,
		DelayProbability: delay,
		Stability:        1 - min(1, 2*variance),
		Tasks:            tasks,
		Distribution: Distribution{
			Min: stats.Min(pooled),
			Max: stats.Max(pooled),
			Std: stats.StdDev(pooled),
			Q25: q[0],
			Q75: q[1],
			P50: stats.Median(pooled),
		},
		Profiles: profiles,
	}
}

// draw samples N(baseline+trend, sqrt(max(variance, floor))) clipped to [0,1].
func (e *Engine) draw(rng *rand.Rand, p Profile, n int) []float64 {
	center := p.Center()
	spread := max(p.Variance, e.cfg.MinVariance)
	sd := math.Sqrt(spread)

	out := make([]float64, n)
	for i := range out {
		out[i] = stats.Clamp(center+rng.NormFloat64()*sd, 0, 1)
	}
	return out
}

func (e *Engine) shortfallRates(draws []float64) (risk, delay float64) {
	if len(draws) == 0 {
		return 0, 0
	}
	var below, critical int
	for _, v := range draws {
		if v < e.cfg.RiskThreshold {
			below++
		}
		if v < e.cfg.DelayThreshold {
			critical++
		}
	}
	n := float64(len(draws))
	return float64(below) / n, float64(critical) / n
}
