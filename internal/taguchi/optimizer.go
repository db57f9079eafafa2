// Package taguchi derives robust task durations from noisy history with
// design-of-experiments trials scored by signal-to-noise ratio.
package taguchi

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"crewopt/internal/stats"
	"crewopt/internal/workforce"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const cancelCheckInterval = 4096

// Config tunes the experiment.
type Config struct {
	LevelCount        int     `koanf:"level_count" validate:"oneof=3 5"`
	SNRType           string  `koanf:"snr_type" validate:"omitempty,oneof=smaller larger nominal"`
	Repeats           int     `koanf:"repeats" validate:"gte=1"`
	RandomSamples     int     `koanf:"random_samples" validate:"gte=1"`
	FactorialCeiling  int64   `koanf:"factorial_ceiling" validate:"gte=1"`
	Confidence        float64 `koanf:"confidence" validate:"gt=0,lt=1"`
	DisableOrthogonal bool    `koanf:"disable_orthogonal"`
	PerTask           bool    `koanf:"per_task"`
	Parallelism       int     `koanf:"parallelism" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		LevelCount:       3,
		SNRType:          string(stats.SmallerIsBetter),
		Repeats:          5,
		RandomSamples:    10000,
		FactorialCeiling: 1_000_000,
		Confidence:       0.95,
	}
}

// OptimizedDuration is the recommendation for one task type.
type OptimizedDuration struct {
	TaskCode    string           `json:"task_code"`
	Duration    float64          `json:"duration"`
	Levels      []float64        `json:"levels"`
	Method      Method           `json:"method"`
	Historical  *HistoricalStats `json:"historical,omitempty"`
	Improvement *float64         `json:"improvement_pct,omitempty"`
}

// Effect is the mean SNR observed at each level of one parameter.
type Effect struct {
	TaskCode string    `json:"task_code"`
	LevelSNR []float64 `json:"level_snr"`
	Best     int       `json:"best_level"`
}

// Result is the output of one optimization.
type Result struct {
	Method     Method                       `json:"method"`
	Exact      bool                         `json:"exact"`
	LevelCount int                          `json:"level_count"`
	SNRType    stats.SNRType                `json:"snr_type"`
	Trials     int                          `json:"trials"`
	Repeats    int                          `json:"repeats"`
	BestSNR    float64                      `json:"best_snr"`
	Durations  map[string]OptimizedDuration `json:"durations"`
	Effects    []Effect                     `json:"effects"`
	Order      []string                     `json:"order"`
}

// Get returns the recommendation for a task.
func (r Result) Get(code string) (OptimizedDuration, bool) {
	d, ok := r.Durations[code]
	return d, ok
}

type Optimizer struct {
	cfg    Config
	rng    *rand.Rand
	logger zerolog.Logger
}

type Option func(*Optimizer)

func WithLogger(l zerolog.Logger) Option {
	return func(o *Optimizer) { o.logger = l }
}

func WithRand(r *rand.Rand) Option {
	return func(o *Optimizer) { o.rng = r }
}

func NewOptimizer(cfg Config, opts ...Option) *Optimizer {
	o := &Optimizer{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetSeed sets the random seed for deterministic results.
func (o *Optimizer) SetSeed(seed int64) {
	o.rng = rand.New(rand.NewSource(seed))
}

// parameter is one task treated as an experimental factor.
type parameter struct {
	task   workforce.TaskType
	levels []float64
	hist   *HistoricalStats
}

// Optimize treats every catalog task as one factor of a single experiment.
// levelCount and snrType override the configured values when non-zero.
func (o *Optimizer) Optimize(ctx context.Context, catalog []workforce.TaskType, durations []workforce.DurationRecord, levelCount int, snrType stats.SNRType) (Result, error) {
	params, levelCount, snrType, err := o.prepare(catalog, durations, levelCount, snrType)
	if err != nil {
		return Result{}, err
	}
	return o.run(ctx, params, levelCount, snrType, o.rng)
}

// OptimizePerTask runs one single-factor experiment per task. Each task gets
// its own random stream; tasks run concurrently.
func (o *Optimizer) OptimizePerTask(ctx context.Context, catalog []workforce.TaskType, durations []workforce.DurationRecord, levelCount int, snrType stats.SNRType) (Result, error) {
	params, levelCount, snrType, err := o.prepare(catalog, durations, levelCount, snrType)
	if err != nil {
		return Result{}, err
	}

	seeds := make([]int64, len(params))
	for i := range seeds {
		seeds[i] = o.rng.Int63()
	}

	parts := make([]Result, len(params))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism())
	for i, p := range params {
		g.Go(func() error {
			res, err := o.run(gCtx, []parameter{p}, levelCount, snrType, rand.New(rand.NewSource(seeds[i])))
			if err != nil {
				return fmt.Errorf("task %s: %w", p.task.Code, err)
			}
			parts[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	merged := Result{
		Method:     parts[0].Method,
		Exact:      true,
		LevelCount: levelCount,
		SNRType:    snrType,
		Durations:  make(map[string]OptimizedDuration, len(params)),
	}
	for _, part := range parts {
		merged.Trials += part.Trials
		merged.Repeats = max(merged.Repeats, part.Repeats)
		merged.BestSNR += part.BestSNR / float64(len(parts))
		merged.Exact = merged.Exact && part.Exact
		for code, d := range part.Durations {
			merged.Durations[code] = d
		}
		merged.Effects = append(merged.Effects, part.Effects...)
		merged.Order = append(merged.Order, part.Order...)
	}
	return merged, nil
}

func (o *Optimizer) parallelism() int {
	if o.cfg.Parallelism > 0 {
		return o.cfg.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

func (o *Optimizer) prepare(catalog []workforce.TaskType, durations []workforce.DurationRecord, levelCount int, snrType stats.SNRType) ([]parameter, int, stats.SNRType, error) {
	if len(catalog) == 0 {
		return nil, 0, "", ErrNoTasks
	}
	if levelCount == 0 {
		levelCount = o.cfg.LevelCount
	}
	if levelCount != 3 && levelCount != 5 {
		return nil, 0, "", fmt.Errorf("%w: got %d", ErrInvalidLevelCount, levelCount)
	}
	if snrType == "" {
		snrType = stats.SNRType(o.cfg.SNRType)
	}
	snrType, err := stats.ParseSNRType(string(snrType))
	if err != nil {
		return nil, 0, "", err
	}

	history := workforce.DurationsByTask(durations)
	seen := make(map[string]bool, len(catalog))
	params := make([]parameter, 0, len(catalog))
	for _, task := range catalog {
		if seen[task.Code] {
			return nil, 0, "", fmt.Errorf("%w: %s", ErrDuplicateTask, task.Code)
		}
		seen[task.Code] = true

		p := parameter{task: task}
		if h, ok := AnalyzeHistory(history[task.Code], o.cfg.Confidence); ok {
			p.hist = &h
		}
		p.levels, err = Levels(task, p.hist, levelCount)
		if err != nil {
			return nil, 0, "", err
		}
		params = append(params, p)
	}
	return params, levelCount, snrType, nil
}

// repeatOutcome is what a single repeat contributes to the average.
type repeatOutcome struct {
	best    []int
	bestSNR float64
	trials  int
	sums    [][]float64
	counts  [][]int
}

func (o *Optimizer) run(ctx context.Context, params []parameter, levelCount int, snrType stats.SNRType, rng *rand.Rand) (Result, error) {
	method := chooseMethod(levelCount, len(params), o.cfg.FactorialCeiling, !o.cfg.DisableOrthogonal)

	// Deterministic designs give the same answer every time.
	repeats := o.cfg.Repeats
	if method.Exact() {
		repeats = 1
	}

	seeds := make([]int64, repeats)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	outcomes := make([]repeatOutcome, repeats)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism())
	for i := range repeats {
		g.Go(func() error {
			out, err := o.experiment(gCtx, method, params, levelCount, snrType, rand.New(rand.NewSource(seeds[i])))
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{
		Method:     method,
		Exact:      method.Exact(),
		LevelCount: levelCount,
		SNRType:    snrType,
		Trials:     outcomes[0].trials,
		Repeats:    repeats,
		Durations:  make(map[string]OptimizedDuration, len(params)),
	}

	for _, out := range outcomes {
		res.BestSNR += out.bestSNR / float64(repeats)
	}

	for j, p := range params {
		total := 0.0
		for _, out := range outcomes {
			total += p.levels[out.best[j]]
		}
		d := OptimizedDuration{
			TaskCode:   p.task.Code,
			Duration:   total / float64(repeats),
			Levels:     p.levels,
			Method:     method,
			Historical: p.hist,
		}
		if p.hist != nil && p.hist.Mean != 0 {
			imp := (p.hist.Mean - d.Duration) / p.hist.Mean * 100
			d.Improvement = &imp
		}
		res.Durations[p.task.Code] = d
		res.Order = append(res.Order, p.task.Code)
		res.Effects = append(res.Effects, mergeEffects(p.task.Code, j, levelCount, outcomes))
	}

	o.logger.Debug().
		Str("method", string(method)).
		Int("params", len(params)).
		Int("trials", res.Trials).
		Int("repeats", repeats).
		Msg("Duration optimization finished")

	return res, nil
}

func mergeEffects(code string, param, levelCount int, outcomes []repeatOutcome) Effect {
	e := Effect{TaskCode: code, LevelSNR: make([]float64, levelCount)}
	for l := range levelCount {
		sum, n := 0.0, 0
		for _, out := range outcomes {
			sum += out.sums[param][l]
			n += out.counts[param][l]
		}
		if n > 0 {
			e.LevelSNR[l] = sum / float64(n)
		}
		if e.LevelSNR[l] > e.LevelSNR[e.Best] {
			e.Best = l
		}
	}
	return e
}

// experiment evaluates one full design and keeps the highest-SNR trial.
func (o *Optimizer) experiment(ctx context.Context, method Method, params []parameter, levelCount int, snrType stats.SNRType, rng *rand.Rand) (repeatOutcome, error) {
	if err := ctx.Err(); err != nil {
		return repeatOutcome{}, err
	}

	out := repeatOutcome{
		best:   make([]int, len(params)),
		sums:   make([][]float64, len(params)),
		counts: make([][]int, len(params)),
	}
	for j := range params {
		out.sums[j] = make([]float64, levelCount)
		out.counts[j] = make([]int, levelCount)
	}

	first := true
	signal := make([]float64, 1)
	evaluate := func(row []int) {
		total := 0.0
		for j, l := range row {
			total += params[j].levels[l]
		}
		signal[0] = total
		snr := stats.SNR(signal, snrType)

		for j, l := range row {
			out.sums[j][l] += snr
			out.counts[j][l]++
		}
		if first || snr > out.bestSNR {
			first = false
			out.bestSNR = snr
			copy(out.best, row)
		}
		out.trials++
	}

	switch {
	case method.Orthogonal():
		for _, row := range orthogonalArray(method, len(params)) {
			evaluate(row)
		}

	case method == MethodFullFactorial:
		row := make([]int, len(params))
		for {
			if out.trials%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return out, err
				}
			}
			evaluate(row)
			if !advance(row, levelCount) {
				break
			}
		}

	default:
		row := make([]int, len(params))
		for i := range o.cfg.RandomSamples {
			if i%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return out, err
				}
			}
			for j := range row {
				row[j] = rng.Intn(levelCount)
			}
			evaluate(row)
		}
	}
	return out, nil
}

// advance steps an odometer over level indices. It returns false after the last combination.
func advance(row []int, levels int) bool {
	for i := len(row) - 1; i >= 0; i-- {
		row[i]++
		if row[i] < levels {
			return true
		}
		row[i] = 0
	}
	return false
}
