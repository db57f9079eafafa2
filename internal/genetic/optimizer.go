// Package genetic evolves worker-to-role team compositions for one task.
package genetic

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"slices"
	"sort"
	"time"

	"crewopt/internal/fitness"
	"crewopt/internal/simulation"
	"crewopt/internal/workforce"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Scenario selects the fitness weighting.
type Scenario string

const (
	ScenarioNormal   Scenario = "normal"
	ScenarioCritical Scenario = "critical"
)

func ScenarioFor(critical bool) Scenario {
	if critical {
		return ScenarioCritical
	}
	return ScenarioNormal
}

// Options control the search.
type Options struct {
	PopulationSize int     `koanf:"population_size" validate:"gte=2"`
	Generations    int     `koanf:"generations" validate:"gte=1"`
	MutationRate   float64 `koanf:"mutation_rate" validate:"gte=0,lte=1"`
	TournamentSize int     `koanf:"tournament_size" validate:"gte=1"`
	Parallelism    int     `koanf:"parallelism" validate:"gte=0"`
}

func DefaultOptions() Options {
	return Options{
		PopulationSize: 50,
		Generations:    100,
		MutationRate:   0.1,
		TournamentSize: 3,
	}
}

func (o Options) validate() error {
	switch {
	case o.PopulationSize < 2:
		return fmt.Errorf("%w: population size %d", ErrInvalidOptions, o.PopulationSize)
	case o.Generations < 1:
		return fmt.Errorf("%w: generations %d", ErrInvalidOptions, o.Generations)
	case o.MutationRate < 0 || o.MutationRate > 1:
		return fmt.Errorf("%w: mutation rate %v", ErrInvalidOptions, o.MutationRate)
	case o.TournamentSize < 1:
		return fmt.Errorf("%w: tournament size %d", ErrInvalidOptions, o.TournamentSize)
	}
	return nil
}

// Observer sees every evaluated population. It runs on the optimizer's goroutine.
type Observer func(generation int, population []Team, scores []float64)

// Assignment is one worker placed in a role with its individual score.
type Assignment struct {
	WorkerID string              `json:"worker_id"`
	Name     string              `json:"name,omitempty"`
	Role     workforce.Role      `json:"role"`
	Tier     workforce.SkillTier `json:"tier"`
	Score    float64             `json:"score"`
}

// Result is the output of one (task, scenario) run.
type Result struct {
	TaskCode       string                 `json:"task_code"`
	Scenario       Scenario               `json:"scenario"`
	Team           Team                   `json:"team"`
	Fitness        float64                `json:"fitness"`
	Assigned       []Assignment           `json:"assigned"`
	Alternates     []Assignment           `json:"alternates"`
	Shortfall      map[workforce.Role]int `json:"shortfall"`
	TotalShortfall int                    `json:"total_shortfall"`
	Generations    int                    `json:"generations"`
	MutationRate   float64                `json:"mutation_rate"`
}

// Optimizer runs the genetic search.
type Optimizer struct {
	opts     Options
	model    fitness.Model
	rng      *rand.Rand
	logger   zerolog.Logger
	observer Observer
}

type Option func(*Optimizer)

func WithLogger(l zerolog.Logger) Option {
	return func(o *Optimizer) { o.logger = l }
}

func WithRand(r *rand.Rand) Option {
	return func(o *Optimizer) { o.rng = r }
}

func WithObserver(fn Observer) Option {
	return func(o *Optimizer) { o.observer = fn }
}

func NewOptimizer(opts Options, model fitness.Model, options ...Option) *Optimizer {
	o := &Optimizer{
		opts:   opts,
		model:  model,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: zerolog.Nop(),
	}
	for _, fn := range options {
		fn(o)
	}
	return o
}

// SetSeed sets the random seed for deterministic results.
func (o *Optimizer) SetSeed(seed int64) {
	o.rng = rand.New(rand.NewSource(seed))
}

// run carries the per-call state of one search.
type run struct {
	req    workforce.Requirement
	pools  map[workforce.SkillTier][]string
	scores map[string]float64
	rng    *rand.Rand
}

// Optimize searches for the best team for task. outcomes may be nil.
// Under-staffing is reported through Shortfall, never as an error.
func (o *Optimizer) Optimize(ctx context.Context, task workforce.TaskType, workers []workforce.Worker, outcomes simulation.Outcomes, critical bool) (Result, error) {
	if len(workers) == 0 {
		return Result{}, ErrNoWorkers
	}
	if err := o.opts.validate(); err != nil {
		return Result{}, err
	}
	if unique := uniqueWorkers(workers); len(unique) < len(workers) {
		o.logger.Warn().
			Str("task", task.Code).
			Int("duplicates", len(workers)-len(unique)).
			Msg("Ignoring repeated worker IDs")
		workers = unique
	}

	r := &run{
		req:    task.Requirement,
		pools:  make(map[workforce.SkillTier][]string, 3),
		scores: make(map[string]float64, len(workers)),
		rng:    o.rng,
	}
	for _, w := range workers {
		r.pools[w.Tier] = append(r.pools[w.Tier], w.ID)
		var outcome *simulation.Outcome
		if outcomes != nil {
			outcome, _ = outcomes.Get(w.ID)
		}
		r.scores[w.ID] = o.model.Score(w, task, outcome, critical)
	}

	population := make([]Team, o.opts.PopulationSize)
	for i := range population {
		population[i] = r.randomTeam()
	}

	var best Team
	bestFitness := -1.0

	track := func(gen int, pop []Team) ([]float64, error) {
		scores, err := o.evaluate(ctx, pop, r)
		if err != nil {
			return nil, err
		}
		for i, s := range scores {
			if s > bestFitness {
				bestFitness = s
				best = pop[i].Clone()
			}
		}
		if o.observer != nil {
			o.observer(gen, pop, scores)
		}
		return scores, nil
	}

	for gen := 0; gen < o.opts.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		scores, err := track(gen, population)
		if err != nil {
			return Result{}, err
		}

		parents := r.selectParents(population, scores, o.opts.PopulationSize, o.opts.TournamentSize)
		population = o.breed(parents, r)
	}

	if _, err := track(o.opts.Generations, population); err != nil {
		return Result{}, err
	}

	res := o.finalize(task, workers, best, bestFitness, r, critical)

	o.logger.Debug().
		Str("task", task.Code).
		Str("scenario", string(res.Scenario)).
		Float64("fitness", res.Fitness).
		Int("shortfall", res.TotalShortfall).
		Msg("Team optimization finished")

	return res, nil
}

// evaluate scores a population concurrently in contiguous chunks.
func (o *Optimizer) evaluate(ctx context.Context, pop []Team, r *run) ([]float64, error) {
	scores := make([]float64, len(pop))

	workers := o.opts.Parallelism
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (len(pop) + workers - 1) / workers

	g, gCtx := errgroup.WithContext(ctx)
	for start := 0; start < len(pop); start += chunk {
		end := min(start+chunk, len(pop))
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				scores[i] = TeamFitness(pop[i], r.req, r.scores)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

func (o *Optimizer) breed(parents []Team, r *run) []Team {
	size := o.opts.PopulationSize
	next := make([]Team, 0, size+1)
	for i := 0; len(next) < size; i += 2 {
		p1 := parents[i%len(parents)]
		p2 := parents[(i+1)%len(parents)]

		c1 := r.crossover(p1, p2)
		c2 := r.crossover(p1, p2)
		if r.rng.Float64() < o.opts.MutationRate {
			r.mutate(c1)
		}
		if r.rng.Float64() < o.opts.MutationRate {
			r.mutate(c2)
		}
		next = append(next, c1, c2)
	}
	return next[:size]
}

func (r *run) randomTeam() Team {
	t := make(Team, 3)
	for _, role := range workforce.AllRoles {
		need := r.req.Count(role)
		if need == 0 {
			continue
		}
		pool := r.pools[role.Tier()]
		if len(pool) >= need {
			t[role] = sample(r.rng, pool, need)
		} else {
			t[role] = slices.Clone(pool)
		}
	}
	return t
}

// selectParents runs n independent tournaments. Competitors within a
// tournament are distinct; the same individual may win several tournaments.
func (r *run) selectParents(pop []Team, scores []float64, n, k int) []Team {
	k = min(k, len(pop))
	parents := make([]Team, n)
	for i := range parents {
		idx := r.rng.Perm(len(pop))[:k]
		winner := idx[0]
		for _, c := range idx[1:] {
			if scores[c] > scores[winner] {
				winner = c
			}
		}
		parents[i] = pop[winner]
	}
	return parents
}

func (r *run) crossover(p1, p2 Team) Team {
	child := make(Team, len(p1))
	for _, role := range p1.Roles() {
		union := slices.Clone(p1[role])
		for _, id := range p2[role] {
			if !slices.Contains(union, id) {
				union = append(union, id)
			}
		}
		need := len(p1[role])
		if len(union) >= need {
			child[role] = sample(r.rng, union, need)
		} else {
			child[role] = union
		}
	}
	return child
}

// mutate swaps one member for a same-tier worker not already in that role.
func (r *run) mutate(t Team) {
	roles := t.Roles()
	if len(roles) == 0 {
		return
	}
	role := roles[r.rng.Intn(len(roles))]
	members := t[role]
	if len(members) == 0 {
		return
	}
	pos := r.rng.Intn(len(members))

	var candidates []string
	for _, id := range r.pools[role.Tier()] {
		if !slices.Contains(members, id) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return
	}
	members[pos] = candidates[r.rng.Intn(len(candidates))]
}

func (o *Optimizer) finalize(task workforce.TaskType, workers []workforce.Worker, best Team, bestFitness float64, r *run, critical bool) Result {
	byID := make(map[string]workforce.Worker, len(workers))
	for _, w := range workers {
		byID[w.ID] = w
	}

	res := Result{
		TaskCode:     task.Code,
		Scenario:     ScenarioFor(critical),
		Team:         best,
		Fitness:      bestFitness,
		Generations:  o.opts.Generations,
		MutationRate: o.opts.MutationRate,
	}
	res.Shortfall, res.TotalShortfall = best.Shortfall(task.Requirement)

	for _, role := range workforce.AllRoles {
		for _, id := range best[role] {
			w := byID[id]
			res.Assigned = append(res.Assigned, Assignment{
				WorkerID: id, Name: w.Name, Role: role, Tier: w.Tier, Score: r.scores[id],
			})
		}
	}

	for _, w := range workers {
		if best.Contains(w.ID) {
			continue
		}
		res.Alternates = append(res.Alternates, Assignment{
			WorkerID: w.ID, Name: w.Name, Role: w.Tier.Role(), Tier: w.Tier, Score: r.scores[w.ID],
		})
	}
	sort.SliceStable(res.Alternates, func(i, j int) bool {
		a, b := res.Alternates[i], res.Alternates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.WorkerID < b.WorkerID
	})

	return res
}

// uniqueWorkers keeps the first worker for each ID.
func uniqueWorkers(workers []workforce.Worker) []workforce.Worker {
	seen := make(map[string]bool, len(workers))
	out := make([]workforce.Worker, 0, len(workers))
	for _, w := range workers {
		if seen[w.ID] {
			continue
		}
		seen[w.ID] = true
		out = append(out, w)
	}
	return out
}

// sample draws k distinct elements without replacement.
func sample(rng *rand.Rand, from []string, k int) []string {
	tmp := slices.Clone(from)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(tmp)-i)
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp[:k:k]
}
