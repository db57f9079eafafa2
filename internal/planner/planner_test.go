package planner

import (
	"context"
	"errors"
	"testing"

	"crewopt/internal/genetic"
	"crewopt/internal/metrics"
	"crewopt/internal/simulation"
	"crewopt/internal/stats"
	"crewopt/internal/taguchi"
	"crewopt/internal/workforce"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() workforce.Dataset {
	ds := workforce.Dataset{
		Workers: []workforce.Worker{
			{ID: "W1", Name: "Ada", Tier: workforce.TierLead, Experience: 12, Efficiency: 0.9},
			{ID: "W2", Name: "Bo", Tier: workforce.TierLead, Experience: 4, Efficiency: 0.7},
			{ID: "W3", Name: "Cy", Tier: workforce.TierQualified, Experience: 6, Efficiency: 0.8},
			{ID: "W4", Name: "Di", Tier: workforce.TierQualified, Experience: 2, Efficiency: 0.6},
			{ID: "W5", Name: "Ed", Tier: workforce.TierApprentice, Experience: 1, Efficiency: 0.5},
		},
		Tasks: []workforce.TaskType{
			{Code: "T1", ProductName: "Frame", EstimatedDuration: 10, Requirement: workforce.Requirement{Lead: 1, Qualified: 1}},
			{Code: "T2", ProductName: "Panel", EstimatedDuration: 8, Requirement: workforce.Requirement{Lead: 1, Apprentice: 1}},
		},
	}
	for i, score := range []float64{0.8, 0.85, 0.9, 0.82} {
		ds.Performance = append(ds.Performance,
			workforce.PerformanceRecord{TaskCode: "T1", WorkerID: "W1", ProjectIndex: i, Score: score},
			workforce.PerformanceRecord{TaskCode: "T1", WorkerID: "W3", ProjectIndex: i, Score: score - 0.2},
		)
	}
	for i, d := range []float64{9, 10, 11, 10, 12} {
		ds.Durations = append(ds.Durations, workforce.DurationRecord{TaskCode: "T1", Index: i, Duration: d})
	}
	return ds
}

func fastConfig(seed int64) Config {
	cfg := DefaultConfig()
	cfg.Seed = seed
	cfg.Simulation.Iterations = 500
	cfg.Genetic.PopulationSize = 10
	cfg.Genetic.Generations = 5
	return cfg
}

func TestRunAll(t *testing.T) {
	m := metrics.NewManager()
	p := New(fastConfig(42), WithMetrics(m))

	rep, err := p.RunAll(context.Background(), fixture())
	require.NoError(t, err)

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, int64(42), rep.Seed)
	assert.Len(t, rep.Simulation, 2)
	assert.Len(t, rep.Durations.Durations, 2)
	assert.Len(t, rep.Catalog, 2)
	assert.Len(t, rep.Teams, 4)

	for _, code := range []string{"T1", "T2"} {
		for _, sc := range []genetic.Scenario{genetic.ScenarioNormal, genetic.ScenarioCritical} {
			team, ok := rep.Team(code, sc)
			require.True(t, ok, "%s/%s", code, sc)
			assert.Zero(t, team.TotalShortfall)
		}
	}

	d, ok := rep.Durations.Get("T1")
	require.True(t, ok)
	assert.Equal(t, d.Duration, rep.Catalog[0].EstimatedDuration)

	runs, err := testutil.GatherAndCount(m.Registry(), "crewopt_engine_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 4, runs, "one series per engine")

	teams, err := testutil.GatherAndCount(m.Registry(), "crewopt_engine_team_fitness")
	require.NoError(t, err)
	assert.Equal(t, 4, teams)
}

func TestRunAll_Reproducible(t *testing.T) {
	a, err := New(fastConfig(7)).RunAll(context.Background(), fixture())
	require.NoError(t, err)
	b, err := New(fastConfig(7)).RunAll(context.Background(), fixture())
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Simulation, b.Simulation)
	assert.Equal(t, a.Durations, b.Durations)
	assert.Equal(t, a.Teams, b.Teams)
}

func TestRunAll_WithoutPerformanceHistory(t *testing.T) {
	ds := fixture()
	ds.Performance = nil

	rep, err := New(fastConfig(1)).RunAll(context.Background(), ds)
	require.NoError(t, err)
	assert.Empty(t, rep.Simulation)
	assert.Len(t, rep.Teams, 4)
}

func TestRunAll_Errors(t *testing.T) {
	p := New(fastConfig(1))

	_, err := p.RunAll(context.Background(), workforce.Dataset{})
	assert.ErrorIs(t, err, ErrNoInput)

	ds := fixture()
	ds.Workers = append(ds.Workers, ds.Workers[0])
	_, err = p.RunAll(context.Background(), ds)
	assert.ErrorIs(t, err, workforce.ErrDuplicateWorker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.RunAll(ctx, fixture())
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestPlanner_PerTaskDurations(t *testing.T) {
	cfg := fastConfig(3)
	cfg.Duration.PerTask = true
	ds := fixture()

	res, err := New(cfg).OptimizeDuration(context.Background(), ds.Tasks, ds.Durations, 3, stats.SmallerIsBetter)
	require.NoError(t, err)
	assert.Len(t, res.Durations, 2)
	assert.Len(t, res.Effects, 2)
}

func TestPlanner_OptimizeDurationRejectsLevels(t *testing.T) {
	ds := fixture()
	_, err := New(fastConfig(3)).OptimizeDuration(context.Background(), ds.Tasks, ds.Durations, 4, "")
	assert.ErrorIs(t, err, taguchi.ErrInvalidLevelCount)
}

func TestPlanner_OptimizeTeamOverrides(t *testing.T) {
	ds := fixture()
	p := New(fastConfig(5))

	res, err := p.OptimizeTeam(context.Background(), ds.Tasks[0], ds.Workers, nil, true, 6, 3, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Generations)
	assert.Equal(t, genetic.ScenarioCritical, res.Scenario)

	_, err = p.OptimizeTeam(context.Background(), ds.Tasks[0], nil, nil, false, 0, 0, ConfiguredMutationRate)
	assert.ErrorIs(t, err, genetic.ErrNoWorkers)
}

func TestPlanner_OptimizeTeamMutationRate(t *testing.T) {
	ds := fixture()
	cfg := fastConfig(5)
	p := New(cfg)

	res, err := p.OptimizeTeam(context.Background(), ds.Tasks[0], ds.Workers, nil, false, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.MutationRate, "zero disables mutation")

	res, err = p.OptimizeTeam(context.Background(), ds.Tasks[0], ds.Workers, nil, false, 0, 0, ConfiguredMutationRate)
	require.NoError(t, err)
	assert.Equal(t, cfg.Genetic.MutationRate, res.MutationRate)
	assert.Equal(t, cfg.Genetic.Generations, res.Generations)
}

func TestPlanner_SimulatePerformance(t *testing.T) {
	ds := fixture()
	p := New(fastConfig(9))

	out, err := p.SimulatePerformance(context.Background(), ds.Performance, ds.Workers, 200)
	require.NoError(t, err)
	_, ok := out.Get("W1")
	assert.True(t, ok)
	_, ok = out.Get("W5")
	assert.False(t, ok)

	_, err = p.SimulatePerformance(context.Background(), nil, ds.Workers, 200)
	assert.ErrorIs(t, err, simulation.ErrNoHistory)
}

func TestNew_ClockSeed(t *testing.T) {
	assert.NotZero(t, New(DefaultConfig()).Seed())
}
