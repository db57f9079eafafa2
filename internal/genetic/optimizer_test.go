package genetic

import (
	"context"
	"fmt"
	"testing"

	"crewopt/internal/fitness"
	"crewopt/internal/simulation"
	"crewopt/internal/workforce"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeeded(t *testing.T, opts Options, seed int64, extra ...Option) *Optimizer {
	t.Helper()
	o := NewOptimizer(opts, fitness.DefaultModel(), extra...)
	o.SetSeed(seed)
	return o
}

func smallOptions() Options {
	opts := DefaultOptions()
	opts.PopulationSize = 20
	opts.Generations = 30
	return opts
}

func worker(id string, tier workforce.SkillTier, exp, eff float64) workforce.Worker {
	return workforce.Worker{ID: id, Name: "Worker " + id, Tier: tier, Experience: exp, Efficiency: eff}
}

func TestOptimize_ExactStaffing(t *testing.T) {
	task := workforce.TaskType{Code: "T1", Requirement: workforce.Requirement{Lead: 1, Qualified: 2}}
	workers := []workforce.Worker{
		worker("L1", workforce.TierLead, 12, 0.9),
		worker("Q1", workforce.TierQualified, 5, 0.7),
		worker("Q2", workforce.TierQualified, 8, 0.8),
		worker("Q3", workforce.TierQualified, 2, 0.6),
	}

	res, err := newSeeded(t, smallOptions(), 1).Optimize(context.Background(), task, workers, nil, false)
	require.NoError(t, err)

	assert.Len(t, res.Team[workforce.RoleLead], 1)
	assert.Len(t, res.Team[workforce.RoleQualified], 2)
	assert.Empty(t, res.Team[workforce.RoleApprentice])
	assert.Equal(t, 0, res.TotalShortfall)
	assert.Equal(t, "T1", res.TaskCode)
	assert.Equal(t, ScenarioNormal, res.Scenario)

	// Best pair of qualified workers is Q1 and Q2.
	assert.ElementsMatch(t, []string{"Q1", "Q2"}, res.Team[workforce.RoleQualified])
	require.Len(t, res.Alternates, 1)
	assert.Equal(t, "Q3", res.Alternates[0].WorkerID)
}

func TestOptimize_UnderStaffedRoleIsPenalized(t *testing.T) {
	task := workforce.TaskType{Code: "T2", Requirement: workforce.Requirement{Apprentice: 2}}
	workers := []workforce.Worker{
		worker("A1", workforce.TierApprentice, 1, 0.5),
		worker("L1", workforce.TierLead, 20, 1),
	}

	res, err := newSeeded(t, smallOptions(), 3).Optimize(context.Background(), task, workers, nil, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"A1"}, res.Team[workforce.RoleApprentice])
	assert.Equal(t, 1, res.Shortfall[workforce.RoleApprentice])
	assert.Equal(t, 1, res.TotalShortfall)

	unpenalized := fitness.DefaultModel().Score(workers[0], task, nil, false)
	assert.InDelta(t, unpenalized*0.25, res.Fitness, 1e-9)
}

func TestOptimize_TeamValidityAcrossGenerations(t *testing.T) {
	task := workforce.TaskType{Code: "T3", Requirement: workforce.Requirement{Lead: 2, Qualified: 3, Apprentice: 4}}
	var workers []workforce.Worker
	for i := range 3 {
		workers = append(workers, worker(fmt.Sprintf("L%d", i), workforce.TierLead, float64(10+i), 0.8))
	}
	for i := range 6 {
		workers = append(workers, worker(fmt.Sprintf("Q%d", i), workforce.TierQualified, float64(i), 0.1*float64(i+1)))
	}
	for i := range 3 {
		workers = append(workers, worker(fmt.Sprintf("A%d", i), workforce.TierApprentice, 1, 0.5))
	}

	opts := smallOptions()
	opts.MutationRate = 0.9
	observed := 0
	observer := func(gen int, pop []Team, scores []float64) {
		observed++
		require.Len(t, pop, opts.PopulationSize)
		require.Len(t, scores, opts.PopulationSize)
		for _, team := range pop {
			seen := make(map[string]bool)
			for _, role := range workforce.AllRoles {
				assert.LessOrEqual(t, len(team[role]), task.Requirement.Count(role), "generation %d role %s", gen, role)
				for _, id := range team[role] {
					assert.False(t, seen[id], "worker %s appears twice in generation %d", id, gen)
					seen[id] = true
				}
			}
		}
	}

	res, err := newSeeded(t, opts, 11, WithObserver(observer)).Optimize(context.Background(), task, workers, nil, true)
	require.NoError(t, err)

	assert.Equal(t, opts.Generations+1, observed)
	assert.Equal(t, ScenarioCritical, res.Scenario)
	assert.Equal(t, 1, res.Shortfall[workforce.RoleApprentice])
	assert.Len(t, res.Assigned, 8)
	assert.Len(t, res.Alternates, len(workers)-8)
}

func TestOptimize_RepeatedWorkerIDs(t *testing.T) {
	task := workforce.TaskType{Code: "T4", Requirement: workforce.Requirement{Qualified: 2}}
	first := worker("Q1", workforce.TierQualified, 5, 0.7)
	repeat := first
	repeat.Name = "Copy"
	workers := []workforce.Worker{first, repeat, repeat, worker("Q2", workforce.TierQualified, 3, 0.6)}

	opts := smallOptions()
	opts.MutationRate = 0.9
	observer := func(gen int, pop []Team, _ []float64) {
		for _, team := range pop {
			members := team[workforce.RoleQualified]
			assert.Len(t, members, 2, "generation %d", gen)
			if len(members) == 2 {
				assert.NotEqual(t, members[0], members[1], "generation %d", gen)
			}
		}
	}

	res, err := newSeeded(t, opts, 5, WithObserver(observer)).Optimize(context.Background(), task, workers, nil, false)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Q1", "Q2"}, res.Team[workforce.RoleQualified])
	assert.Equal(t, 0, res.TotalShortfall)
	assert.Empty(t, res.Alternates)
	for _, a := range res.Assigned {
		if a.WorkerID == "Q1" {
			assert.Equal(t, "Worker Q1", a.Name)
		}
	}
}

func TestOptimize_ReportsMutationRate(t *testing.T) {
	task := workforce.TaskType{Code: "T5", Requirement: workforce.Requirement{Lead: 1}}
	workers := []workforce.Worker{worker("L1", workforce.TierLead, 10, 0.8)}

	opts := smallOptions()
	opts.MutationRate = 0
	res, err := newSeeded(t, opts, 2).Optimize(context.Background(), task, workers, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.MutationRate)
}

func TestTeamFitness_PenaltyMonotonicity(t *testing.T) {
	req := workforce.Requirement{Lead: 1, Qualified: 2, Apprentice: 2}
	scores := map[string]float64{"L": 70, "Q1": 60, "Q2": 55, "A1": 40, "A2": 35}
	full := Team{
		workforce.RoleLead:       {"L"},
		workforce.RoleQualified:  {"Q1", "Q2"},
		workforce.RoleApprentice: {"A1", "A2"},
	}
	fullScore := TeamFitness(full, req, scores)

	for _, role := range full.Roles() {
		short := full.Clone()
		short[role] = short[role][:len(short[role])-1]
		assert.Less(t, TeamFitness(short, req, scores), fullScore, "dropping a %s must lower fitness", role)
	}

	// Two under-filled roles compound.
	double := full.Clone()
	double[workforce.RoleQualified] = []string{"Q1"}
	double[workforce.RoleApprentice] = []string{"A1"}
	want := (70.0 + 60 + 40) * 0.25 * 0.25
	assert.InDelta(t, want, TeamFitness(double, req, scores), 1e-9)
}

func TestOptimize_AlternatesRankedOverAllWorkers(t *testing.T) {
	task := workforce.TaskType{Code: "T4", Requirement: workforce.Requirement{Qualified: 1}}
	workers := []workforce.Worker{
		worker("Q1", workforce.TierQualified, 15, 1),
		worker("L1", workforce.TierLead, 15, 1),
		worker("A1", workforce.TierApprentice, 0, 0),
		worker("A2", workforce.TierApprentice, 0, 0),
	}
	outcomes := simulation.Outcomes{"Q1": {WorkerID: "Q1", RiskScore: 0, MeanPerformance: 1}}

	res, err := newSeeded(t, smallOptions(), 5).Optimize(context.Background(), task, workers, outcomes, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"Q1"}, res.Team[workforce.RoleQualified])
	ids := make([]string, len(res.Alternates))
	for i, a := range res.Alternates {
		ids[i] = a.WorkerID
	}
	assert.Equal(t, []string{"L1", "A1", "A2"}, ids)
	assert.Equal(t, workforce.RoleLead, res.Alternates[0].Role)
	for i := 1; i < len(res.Alternates); i++ {
		assert.GreaterOrEqual(t, res.Alternates[i-1].Score, res.Alternates[i].Score)
	}
}

func TestOptimize_SeedReproducible(t *testing.T) {
	task := workforce.TaskType{Code: "T5", Requirement: workforce.Requirement{Lead: 1, Qualified: 2, Apprentice: 2}}
	var workers []workforce.Worker
	for i := range 15 {
		tier := workforce.SkillTier(i%3 + 1)
		workers = append(workers, worker(fmt.Sprintf("W%02d", i), tier, float64(i), float64(i%7)/7))
	}

	opts := smallOptions()
	opts.Parallelism = 4
	a, err := newSeeded(t, opts, 77).Optimize(context.Background(), task, workers, nil, false)
	require.NoError(t, err)
	b, err := newSeeded(t, opts, 77).Optimize(context.Background(), task, workers, nil, false)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestOptimize_OddPopulationKeepsSize(t *testing.T) {
	task := workforce.TaskType{Code: "T6", Requirement: workforce.Requirement{Qualified: 1}}
	workers := []workforce.Worker{worker("Q1", workforce.TierQualified, 1, 1), worker("Q2", workforce.TierQualified, 2, 1)}

	opts := smallOptions()
	opts.PopulationSize = 5
	sizes := map[int]bool{}
	_, err := newSeeded(t, opts, 2, WithObserver(func(_ int, pop []Team, _ []float64) {
		sizes[len(pop)] = true
	})).Optimize(context.Background(), task, workers, nil, false)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{5: true}, sizes)
}

func TestOptimize_Errors(t *testing.T) {
	task := workforce.TaskType{Code: "T", Requirement: workforce.Requirement{Lead: 1}}
	workers := []workforce.Worker{worker("L1", workforce.TierLead, 1, 1)}

	_, err := newSeeded(t, smallOptions(), 1).Optimize(context.Background(), task, nil, nil, false)
	assert.ErrorIs(t, err, ErrNoWorkers)

	bad := smallOptions()
	bad.PopulationSize = 1
	_, err = newSeeded(t, bad, 1).Optimize(context.Background(), task, workers, nil, false)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newSeeded(t, smallOptions(), 1).Optimize(ctx, task, workers, nil, false)
	assert.ErrorIs(t, err, context.Canceled)
}
