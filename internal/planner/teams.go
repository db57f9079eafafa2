package planner

import (
	"context"
	"runtime"

	"crewopt/internal/genetic"
	"crewopt/internal/simulation"
	"crewopt/internal/workforce"

	"golang.org/x/sync/errgroup"
)

// optimizeAllTeams runs every (task, scenario) search concurrently. Seeds are
// assigned up front in catalog order so results do not depend on scheduling.
func (p *Planner) optimizeAllTeams(ctx context.Context, ds workforce.Dataset, outcomes simulation.Outcomes) ([]genetic.Result, error) {
	type job struct {
		task     workforce.TaskType
		critical bool
		seed     int64
	}

	var jobs []job
	for _, critical := range []bool{false, true} {
		for _, task := range ds.Tasks {
			jobs = append(jobs, job{task: task, critical: critical, seed: p.nextSeed()})
		}
	}

	results := make([]genetic.Result, len(jobs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, j := range jobs {
		g.Go(func() error {
			res, err := p.optimizeTeam(gCtx, j.task, ds.Workers, outcomes, j.critical, 0, 0, ConfiguredMutationRate, j.seed)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
