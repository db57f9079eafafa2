package planner

import (
	"context"
	"errors"
	"fmt"

	"crewopt/internal/simulation"
	"crewopt/internal/staffing"
	"crewopt/internal/workforce"

	"go.opentelemetry.io/otel/attribute"
)

var ErrUnknownTask = errors.New("planner: unknown task code")

// PlanStaffing staffs tasks one after another in the given order. Workers
// placed on an earlier task are busy for later ones. Empty codes staffs the
// whole catalog.
func (p *Planner) PlanStaffing(ctx context.Context, ds workforce.Dataset, codes []string, critical bool, busy staffing.Busy, allowSubcontract bool) (plans []staffing.Plan, err error) {
	if len(codes) == 0 {
		for _, t := range ds.Tasks {
			codes = append(codes, t.Code)
		}
	}
	tasks := make([]workforce.TaskType, 0, len(codes))
	for _, code := range codes {
		task, ok := ds.TaskByCode(code)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTask, code)
		}
		tasks = append(tasks, task)
	}
	if busy == nil {
		busy = staffing.NewBusy()
	}

	ctx, done := p.instrument(ctx, "staffing",
		attribute.Int("staffing.tasks", len(tasks)),
		attribute.Int("staffing.busy", len(busy)),
	)
	defer func() { done(err) }()

	outcomes, err := p.SimulatePerformance(ctx, ds.Performance, ds.Workers, 0)
	if errors.Is(err, simulation.ErrNoHistory) {
		outcomes, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	for _, task := range tasks {
		res, err := p.OptimizeTeam(ctx, task, ds.Workers, outcomes, critical, 0, 0, ConfiguredMutationRate)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", task.Code, err)
		}
		plan := staffing.Build(res, task.Requirement, busy, allowSubcontract)
		busy.Commit(plan)
		plans = append(plans, plan)

		if plan.TotalShortfall > 0 {
			p.logger.Info().
				Str("task", task.Code).
				Int("shortfall", plan.TotalShortfall).
				Bool("subcontracted", plan.Subcontracted).
				Msg("Staffing plan has open slots")
		}
	}
	return plans, nil
}
