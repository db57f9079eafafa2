package mcp

import (
	"context"
	"fmt"
	"slices"

	"crewopt/internal/genetic"
	"crewopt/internal/planner"
	"crewopt/internal/simulation"
	"crewopt/internal/staffing"
	"crewopt/internal/stats"
	"crewopt/internal/visuals"
	"crewopt/internal/workforce"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type summary struct {
	Workers     int                         `json:"workers"`
	ByTier      map[workforce.SkillTier]int `json:"workers_by_tier"`
	Tasks       []string                    `json:"task_codes"`
	Performance int                         `json:"performance_records"`
	Durations   int                         `json:"duration_records"`
}

func (s *Server) handleDatasetSummary(ctx context.Context, _ *sdk.CallToolRequest, _ DatasetSummaryInput) (*sdk.CallToolResult, Response, error) {
	ds, err := s.source.Load(ctx)
	if err != nil {
		return nil, Response{}, err
	}

	sum := summary{
		Workers:     len(ds.Workers),
		ByTier:      make(map[workforce.SkillTier]int),
		Performance: len(ds.Performance),
		Durations:   len(ds.Durations),
	}
	for tier, ws := range workforce.WorkersByTier(ds.Workers) {
		sum.ByTier[tier] = len(ws)
	}
	for _, t := range ds.Tasks {
		sum.Tasks = append(sum.Tasks, t.Code)
	}
	return nil, Response{Data: sum}, nil
}

func (s *Server) handleSimulate(ctx context.Context, _ *sdk.CallToolRequest, in SimulateInput) (*sdk.CallToolResult, Response, error) {
	ds, err := s.source.Load(ctx)
	if err != nil {
		return nil, Response{}, err
	}

	workers := ds.Workers
	if len(in.WorkerIDs) > 0 {
		workers = slices.DeleteFunc(slices.Clone(workers), func(w workforce.Worker) bool {
			return !slices.Contains(in.WorkerIDs, w.ID)
		})
		if len(workers) == 0 {
			return nil, Response{}, fmt.Errorf("none of the requested workers exist: %v", in.WorkerIDs)
		}
	}

	out, err := s.planner.SimulatePerformance(ctx, ds.Performance, workers, in.Iterations)
	if err != nil {
		return nil, Response{}, err
	}

	res := Response{Data: out}
	for _, w := range workers {
		if _, ok := out.Get(w.ID); !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("worker %s has no performance history and was not forecast", w.ID))
		}
	}
	if s.enableMermaidCharts {
		res.Charts = map[string]string{"risk": visuals.GenerateRiskChart(out)}
	}
	return nil, res, nil
}

func (s *Server) handleDurations(ctx context.Context, _ *sdk.CallToolRequest, in DurationsInput) (*sdk.CallToolResult, Response, error) {
	ds, err := s.source.Load(ctx)
	if err != nil {
		return nil, Response{}, err
	}

	catalog := ds.Tasks
	if len(in.TaskCodes) > 0 {
		catalog = nil
		for _, code := range in.TaskCodes {
			t, ok := ds.TaskByCode(code)
			if !ok {
				return nil, Response{}, fmt.Errorf("unknown task code: %s", code)
			}
			catalog = append(catalog, t)
		}
	}

	out, err := s.planner.OptimizeDuration(ctx, catalog, ds.Durations, in.LevelCount, stats.SNRType(in.SNRType))
	if err != nil {
		return nil, Response{}, err
	}

	res := Response{Data: out}
	if !out.Exact {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s is an approximate design; the optimum may not be global", out.Method))
	}
	for _, code := range out.Order {
		d, _ := out.Get(code)
		switch {
		case d.Historical == nil:
			res.Warnings = append(res.Warnings, fmt.Sprintf("task %s has no usable history; levels derive from its estimate", code))
		case d.Historical.Shifted:
			res.Warnings = append(res.Warnings, fmt.Sprintf("task %s durations shifted during the recorded history; older projects may not represent the current process", code))
		}
	}
	if s.enableMermaidCharts {
		res.Charts = map[string]string{"durations": visuals.GenerateDurationChart(out)}
		for _, e := range out.Effects {
			d, _ := out.Get(e.TaskCode)
			res.Charts["effect_"+e.TaskCode] = visuals.GenerateEffectChart(e, d.Levels)
		}
	}
	return nil, res, nil
}

func (s *Server) handleTeam(ctx context.Context, _ *sdk.CallToolRequest, in TeamInput) (*sdk.CallToolResult, Response, error) {
	ds, err := s.source.Load(ctx)
	if err != nil {
		return nil, Response{}, err
	}
	task, ok := ds.TaskByCode(in.TaskCode)
	if !ok {
		return nil, Response{}, fmt.Errorf("unknown task code: %s", in.TaskCode)
	}

	var (
		outcomes simulation.Outcomes
		warnings []string
	)
	if in.UseForecast {
		outcomes, err = s.planner.SimulatePerformance(ctx, ds.Performance, ds.Workers, 0)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("forecast unavailable, scoring without it: %v", err))
		}
	}

	mutation := planner.ConfiguredMutationRate
	if in.MutationRate != nil {
		mutation = *in.MutationRate
	}

	out, err := s.planner.OptimizeTeam(ctx, task, ds.Workers, outcomes, in.Critical, in.PopulationSize, in.Generations, mutation)
	if err != nil {
		return nil, Response{}, err
	}

	res := Response{Data: out, Warnings: warnings}
	if out.TotalShortfall > 0 {
		res.Warnings = append(res.Warnings, shortfallWarning(out))
	}
	if s.enableMermaidCharts {
		res.Charts = map[string]string{"team": visuals.GenerateTeamChart(out)}
	}
	return nil, res, nil
}

func (s *Server) handleStaffing(ctx context.Context, _ *sdk.CallToolRequest, in StaffingInput) (*sdk.CallToolResult, Response, error) {
	ds, err := s.source.Load(ctx)
	if err != nil {
		return nil, Response{}, err
	}

	plans, err := s.planner.PlanStaffing(ctx, ds, in.TaskCodes, in.Critical, staffing.NewBusy(in.BusyWorkers...), in.AllowSubcontract)
	if err != nil {
		return nil, Response{}, err
	}

	res := Response{Data: plans}
	for _, p := range plans {
		if err := p.Err(); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("task %s: %v (%d open slots)", p.TaskCode, err, p.TotalShortfall))
		}
	}
	return nil, res, nil
}

func shortfallWarning(r genetic.Result) string {
	msg := fmt.Sprintf("task %s is understaffed by %d:", r.TaskCode, r.TotalShortfall)
	for _, role := range workforce.AllRoles {
		if n := r.Shortfall[role]; n > 0 {
			msg += fmt.Sprintf(" %d %s", n, role)
		}
	}
	return msg
}
