package commands

import (
	"errors"
	"fmt"
	"strings"

	"crewopt/internal/genetic"
	"crewopt/internal/planner"
	"crewopt/internal/simulation"
	"crewopt/internal/workforce"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	teamTask        string
	teamCritical    bool
	teamForecast    bool
	teamPopulation  int
	teamGenerations int
	teamMutation    float64
)

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Search for the best team per task with a genetic algorithm",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ds, err := loadDataset(ctx)
		if err != nil {
			return err
		}

		tasks := ds.Tasks
		if teamTask != "" {
			t, ok := ds.TaskByCode(teamTask)
			if !ok {
				return fmt.Errorf("unknown task code: %s", teamTask)
			}
			tasks = []workforce.TaskType{t}
		}

		var outcomes simulation.Outcomes
		if teamForecast {
			outcomes, err = plan.SimulatePerformance(ctx, ds.Performance, ds.Workers, 0)
			if errors.Is(err, simulation.ErrNoHistory) {
				log.Warn().Msg("No performance history; scoring without forecasts")
				err = nil
			}
			if err != nil {
				return err
			}
		}

		var results []genetic.Result
		for _, task := range tasks {
			res, err := plan.OptimizeTeam(ctx, task, ds.Workers, outcomes, teamCritical, teamPopulation, teamGenerations, teamMutation)
			if err != nil {
				return fmt.Errorf("task %s: %w", task.Code, err)
			}
			results = append(results, res)
		}
		return emit(results, func() []section { return teamSections(results) })
	},
}

func teamSections(results []genetic.Result) []section {
	s := section{
		title:   "Best teams",
		headers: []string{"Task", "Scenario", "Fitness", "Lead", "Qualified", "Apprentice", "Shortfall", "Next best"},
	}
	for _, r := range results {
		row := []string{r.TaskCode, string(r.Scenario), num(r.Fitness)}
		for _, role := range workforce.AllRoles {
			row = append(row, strings.Join(r.Team[role], ", "))
		}
		row = append(row, fmt.Sprintf("%d", r.TotalShortfall))

		var next []string
		for i, a := range r.Alternates {
			if i == 3 {
				break
			}
			next = append(next, fmt.Sprintf("%s (%.0f)", a.WorkerID, a.Score))
		}
		row = append(row, strings.Join(next, ", "))
		s.rows = append(s.rows, row)

		if r.TotalShortfall > 0 {
			s.warnings = append(s.warnings, fmt.Sprintf("%s (%s) is short by %d", r.TaskCode, r.Scenario, r.TotalShortfall))
		}
	}
	return []section{s}
}

func init() {
	teamsCmd.Flags().StringVarP(&teamTask, "task", "t", "", "only this task code")
	teamsCmd.Flags().BoolVar(&teamCritical, "critical", false, "use the critical project weighting")
	teamsCmd.Flags().BoolVar(&teamForecast, "forecast", true, "blend simulated risk into worker scores")
	teamsCmd.Flags().IntVar(&teamPopulation, "population", 0, "population size (0 uses config)")
	teamsCmd.Flags().IntVar(&teamGenerations, "generations", 0, "generations (0 uses config)")
	teamsCmd.Flags().Float64Var(&teamMutation, "mutation", planner.ConfiguredMutationRate, "mutation rate (negative uses config)")
}
