package commands

import (
	"strconv"

	"crewopt/internal/simulation"

	"github.com/spf13/cobra"
)

var simulateIterations int

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Forecast worker performance with a Monte-Carlo simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}

		out, err := plan.SimulatePerformance(cmd.Context(), ds.Performance, ds.Workers, simulateIterations)
		if err != nil {
			return err
		}
		return emit(out, func() []section { return simulationSections(out) })
	},
}

func simulationSections(out simulation.Outcomes) []section {
	s := section{
		title:   "Performance forecast",
		headers: []string{"Worker", "Mean", "Risk", "Delay", "Stability", "Q25", "Q75", "Tasks"},
	}
	for _, id := range out.WorkerIDs() {
		o := out[id]
		s.rows = append(s.rows, []string{
			id,
			num(o.MeanPerformance),
			pct(o.RiskScore),
			pct(o.DelayProbability),
			num(o.Stability),
			num(o.Distribution.Q25),
			num(o.Distribution.Q75),
			strconv.Itoa(len(o.Tasks)),
		})
	}
	return []section{s}
}

func init() {
	simulateCmd.Flags().IntVarP(&simulateIterations, "iterations", "n", 0, "iterations per worker (0 uses config)")
}
