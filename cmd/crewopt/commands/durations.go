package commands

import (
	"fmt"
	"strconv"

	"crewopt/internal/stats"
	"crewopt/internal/taguchi"

	"github.com/spf13/cobra"
)

var (
	durationLevels int
	durationSNR    string
	durationTasks  []string
)

var durationsCmd = &cobra.Command{
	Use:   "durations",
	Short: "Derive optimum task durations with a Taguchi experiment",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}

		catalog := ds.Tasks
		if len(durationTasks) > 0 {
			catalog = nil
			for _, code := range durationTasks {
				t, ok := ds.TaskByCode(code)
				if !ok {
					return fmt.Errorf("unknown task code: %s", code)
				}
				catalog = append(catalog, t)
			}
		}

		res, err := plan.OptimizeDuration(cmd.Context(), catalog, ds.Durations, durationLevels, stats.SNRType(durationSNR))
		if err != nil {
			return err
		}
		return emit(res, func() []section { return durationSections(res) })
	},
}

func durationSections(res taguchi.Result) []section {
	s := section{
		title: fmt.Sprintf("Optimum durations (%s, %d trials x %d repeats, best SNR %.2f dB)",
			res.Method, res.Trials, res.Repeats, res.BestSNR),
		headers: []string{"Task", "Duration", "Levels", "History", "Mean", "Improvement"},
	}
	if !res.Exact {
		s.warnings = append(s.warnings, "approximate design: the optimum may not be global")
	}
	for _, code := range res.Order {
		d, _ := res.Get(code)
		history, mean, improvement := "-", "-", "-"
		if d.Historical != nil {
			history = strconv.Itoa(d.Historical.FilteredCount) + "/" + strconv.Itoa(d.Historical.Count)
			mean = num(d.Historical.Mean)
			if d.Historical.Shifted {
				s.warnings = append(s.warnings, code+": duration history shows a process shift")
			}
		}
		if d.Improvement != nil {
			improvement = fmt.Sprintf("%.1f%%", *d.Improvement)
		}
		levels := ""
		for i, l := range d.Levels {
			if i > 0 {
				levels += " "
			}
			levels += num(l)
		}
		s.rows = append(s.rows, []string{code, num(d.Duration), levels, history, mean, improvement})
	}
	return []section{s}
}

func init() {
	durationsCmd.Flags().IntVarP(&durationLevels, "levels", "l", 0, "levels per task, 3 or 5 (0 uses config)")
	durationsCmd.Flags().StringVar(&durationSNR, "snr", "", "signal-to-noise type: smaller, larger or nominal")
	durationsCmd.Flags().StringSliceVarP(&durationTasks, "task", "t", nil, "restrict to these task codes")
}
