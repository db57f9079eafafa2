package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"crewopt/internal/planner"
	"crewopt/internal/visuals"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate, optimize durations and search teams for every task in both scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}

		rep, err := plan.RunAll(cmd.Context(), ds)
		if err != nil {
			return err
		}

		if cfg.EnableMermaidCharts && cfg.ResultsDir != "" {
			if err := writeCharts(rep); err != nil {
				log.Warn().Err(err).Msg("Failed to write charts")
			}
		}

		return emit(rep, func() []section {
			head := section{
				title:   "Planning run",
				headers: []string{"Run", "Seed", "Elapsed", "Workers simulated", "Teams"},
				rows: [][]string{{
					rep.RunID,
					fmt.Sprintf("%d", rep.Seed),
					rep.Elapsed.String(),
					fmt.Sprintf("%d", len(rep.Simulation)),
					fmt.Sprintf("%d", len(rep.Teams)),
				}},
			}
			out := []section{head}
			out = append(out, simulationSections(rep.Simulation)...)
			out = append(out, durationSections(rep.Durations)...)
			out = append(out, teamSections(rep.Teams)...)
			return out
		})
	},
}

// writeCharts stores one Markdown file of Mermaid charts per run.
func writeCharts(rep planner.Report) error {
	path := filepath.Join(cfg.ResultsDir, fmt.Sprintf("charts-%s.md", rep.RunID))

	content := "# Planning run " + rep.RunID + "\n\n"
	if chart := visuals.GenerateRiskChart(rep.Simulation); chart != "" {
		content += chart + "\n\n"
	}
	content += visuals.GenerateDurationChart(rep.Durations) + "\n\n"
	for _, team := range rep.Teams {
		if chart := visuals.GenerateTeamChart(team); chart != "" {
			content += chart + "\n\n"
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("Charts written")
	return nil
}
