package commands

import (
	"errors"
	"fmt"

	"crewopt/internal/dataset"
	"crewopt/internal/history"
	"crewopt/internal/workforce"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	recordTask     string
	recordWorker   string
	recordScore    float64
	recordDuration float64
	recordDept     string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Append a completed project to the history files of the data directory",
	Long: `Append one observation to the JSONL history. With --worker and --score a performance
record is added; with --duration a duration record is added. Both may be given at once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if recordTask == "" {
			return errors.New("--task is required")
		}
		if recordWorker == "" && recordDuration <= 0 {
			return errors.New("nothing to record: give --worker/--score or --duration")
		}

		ds, err := dataset.Dir{Path: cfg.DataPath}.Load(cmd.Context())
		if err != nil {
			return err
		}
		if _, ok := ds.TaskByCode(recordTask); !ok {
			return fmt.Errorf("%w: %s", workforce.ErrUnknownTask, recordTask)
		}
		if _, ok := ds.WorkerByID(recordWorker); recordWorker != "" && !ok {
			return fmt.Errorf("%w: %s", workforce.ErrUnknownWorker, recordWorker)
		}

		store := history.NewStore()
		if err := store.Load(cfg.DataPath); err != nil {
			return err
		}

		if recordWorker != "" {
			rec := workforce.PerformanceRecord{
				TaskCode:     recordTask,
				WorkerID:     recordWorker,
				ProjectIndex: store.NextProjectIndex(recordTask, recordWorker),
				Score:        recordScore,
			}
			if rec.Score < 0 || rec.Score > 1 {
				return errors.New("--score must be within [0,1]")
			}
			store.Performance.Append(rec)
			log.Info().Str("task", rec.TaskCode).Str("worker", rec.WorkerID).Int("project", rec.ProjectIndex).Msg("Performance recorded")
		}

		if recordDuration > 0 {
			next := 0
			for _, r := range store.Durations.Records() {
				if r.TaskCode == recordTask && r.Index >= next {
					next = r.Index + 1
				}
			}
			store.Durations.Append(workforce.DurationRecord{
				TaskCode:   recordTask,
				Department: recordDept,
				Index:      next,
				Duration:   recordDuration,
			})
			log.Info().Str("task", recordTask).Int("index", next).Msg("Duration recorded")
		}

		return store.Save(cfg.DataPath)
	},
}

func init() {
	recordCmd.Flags().StringVarP(&recordTask, "task", "t", "", "task code")
	recordCmd.Flags().StringVarP(&recordWorker, "worker", "w", "", "worker ID")
	recordCmd.Flags().Float64Var(&recordScore, "score", 0, "performance score in [0,1]")
	recordCmd.Flags().Float64Var(&recordDuration, "duration", 0, "observed duration")
	recordCmd.Flags().StringVar(&recordDept, "department", "", "department of the duration record")
}
