package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"crewopt/internal/config"
	"crewopt/internal/dataset"
	"crewopt/internal/logging"
	"crewopt/internal/metrics"
	"crewopt/internal/planner"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose  bool
	dataPath string
	seed     int64
	outPath  string
	format   string

	cfg     *config.AppConfig
	metricz *metrics.Manager
	plan    *planner.Planner
)

var rootCmd = &cobra.Command{
	Use:   "crewopt",
	Short: "crewopt assigns skilled workers to production tasks",
	Long: `crewopt forecasts worker performance with a Monte-Carlo simulation, derives optimum
task durations with a Taguchi design of experiments and searches for the best team per
task with a genetic algorithm. Without a subcommand it serves these as MCP tools on stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("data") {
			cfg.DataPath = dataPath
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seed
		}

		metricz = metrics.NewManager(metrics.WithNamespace(cfg.Metrics.Namespace))
		plan = planner.New(cfg.Planner(), planner.WithLogger(log.Logger), planner.WithMetrics(metricz))

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Int64("seed", plan.Seed()).
			Msg("crewopt starting")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cfg == nil || cfg.Metrics.TextfilePath == "" {
			return
		}
		if err := metricz.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			log.Warn().Err(err).Msg("Failed to write metrics textfile")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// openSource prefers the database when a DSN is configured.
func openSource(ctx context.Context) (dataset.Source, func(), error) {
	if cfg.Database.DSN == "" {
		return dataset.Dir{Path: cfg.DataPath}, func() {}, nil
	}
	pg, err := dataset.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return pg, func() { pg.Close() }, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "d", "", "dataset directory (overrides config)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "root random seed (0 draws one from the clock)")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "write results to this file instead of stdout")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "table", "output format: table, json or yaml")

	rootCmd.AddCommand(serveCmd, simulateCmd, durationsCmd, teamsCmd, staffCmd, runCmd, recordCmd, dbCmd)
}
