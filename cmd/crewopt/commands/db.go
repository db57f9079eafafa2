package commands

import (
	"errors"

	"crewopt/internal/dataset"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the PostgreSQL dataset",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if cfg.Database.DSN == "" {
			return errors.New("database.dsn is not configured (CREWOPT_DATABASE__DSN)")
		}
		return nil
	},
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		pg, err := dataset.OpenPostgres(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer pg.Close()

		if err := pg.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		log.Info().Msg("Schema ready")
		return nil
	},
}

var dbPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Copy the dataset directory into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := dataset.Dir{Path: cfg.DataPath}.Load(cmd.Context())
		if err != nil {
			return err
		}

		pg, err := dataset.OpenPostgres(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer pg.Close()

		if err := pg.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		if err := pg.Save(cmd.Context(), ds); err != nil {
			return err
		}
		log.Info().
			Int("workers", len(ds.Workers)).
			Int("tasks", len(ds.Tasks)).
			Int("performance", len(ds.Performance)).
			Int("durations", len(ds.Durations)).
			Msg("Dataset pushed")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbInitCmd, dbPushCmd)
}
