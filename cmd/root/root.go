// Package root contains the root command for the application
package root

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"garden31/tend-sync/internal/config"
	"garden31/tend-sync/internal/fileutils"
	"garden31/tend-sync/internal/graph"
	"garden31/tend-sync/internal/pipeline"
	"garden31/tend-sync/internal/router"
	"garden31/tend-sync/internal/supabase"
	"garden31/tend-sync/internal/tendcsv"
	"garden31/tend-sync/internal/transformer"
	"garden31/tend-sync/internal/webhook"
)

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cfg is the loaded configuration, available to all subcommands after
	// PersistentPreRunE has run.
	Cfg *config.Config

	// SchemaFile optionally overrides the column mapping with a YAML file.
	SchemaFile string

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "tend-sync",
		Short: "Sync Tend garden export CSVs from SharePoint into Supabase planting logs.",
		Long: `tend-sync ingests the multi-section task export that Tend drops into a
SharePoint folder, normalizes it, and upserts the rows into the greenhouse
and row planting logs. It can run once from the CLI or serve a Microsoft
Graph webhook that triggers a run whenever the export changes.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to tend-sync!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()

			cfg, err := config.InitializeConfig()
			if err != nil {
				return err
			}
			if SchemaFile != "" {
				cfg.Schema.File = SchemaFile
			}
			Cfg = cfg
			Log = config.ConfigureLogging(cfg)

			// Hand the configured logger to every pipeline package.
			tendcsv.SetLogger(Log)
			transformer.SetLogger(Log)
			router.SetLogger(Log)
			graph.SetLogger(Log)
			supabase.SetLogger(Log)
			pipeline.SetLogger(Log)
			webhook.SetLogger(Log)
			fileutils.SetLogger(Log)
			return nil
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVar(&SchemaFile, "schema", "", "YAML file overriding the column spelling variants")
}
