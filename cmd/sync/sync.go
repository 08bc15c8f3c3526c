// Package sync implements the one-shot pipeline run command.
package sync

import (
	"context"

	"github.com/spf13/cobra"

	"garden31/tend-sync/cmd/common"
	"garden31/tend-sync/cmd/root"
)

var file string

// Cmd is the sync command
var Cmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the ingestion pipeline once",
	Long: `Resolve the latest Tend export from the configured SharePoint folder,
normalize it, and upsert both planting logs. With --file the remote
resolution is skipped and the given local CSV is ingested instead.`,
	Run: syncFunc,
}

func syncFunc(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	log := root.Log

	runner, err := common.BuildRunner(ctx, root.Cfg, file == "")
	if err != nil {
		log.Fatalf("Error setting up pipeline: %v", err)
	}

	if file != "" {
		log.Infof("Ingesting local export: %s", file)
		if _, err := runner.RunFile(ctx, file); err != nil {
			log.Fatalf("Error ingesting %s: %v", file, err)
		}
		return
	}

	if _, err := runner.Run(ctx); err != nil {
		log.Fatalf("Error running sync: %v", err)
	}
}

func init() {
	Cmd.Flags().StringVarP(&file, "file", "f", "", "Local export CSV to ingest instead of resolving from SharePoint")
}
