// Package export implements the dry-run command: the full pipeline up to
// routing, with the two category groups written to local CSV files instead
// of upserted.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"garden31/tend-sync/cmd/common"
	"garden31/tend-sync/cmd/root"
	"garden31/tend-sync/internal/fileutils"
	"garden31/tend-sync/internal/router"
	"garden31/tend-sync/internal/tendcsv"
	"garden31/tend-sync/internal/transformer"
)

var (
	file      string
	ghOutput  string
	rowOutput string
)

// Cmd is the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Dry run: write the routed groups to local CSV files",
	Long: `Run the pipeline without touching Supabase. The normalized Container Sow
rows and Transplant/Precision Sow rows are written to two local CSV files
with the persisted column layout, which makes mapping changes reviewable
before they hit the store.`,
	Run: exportFunc,
}

func exportFunc(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	log := root.Log

	path := file
	if path == "" {
		resolver, err := common.BuildResolver(ctx, root.Cfg)
		if err != nil {
			log.Fatalf("Error setting up resolver: %v", err)
		}
		item, err := resolver.Resolve(ctx)
		if err != nil {
			log.Fatalf("Error resolving export: %v", err)
		}
		if item == nil {
			log.Info("No export file found, nothing to do")
			return
		}
		var cleanup func()
		path, cleanup, err = resolver.Fetch(ctx, item)
		if err != nil {
			log.Fatalf("Error downloading export: %v", err)
		}
		defer cleanup()
	}

	mapping, err := common.LoadMapping(root.Cfg)
	if err != nil {
		log.Fatalf("Error loading column mapping: %v", err)
	}

	doc, err := tendcsv.ParseFile(path)
	if err != nil {
		log.Fatalf("Error parsing export: %v", err)
	}
	records, err := transformer.Transform(doc, mapping)
	if err != nil {
		log.Fatalf("Error normalizing export: %v", err)
	}
	routed := router.Route(records)

	if err := writeGroup(ghOutput, &routed.Greenhouse); err != nil {
		log.Fatalf("Error writing %s: %v", ghOutput, err)
	}
	if err := writeGroup(rowOutput, &routed.Row); err != nil {
		log.Fatalf("Error writing %s: %v", rowOutput, err)
	}

	log.Infof("Wrote %d greenhouse rows to %s and %d row rows to %s (%d unrecognized)",
		len(routed.Greenhouse), ghOutput, len(routed.Row), rowOutput, routed.Unrecognized)
}

// writeGroup marshals a routed group to a CSV file via its csv tags.
func writeGroup(path string, rows interface{}) error {
	if err := fileutils.EnsureDirectoryExists(filepath.Dir(path)); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			root.Log.WithError(err).Warn("Failed to close output file")
		}
	}()
	return gocsv.Marshal(rows, out)
}

func init() {
	Cmd.Flags().StringVarP(&file, "file", "f", "", "Local export CSV to ingest instead of resolving from SharePoint")
	Cmd.Flags().StringVar(&ghOutput, "gh-output", "gh_planting_log.csv", "Output CSV for Container Sow rows")
	Cmd.Flags().StringVar(&rowOutput, "row-output", "row_planting_log.csv", "Output CSV for Transplant/Precision Sow rows")
}
