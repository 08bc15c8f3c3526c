// Package pipeline orchestrates one ingestion run: resolve the latest
// export on SharePoint, parse it, normalize and route the rows, and upsert
// both planting logs. Stages run strictly in sequence; a fatal error at
// any stage aborts the run before anything further is persisted.
package pipeline

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"garden31/tend-sync/internal/graph"
	"garden31/tend-sync/internal/router"
	"garden31/tend-sync/internal/schema"
	"garden31/tend-sync/internal/supabase"
	"garden31/tend-sync/internal/tendcsv"
	"garden31/tend-sync/internal/transformer"
)

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Tables names the two destination tables and the identity column used for
// conflict resolution.
type Tables struct {
	Greenhouse     string
	Row            string
	ConflictColumn string
}

// Runner wires the pipeline's collaborators together for repeated runs.
type Runner struct {
	resolver *graph.Resolver
	store    *supabase.Client
	mapping  schema.Mapping
	tables   Tables
}

// NewRunner builds a Runner. resolver may be nil when only RunFile is used.
func NewRunner(resolver *graph.Resolver, store *supabase.Client, mapping schema.Mapping, tables Tables) *Runner {
	return &Runner{
		resolver: resolver,
		store:    store,
		mapping:  mapping,
		tables:   tables,
	}
}

// Summary reports what a run did.
type Summary struct {
	Total        int
	Greenhouse   int
	Row          int
	Unrecognized int
	SeedsTotal   decimal.Decimal
}

// Run resolves the latest export from the remote store and ingests it.
// No matching file is a clean zero-effect outcome, not an error. The
// downloaded file is removed on every exit path.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	item, err := r.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		log.Info("No export file found, nothing to do")
		return &Summary{SeedsTotal: decimal.Zero}, nil
	}

	path, cleanup, err := r.resolver.Fetch(ctx, item)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return r.RunFile(ctx, path)
}

// RunFile ingests an export already on local disk.
func (r *Runner) RunFile(ctx context.Context, path string) (*Summary, error) {
	doc, err := tendcsv.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if len(doc.Rows) == 0 {
		log.Info("No rows found in export after parsing")
		return &Summary{SeedsTotal: decimal.Zero}, nil
	}

	records, err := transformer.Transform(doc, r.mapping)
	if err != nil {
		return nil, err
	}
	routed := router.Route(records)

	if err := supabase.Upsert(ctx, r.store, r.tables.Greenhouse, r.tables.ConflictColumn, routed.Greenhouse); err != nil {
		return nil, err
	}
	if err := supabase.Upsert(ctx, r.store, r.tables.Row, r.tables.ConflictColumn, routed.Row); err != nil {
		return nil, err
	}

	summary := &Summary{
		Total:        len(records),
		Greenhouse:   len(routed.Greenhouse),
		Row:          len(routed.Row),
		Unrecognized: routed.Unrecognized,
		SeedsTotal:   routed.SeedsTotal,
	}
	log.WithFields(logrus.Fields{
		"total":        summary.Total,
		"greenhouse":   summary.Greenhouse,
		"row":          summary.Row,
		"unrecognized": summary.Unrecognized,
		"seeds_total":  summary.SeedsTotal.String(),
	}).Info("Run complete")
	return summary, nil
}
