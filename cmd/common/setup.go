// Package common provides the collaborator wiring shared by the sync,
// export and serve commands.
package common

import (
	"context"
	"fmt"

	"garden31/tend-sync/internal/config"
	"garden31/tend-sync/internal/graph"
	"garden31/tend-sync/internal/pipeline"
	"garden31/tend-sync/internal/schema"
	"garden31/tend-sync/internal/supabase"
)

// LoadMapping returns the column mapping: the built-in default, or the
// configured YAML override when one is set.
func LoadMapping(cfg *config.Config) (schema.Mapping, error) {
	if cfg.Schema.File == "" {
		return schema.Default(), nil
	}
	return schema.LoadFile(cfg.Schema.File)
}

// BuildClient constructs the authenticated Graph client.
func BuildClient(ctx context.Context, cfg *config.Config) (*graph.Client, error) {
	if err := cfg.RequireGraph(); err != nil {
		return nil, err
	}
	return graph.NewClient(ctx, graph.Credentials{
		TenantID:     cfg.Graph.TenantID,
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: cfg.Graph.ClientSecret,
	}), nil
}

// BuildResolver constructs the export file resolver. When no drive id is
// configured, the site's default document library is looked up first.
func BuildResolver(ctx context.Context, cfg *config.Config) (*graph.Resolver, error) {
	client, err := BuildClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	driveID := cfg.Graph.DriveID
	if driveID == "" {
		driveID, err = client.SiteDrive(ctx, cfg.Graph.SiteHostname, cfg.Graph.SitePath)
		if err != nil {
			return nil, fmt.Errorf("error resolving site drive: %w", err)
		}
	}
	return graph.NewResolver(client, driveID, cfg.Graph.FolderPath, cfg.Graph.FileSuffix), nil
}

// BuildRunner constructs a pipeline runner. withResolver controls whether
// the Graph side is wired; a local-file run does not need it.
func BuildRunner(ctx context.Context, cfg *config.Config, withResolver bool) (*pipeline.Runner, error) {
	if err := cfg.RequireSupabase(); err != nil {
		return nil, err
	}
	mapping, err := LoadMapping(cfg)
	if err != nil {
		return nil, err
	}

	var resolver *graph.Resolver
	if withResolver {
		if resolver, err = BuildResolver(ctx, cfg); err != nil {
			return nil, err
		}
	}

	store := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey)
	tables := pipeline.Tables{
		Greenhouse:     cfg.Supabase.TableGreenhouse,
		Row:            cfg.Supabase.TableRow,
		ConflictColumn: cfg.Supabase.ConflictColumn,
	}
	return pipeline.NewRunner(resolver, store, mapping, tables), nil
}
