package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is t.Chdir for pre-1.24 toolchains: change into dir and restore
// the original working directory when the test finishes.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestInitializeConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir()) // keep a developer's local config.yaml out of the test

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "Tend Exports", cfg.Graph.FolderPath)
	assert.Equal(t, ".csv", cfg.Graph.FileSuffix)
	assert.Equal(t, "garden31-secret", cfg.Graph.ClientState)
	assert.Equal(t, "gh_planting_log", cfg.Supabase.TableGreenhouse)
	assert.Equal(t, "row_planting_log", cfg.Supabase.TableRow)
	assert.Equal(t, "Tend ID", cfg.Supabase.ConflictColumn)
	assert.Equal(t, ":8080", cfg.Webhook.Addr)
	assert.Equal(t, "/graph/webhook", cfg.Webhook.Path)
}

func TestInitializeConfigEnvBindings(t *testing.T) {
	chdir(t, t.TempDir())

	// The deployment's historical env names work unprefixed.
	t.Setenv("MS_TENANT_ID", "tenant-1")
	t.Setenv("MS_CLIENT_ID", "client-1")
	t.Setenv("MS_CLIENT_SECRET", "secret-1")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "srk")
	t.Setenv("SUPABASE_TABLE_GH", "gh_override")
	// Prefixed AutomaticEnv covers the rest.
	t.Setenv("TEND_GRAPH_DRIVE_ID", "d1")
	t.Setenv("TEND_LOG_LEVEL", "debug")

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "tenant-1", cfg.Graph.TenantID)
	assert.Equal(t, "secret-1", cfg.Graph.ClientSecret)
	assert.Equal(t, "https://example.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, "gh_override", cfg.Supabase.TableGreenhouse)
	assert.Equal(t, "d1", cfg.Graph.DriveID)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitializeConfigInvalidLogLevel(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TEND_LOG_LEVEL", "shouting")

	_, err := InitializeConfig()
	assert.Error(t, err)
}

func TestRequireGraph(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name: "complete with drive id",
			mutate: func(c *Config) {
				c.Graph.TenantID = "t"
				c.Graph.ClientID = "c"
				c.Graph.ClientSecret = "s"
				c.Graph.DriveID = "d1"
			},
		},
		{
			name: "complete with site lookup",
			mutate: func(c *Config) {
				c.Graph.TenantID = "t"
				c.Graph.ClientID = "c"
				c.Graph.ClientSecret = "s"
				c.Graph.SiteHostname = "x.sharepoint.com"
				c.Graph.SitePath = "sites/Garden31"
			},
		},
		{
			name: "missing credentials named",
			mutate: func(c *Config) {
				c.Graph.TenantID = "t"
				c.Graph.DriveID = "d1"
			},
			wantErr: "MS_CLIENT_ID",
		},
		{
			name:    "missing target named",
			mutate:  func(c *Config) { c.Graph.TenantID = "t"; c.Graph.ClientID = "c"; c.Graph.ClientSecret = "s" },
			wantErr: "MS_DRIVE_ID or MS_SITE_HOSTNAME+MS_SITE_PATH",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			tc.mutate(&cfg)
			err := cfg.RequireGraph()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestRequireSupabase(t *testing.T) {
	var cfg Config
	err := cfg.RequireSupabase()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL")
	assert.Contains(t, err.Error(), "SUPABASE_SERVICE_ROLE_KEY")

	cfg.Supabase.URL = "https://example.supabase.co"
	cfg.Supabase.ServiceRoleKey = "srk"
	assert.NoError(t, cfg.RequireSupabase())
}
