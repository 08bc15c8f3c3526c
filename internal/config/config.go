// Package config provides Viper-based configuration and logging setup for
// tend-sync.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	once sync.Once
	// Logger is the shared logger instance configured by ConfigureLogging.
	Logger = logrus.New()
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Graph struct {
		TenantID     string `mapstructure:"tenant_id" yaml:"tenant_id"`
		ClientID     string `mapstructure:"client_id" yaml:"client_id"`
		ClientSecret string `mapstructure:"client_secret" yaml:"-"` // never serialize the secret
		SiteHostname string `mapstructure:"site_hostname" yaml:"site_hostname"`
		SitePath     string `mapstructure:"site_path" yaml:"site_path"`
		DriveID      string `mapstructure:"drive_id" yaml:"drive_id"`
		FolderPath   string `mapstructure:"folder_path" yaml:"folder_path"`
		FileSuffix   string `mapstructure:"file_suffix" yaml:"file_suffix"`

		NotificationURL      string `mapstructure:"notification_url" yaml:"notification_url"`
		SubscriptionResource string `mapstructure:"subscription_resource" yaml:"subscription_resource"`
		ClientState          string `mapstructure:"client_state" yaml:"client_state"`
	} `mapstructure:"graph" yaml:"graph"`

	Supabase struct {
		URL             string `mapstructure:"url" yaml:"url"`
		ServiceRoleKey  string `mapstructure:"service_role_key" yaml:"-"` // never serialize the key
		TableGreenhouse string `mapstructure:"table_greenhouse" yaml:"table_greenhouse"`
		TableRow        string `mapstructure:"table_row" yaml:"table_row"`
		ConflictColumn  string `mapstructure:"conflict_column" yaml:"conflict_column"`
	} `mapstructure:"supabase" yaml:"supabase"`

	Webhook struct {
		Addr string `mapstructure:"addr" yaml:"addr"`
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"webhook" yaml:"webhook"`

	Schema struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"schema" yaml:"schema"`
}

// InitializeConfig initializes Viper configuration with hierarchical
// loading: defaults, then an optional config file, then environment
// variables.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.tend-sync")
	v.AddConfigPath(".tend-sync")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TEND")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			Logger.Warnf("Error reading config file %s: %v", v.ConfigFileUsed(), err)
		}
		// No config file is fine, defaults and env vars carry the run.
	}

	// The deployment's historical env var names, bound unprefixed so an
	// existing .env keeps working.
	bindEnvs(v, map[string]string{
		"graph.tenant_id":             "MS_TENANT_ID",
		"graph.client_id":             "MS_CLIENT_ID",
		"graph.client_secret":         "MS_CLIENT_SECRET",
		"graph.site_hostname":         "MS_SITE_HOSTNAME",
		"graph.site_path":             "MS_SITE_PATH",
		"graph.drive_id":              "MS_DRIVE_ID",
		"graph.folder_path":           "MS_FOLDER_PATH",
		"graph.notification_url":      "MS_NOTIFICATION_URL",
		"graph.subscription_resource": "MS_SUBSCRIPTION_RESOURCE",
		"graph.client_state":          "MS_CLIENT_STATE",
		"supabase.url":                "SUPABASE_URL",
		"supabase.service_role_key":   "SUPABASE_SERVICE_ROLE_KEY",
		"supabase.table_greenhouse":   "SUPABASE_TABLE_GH",
		"supabase.table_row":          "SUPABASE_TABLE_ROW",
	})

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func bindEnvs(v *viper.Viper, bindings map[string]string) {
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			Logger.Warnf("Failed to bind %s environment variable: %v", env, err)
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Credentials and drive targets default to empty so every key is
	// registered with viper; unregistered keys never unmarshal from env.
	v.SetDefault("graph.tenant_id", "")
	v.SetDefault("graph.client_id", "")
	v.SetDefault("graph.client_secret", "")
	v.SetDefault("graph.site_hostname", "")
	v.SetDefault("graph.site_path", "")
	v.SetDefault("graph.drive_id", "")
	v.SetDefault("graph.folder_path", "Tend Exports")
	v.SetDefault("graph.file_suffix", ".csv")
	v.SetDefault("graph.notification_url", "")
	v.SetDefault("graph.subscription_resource", "")
	v.SetDefault("graph.client_state", "garden31-secret")

	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.service_role_key", "")

	v.SetDefault("supabase.table_greenhouse", "gh_planting_log")
	v.SetDefault("supabase.table_row", "row_planting_log")
	v.SetDefault("supabase.conflict_column", "Tend ID")

	v.SetDefault("webhook.addr", ":8080")
	v.SetDefault("webhook.path", "/graph/webhook")

	v.SetDefault("schema.file", "")
}

// validateConfig checks the settings every command depends on. Credentials
// are validated separately per command, since a local dry run needs
// neither Graph nor Supabase access.
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}
	if config.Graph.FileSuffix == "" {
		return fmt.Errorf("graph.file_suffix must not be empty")
	}
	return nil
}

// RequireGraph fails when the Graph credentials or target are incomplete.
func (c *Config) RequireGraph() error {
	missing := missingKeys(map[string]string{
		"MS_TENANT_ID":     c.Graph.TenantID,
		"MS_CLIENT_ID":     c.Graph.ClientID,
		"MS_CLIENT_SECRET": c.Graph.ClientSecret,
	})
	if c.Graph.DriveID == "" && (c.Graph.SiteHostname == "" || c.Graph.SitePath == "") {
		missing = append(missing, "MS_DRIVE_ID or MS_SITE_HOSTNAME+MS_SITE_PATH")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing Graph configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RequireSupabase fails when the Supabase target is incomplete.
func (c *Config) RequireSupabase() error {
	missing := missingKeys(map[string]string{
		"SUPABASE_URL":              c.Supabase.URL,
		"SUPABASE_SERVICE_ROLE_KEY": c.Supabase.ServiceRoleKey,
	})
	if len(missing) > 0 {
		return fmt.Errorf("missing Supabase configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func missingKeys(values map[string]string) []string {
	var missing []string
	for key, value := range values {
		if value == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// ConfigureLogging sets up logging from the loaded configuration and
// returns the configured logger.
func ConfigureLogging(config *Config) *logrus.Logger {
	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		Logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	Logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return Logger
}

// LoadEnv loads environment variables from a .env file if one exists in
// the working directory or the project root.
func LoadEnv() {
	once.Do(func() {
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				Logger.Debug("No .env file found, using environment variables")
				return
			}
		}
		if err := godotenv.Load(envFile); err != nil {
			Logger.Warnf("Error loading .env file: %v", err)
			return
		}
		Logger.Infof("Loaded environment variables from %s", envFile)
	})
}
