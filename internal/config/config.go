// =============================================================================
// Merchant Fee Intake - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Settings come from three
// layers, later layers overriding earlier ones:
//
//   1. Built-in defaults (applyDefaults)
//   2. The YAML file given by --config (optional; defaults are used when the
//      file does not exist)
//   3. Environment variables prefixed INTAKE_, optionally from a .env file
//
// ENVIRONMENT OVERRIDES:
//   INTAKE_DEFAULT_SCHEMA      default_schema
//   INTAKE_PREVIEW_ROWS        preview_rows
//   INTAKE_MAX_CONCURRENCY     max_concurrency
//   INTAKE_LOG_LEVEL           log_level
//   INTAKE_OUTPUT_DIR          output_dir
//   INTAKE_CSV_DELIMITER       csv.delimiter
//   INTAKE_SERVER_PORT         server.port
//   INTAKE_SERVER_BODY_LIMIT_MB server.body_limit_mb
//   INTAKE_PRICING_BASE_URL    pricing.base_url
//   INTAKE_PRICING_TIMEOUT     pricing.timeout
//   INTAKE_DATABASE_URL        database.url
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/merchant-fee-intake/internal/apperrors"
	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// Schemas maps a schema name to its required columns.
	// Default: "standard" (6 columns) and "extended" (adds card_brand).
	Schemas map[string][]string `yaml:"schemas" validate:"required,min=1"`

	// DefaultSchema is used when a request names no schema.
	DefaultSchema string `yaml:"default_schema" validate:"required"`

	// PreviewRows caps the preview returned to callers. The accepted data
	// itself is never truncated.
	PreviewRows int `yaml:"preview_rows" validate:"gte=1"`

	// MaxConcurrency bounds the number of files validated at once by the CLI.
	MaxConcurrency int `yaml:"max_concurrency" validate:"gte=1"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// OutputDir receives reports and exports written by the CLI.
	OutputDir string `yaml:"output_dir" validate:"required"`

	CSV      CSVSettings    `yaml:"csv"`
	Server   ServerConfig   `yaml:"server"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Database DatabaseConfig `yaml:"database"`
}

// CSVSettings contains settings for parsing delimited uploads.
type CSVSettings struct {
	// Delimiter is a single character or one of: comma, semicolon, pipe, tab.
	// Default: ","
	Delimiter string `yaml:"delimiter"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        string `yaml:"port" validate:"required,numeric"`
	BodyLimitMB int    `yaml:"body_limit_mb" validate:"gte=1"`
}

// PricingConfig configures the downstream pricing backend.
// An empty BaseURL selects the built-in stub.
type PricingConfig struct {
	BaseURL string        `yaml:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// DatabaseConfig configures batch persistence. An empty URL disables it.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns" validate:"gte=0"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration file at path, applies defaults and
// environment overrides, and validates the result. A missing file is not an
// error; the defaults are used instead.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyDefaults(&cfg)

	// A missing .env file is fine.
	_ = godotenv.Load()
	applyEnvOverrides(&cfg, newEnvReader())

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults fills every unset field.
func applyDefaults(cfg *Config) {
	if len(cfg.Schemas) == 0 {
		cfg.Schemas = map[string][]string{
			"standard": append([]string(nil), types.StandardColumns...),
			"extended": append([]string(nil), types.ExtendedColumns...),
		}
	}
	normalized := make(map[string][]string, len(cfg.Schemas))
	for name, cols := range cfg.Schemas {
		normalized[strings.ToLower(strings.TrimSpace(name))] = cols
	}
	cfg.Schemas = normalized

	cfg.DefaultSchema = strings.ToLower(strings.TrimSpace(cfg.DefaultSchema))
	if cfg.DefaultSchema == "" {
		cfg.DefaultSchema = "standard"
	}
	if cfg.PreviewRows == 0 {
		cfg.PreviewRows = 10
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.CSV.Delimiter == "" {
		cfg.CSV.Delimiter = ","
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.BodyLimitMB == 0 {
		cfg.Server.BodyLimitMB = 10
	}
	if cfg.Pricing.Timeout == 0 {
		cfg.Pricing.Timeout = 15 * time.Second
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 4
	}
}

// newEnvReader returns a viper instance bound to the INTAKE_ variables.
func newEnvReader() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("INTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// applyEnvOverrides copies every INTAKE_ variable that is set onto cfg.
func applyEnvOverrides(cfg *Config, v *viper.Viper) {
	if v.IsSet("default_schema") {
		cfg.DefaultSchema = v.GetString("default_schema")
	}
	if v.IsSet("preview_rows") {
		cfg.PreviewRows = v.GetInt("preview_rows")
	}
	if v.IsSet("max_concurrency") {
		cfg.MaxConcurrency = v.GetInt("max_concurrency")
	}
	if v.IsSet("log_level") {
		cfg.LogLevel = strings.ToLower(v.GetString("log_level"))
	}
	if v.IsSet("output_dir") {
		cfg.OutputDir = v.GetString("output_dir")
	}
	if v.IsSet("csv.delimiter") {
		cfg.CSV.Delimiter = v.GetString("csv.delimiter")
	}
	if v.IsSet("server.port") {
		cfg.Server.Port = v.GetString("server.port")
	}
	if v.IsSet("server.body_limit_mb") {
		cfg.Server.BodyLimitMB = v.GetInt("server.body_limit_mb")
	}
	if v.IsSet("pricing.base_url") {
		cfg.Pricing.BaseURL = v.GetString("pricing.base_url")
	}
	if v.IsSet("pricing.timeout") {
		cfg.Pricing.Timeout = v.GetDuration("pricing.timeout")
	}
	if v.IsSet("database.url") {
		cfg.Database.URL = v.GetString("database.url")
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	for name, cols := range c.Schemas {
		if strings.TrimSpace(name) == "" {
			return errors.New("schema names must not be empty")
		}
		if len(cols) == 0 {
			return fmt.Errorf("schema %q has no columns", name)
		}
		for _, col := range cols {
			if strings.TrimSpace(col) == "" {
				return fmt.Errorf("schema %q has an empty column name", name)
			}
		}
	}
	if _, ok := c.Schemas[c.DefaultSchema]; !ok {
		return fmt.Errorf("default_schema %q is not defined in schemas", c.DefaultSchema)
	}
	return nil
}

// =============================================================================
// SCHEMA LOOKUP
// =============================================================================

// Schema returns the required columns for name. An empty name selects the
// default schema.
func (c *Config) Schema(name string) (types.RequiredColumnSet, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = c.DefaultSchema
	}
	cols, ok := c.Schemas[key]
	if !ok {
		return nil, fmt.Errorf("schema %q: %w", name, apperrors.ErrNotFound)
	}
	return types.RequiredColumnSet(cols).Normalize(), nil
}

// SchemaNames returns the configured schema names in sorted order.
func (c *Config) SchemaNames() []string {
	names := make([]string, 0, len(c.Schemas))
	for name := range c.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
