package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "REPORTMILL_"
	configEnvVar = "CONFIG_PATH"
)

// Loader assembles configuration from multiple sources.
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
}

// NewLoader creates a configuration loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/reportmill/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption configures the loader.
type LoaderOption func(*Loader)

// WithConfigPaths sets the config file search paths.
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load builds the configuration with the following precedence:
// 1. Defaults (lowest)
// 2. Config file (yaml)
// 3. Environment variables (highest)
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := l.loadConfigFile(); err != nil {
		// The file is optional
		fmt.Printf("Warning: %v\n", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		// App
		"app.name":        "reportmill",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Report
		"report.source_path":       "",
		"report.upload_library":    "Shared Documents",
		"report.upload_subfolder":  "reports",
		"report.upload_filename":   "report.pdf",
		"report.export_excel_copy": false,
		"report.header_texts":      []string{},
		"report.footer_text":       "",
		"report.logo_path":         "",
		"report.include_chart":     false,
		"report.save_to_storage":   false,
		"report.default_ttl":       30 * 24 * time.Hour,
		"report.cleanup_interval":  1 * time.Hour,

		// Report - PDF. The original letter-scale geometry: 15x20in pages.
		"report.pdf.page_width":        15 * 72.0,
		"report.pdf.page_height":       20 * 72.0,
		"report.pdf.margin_top":        0.0,
		"report.pdf.margin_bottom":     0.0,
		"report.pdf.margin_left":       0.0,
		"report.pdf.margin_right":      0.0,
		"report.pdf.header_band":       1.3 * 72.0,
		"report.pdf.footer_band":       0.3 * 72.0,
		"report.pdf.font_family":       "Helvetica",
		"report.pdf.font_size":         10.0,
		"report.pdf.header_font_size":  18.0,
		"report.pdf.header_background": "#002060",
		"report.pdf.header_text_color": "#FFFFFF",
		"report.pdf.odd_row_color":     "#FFFFFF",
		"report.pdf.even_row_color":    "#D9E2F3",
		"report.pdf.border_color":      "#000000",

		// SharePoint
		"sharepoint.client_id":      "",
		"sharepoint.client_secret":  "",
		"sharepoint.tenant_id":      "",
		"sharepoint.tenant":         "",
		"sharepoint.site_name":      "",
		"sharepoint.timeout":        60 * time.Second,
		"sharepoint.token_endpoint": "",
		"sharepoint.site_url":       "",

		// Cache
		"cache.driver":      "memory",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.default_ttl": 5 * time.Minute,
		"cache.max_entries": 10000,

		// Database
		"database.driver":             "",
		"database.host":               "localhost",
		"database.port":               5432,
		"database.database":           "reportmill",
		"database.username":           "postgres",
		"database.password":           "",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  5 * time.Minute,
		"database.conn_max_idle_time": 5 * time.Minute,
		"database.auto_migrate":       true,

		// Metrics
		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "reportmill",

		// Tracing
		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": "reportmill",
		"tracing.sample_rate":  0.1,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

// loadEnv maps environment variables onto config keys. Keys containing
// underscores need an explicit mapping; everything else maps by replacing
// underscores with dots.
func (l *Loader) loadEnv() error {
	return l.k.Load(env.ProviderWithValue(l.envPrefix, ".", func(envKey string, value string) (string, interface{}) {
		key := strings.ToLower(strings.TrimPrefix(envKey, l.envPrefix))

		if mappedKey, ok := envKeyMappings[key]; ok {
			key = mappedKey
		} else {
			key = strings.ReplaceAll(key, "_", ".")
		}

		if isSliceField(key) {
			return key, splitAndTrim(value)
		}

		return key, value
	}), nil)
}

// envKeyMappings maps environment variable names to config keys for fields
// whose names themselves contain underscores.
var envKeyMappings = map[string]string{
	// Log
	"log_level":       "log.level",
	"log_format":      "log.format",
	"log_output":      "log.output",
	"log_file_path":   "log.file_path",
	"log_max_size":    "log.max_size",
	"log_max_backups": "log.max_backups",
	"log_max_age":     "log.max_age",
	"log_compress":    "log.compress",

	// Report
	"report_source_path":       "report.source_path",
	"report_upload_library":    "report.upload_library",
	"report_upload_subfolder":  "report.upload_subfolder",
	"report_upload_filename":   "report.upload_filename",
	"report_export_excel_copy": "report.export_excel_copy",
	"report_header_texts":      "report.header_texts",
	"report_footer_text":       "report.footer_text",
	"report_logo_path":         "report.logo_path",
	"report_include_chart":     "report.include_chart",
	"report_save_to_storage":   "report.save_to_storage",
	"report_default_ttl":       "report.default_ttl",
	"report_cleanup_interval":  "report.cleanup_interval",

	// Report - PDF
	"report_pdf_page_width":        "report.pdf.page_width",
	"report_pdf_page_height":       "report.pdf.page_height",
	"report_pdf_margin_top":        "report.pdf.margin_top",
	"report_pdf_margin_bottom":     "report.pdf.margin_bottom",
	"report_pdf_margin_left":       "report.pdf.margin_left",
	"report_pdf_margin_right":      "report.pdf.margin_right",
	"report_pdf_header_band":       "report.pdf.header_band",
	"report_pdf_footer_band":       "report.pdf.footer_band",
	"report_pdf_font_family":       "report.pdf.font_family",
	"report_pdf_font_size":         "report.pdf.font_size",
	"report_pdf_header_font_size":  "report.pdf.header_font_size",
	"report_pdf_header_background": "report.pdf.header_background",
	"report_pdf_header_text_color": "report.pdf.header_text_color",
	"report_pdf_odd_row_color":     "report.pdf.odd_row_color",
	"report_pdf_even_row_color":    "report.pdf.even_row_color",
	"report_pdf_border_color":      "report.pdf.border_color",

	// SharePoint
	"sharepoint_client_id":      "sharepoint.client_id",
	"sharepoint_client_secret":  "sharepoint.client_secret",
	"sharepoint_tenant_id":      "sharepoint.tenant_id",
	"sharepoint_tenant":         "sharepoint.tenant",
	"sharepoint_site_name":      "sharepoint.site_name",
	"sharepoint_timeout":        "sharepoint.timeout",
	"sharepoint_token_endpoint": "sharepoint.token_endpoint",
	"sharepoint_site_url":       "sharepoint.site_url",

	// Cache
	"cache_driver":      "cache.driver",
	"cache_host":        "cache.host",
	"cache_port":        "cache.port",
	"cache_password":    "cache.password",
	"cache_db":          "cache.db",
	"cache_default_ttl": "cache.default_ttl",
	"cache_max_entries": "cache.max_entries",

	// Database
	"database_driver":             "database.driver",
	"database_host":               "database.host",
	"database_port":               "database.port",
	"database_database":           "database.database",
	"database_username":           "database.username",
	"database_password":           "database.password",
	"database_ssl_mode":           "database.ssl_mode",
	"database_max_open_conns":     "database.max_open_conns",
	"database_max_idle_conns":     "database.max_idle_conns",
	"database_conn_max_lifetime":  "database.conn_max_lifetime",
	"database_conn_max_idle_time": "database.conn_max_idle_time",
	"database_auto_migrate":       "database.auto_migrate",

	// Metrics
	"metrics_enabled":   "metrics.enabled",
	"metrics_port":      "metrics.port",
	"metrics_path":      "metrics.path",
	"metrics_namespace": "metrics.namespace",

	// Tracing
	"tracing_enabled":      "tracing.enabled",
	"tracing_endpoint":     "tracing.endpoint",
	"tracing_service_name": "tracing.service_name",
	"tracing_sample_rate":  "tracing.sample_rate",
}

// sliceFields lists keys whose env values are comma-separated lists.
var sliceFields = map[string]bool{
	"report.header_texts": true,
}

func isSliceField(key string) bool {
	return sliceFields[key]
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// MustLoad loads the configuration or panics.
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load loads the configuration with default loader settings.
func Load() (*Config, error) {
	return NewLoader().Load()
}
