// Package config defines the application configuration and its koanf-based
// loader (defaults, yaml file, environment variables).
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	App        AppConfig        `koanf:"app"`
	Log        LogConfig        `koanf:"log"`
	Report     ReportConfig     `koanf:"report"`
	SharePoint SharePointConfig `koanf:"sharepoint"`
	Cache      CacheConfig      `koanf:"cache"`
	Database   DatabaseConfig   `koanf:"database"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Tracing    TracingConfig    `koanf:"tracing"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `koanf:"level"`  // debug, info, warn, error
	Format     string `koanf:"format"` // json, text
	Output     string `koanf:"output"` // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"` // MB
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"` // days
	Compress   bool   `koanf:"compress"`
}

// ReportConfig holds report generation settings.
type ReportConfig struct {
	// Source and destination paths inside the SharePoint site.
	SourcePath      string `koanf:"source_path"`       // server-relative path of the input workbook
	UploadLibrary   string `koanf:"upload_library"`    // document library name
	UploadSubfolder string `koanf:"upload_subfolder"`  // subfolder inside the library
	UploadFilename  string `koanf:"upload_filename"`   // name for the uploaded PDF
	ExportExcelCopy bool   `koanf:"export_excel_copy"` // also upload an .xlsx rendition

	// Content
	HeaderTexts  []string `koanf:"header_texts"`
	FooterText   string   `koanf:"footer_text"`
	LogoPath     string   `koanf:"logo_path"`     // local path of the header logo, optional
	IncludeChart bool     `koanf:"include_chart"` // append a bar-chart page after the table

	// Archive
	SaveToStorage   bool          `koanf:"save_to_storage"`
	DefaultTTL      time.Duration `koanf:"default_ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	PDF PDFConfig `koanf:"pdf"`
}

// PDFConfig holds PDF page geometry and table styling.
type PDFConfig struct {
	PageWidth    float64 `koanf:"page_width"`    // pt
	PageHeight   float64 `koanf:"page_height"`   // pt
	MarginTop    float64 `koanf:"margin_top"`    // pt
	MarginBottom float64 `koanf:"margin_bottom"` // pt
	MarginLeft   float64 `koanf:"margin_left"`   // pt
	MarginRight  float64 `koanf:"margin_right"`  // pt
	HeaderBand   float64 `koanf:"header_band"`   // pt
	FooterBand   float64 `koanf:"footer_band"`   // pt
	FontFamily   string  `koanf:"font_family"`
	FontSize     float64 `koanf:"font_size"`        // pt
	HeaderFont   float64 `koanf:"header_font_size"` // pt

	HeaderBackground string `koanf:"header_background"` // hex colors
	HeaderTextColor  string `koanf:"header_text_color"`
	OddRowColor      string `koanf:"odd_row_color"`
	EvenRowColor     string `koanf:"even_row_color"`
	BorderColor      string `koanf:"border_color"`
}

// SharePointConfig holds SharePoint tenant and credential settings.
type SharePointConfig struct {
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	TenantID     string        `koanf:"tenant_id"`
	Tenant       string        `koanf:"tenant"`
	SiteName     string        `koanf:"site_name"`
	Timeout      time.Duration `koanf:"timeout"`

	// Override endpoints, used by tests. Empty means the real SharePoint hosts.
	TokenEndpoint string `koanf:"token_endpoint"`
	SiteURL       string `koanf:"site_url"`
}

// CacheConfig holds token cache settings.
type CacheConfig struct {
	Driver     string        `koanf:"driver"` // memory, redis
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // memory driver only
}

// Address returns the cache address.
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds archive database settings.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"` // postgres or empty to disable
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Report.PDF.PageWidth <= 0 || c.Report.PDF.PageHeight <= 0 {
		errs = append(errs, "report.pdf.page_width and report.pdf.page_height must be positive")
	}
	if c.Report.PDF.MarginTop < 0 || c.Report.PDF.MarginBottom < 0 ||
		c.Report.PDF.MarginLeft < 0 || c.Report.PDF.MarginRight < 0 {
		errs = append(errs, "report.pdf margins must be non-negative")
	}
	if c.Report.PDF.FontSize <= 0 {
		errs = append(errs, "report.pdf.font_size must be positive")
	}

	validCacheDrivers := map[string]bool{"": true, "memory": true, "redis": true}
	if !validCacheDrivers[c.Cache.Driver] {
		errs = append(errs, fmt.Sprintf("cache.driver must be memory or redis, got %s", c.Cache.Driver))
	}

	if c.Database.Driver != "" && c.Database.Driver != "postgres" {
		errs = append(errs, fmt.Sprintf("database.driver must be postgres or empty, got %s", c.Database.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	return nil
}
