package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader(WithConfigPaths()).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Check defaults
	if cfg.App.Name != "reportmill" {
		t.Errorf("expected app name 'reportmill', got %s", cfg.App.Name)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Report.PDF.PageWidth != 15*72.0 {
		t.Errorf("expected page width %v, got %v", 15*72.0, cfg.Report.PDF.PageWidth)
	}
	if cfg.Report.PDF.FontSize != 10.0 {
		t.Errorf("expected font size 10, got %v", cfg.Report.PDF.FontSize)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("expected cache driver 'memory', got %s", cfg.Cache.Driver)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("expected metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestLoader_LoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
app:
  name: monthly-report
  version: 2.0.0
  environment: staging
log:
  level: debug
report:
  footer_text: Confidential
  pdf:
    page_width: 595
    page_height: 842
    odd_row_color: "#FFFFFF"
    even_row_color: "#EEEEEE"
sharepoint:
  tenant: contoso
  site_name: finance
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader(WithConfigPaths(configPath))
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "monthly-report" {
		t.Errorf("expected app name 'monthly-report', got %s", cfg.App.Name)
	}
	if cfg.Report.FooterText != "Confidential" {
		t.Errorf("expected footer 'Confidential', got %s", cfg.Report.FooterText)
	}
	if cfg.Report.PDF.PageWidth != 595 {
		t.Errorf("expected page width 595, got %v", cfg.Report.PDF.PageWidth)
	}
	if cfg.Report.PDF.EvenRowColor != "#EEEEEE" {
		t.Errorf("expected even row color '#EEEEEE', got %s", cfg.Report.PDF.EvenRowColor)
	}
	if cfg.SharePoint.Tenant != "contoso" {
		t.Errorf("expected tenant 'contoso', got %s", cfg.SharePoint.Tenant)
	}
}

func TestLoader_LoadFromEnv(t *testing.T) {
	os.Setenv("REPORTMILL_APP_NAME", "env-report")
	os.Setenv("REPORTMILL_REPORT_FOOTER_TEXT", "Internal Use Only")
	os.Setenv("REPORTMILL_REPORT_HEADER_TEXTS", "Monthly Report, August 2026")
	defer func() {
		os.Unsetenv("REPORTMILL_APP_NAME")
		os.Unsetenv("REPORTMILL_REPORT_FOOTER_TEXT")
		os.Unsetenv("REPORTMILL_REPORT_HEADER_TEXTS")
	}()

	cfg, err := NewLoader(WithConfigPaths()).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "env-report" {
		t.Errorf("expected app name 'env-report', got %s", cfg.App.Name)
	}
	if cfg.Report.FooterText != "Internal Use Only" {
		t.Errorf("expected footer 'Internal Use Only', got %s", cfg.Report.FooterText)
	}
	if len(cfg.Report.HeaderTexts) != 2 || cfg.Report.HeaderTexts[0] != "Monthly Report" {
		t.Errorf("expected two header texts, got %v", cfg.Report.HeaderTexts)
	}
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
report:
  footer_text: from-file
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	os.Setenv("REPORTMILL_REPORT_FOOTER_TEXT", "from-env")
	defer os.Unsetenv("REPORTMILL_REPORT_FOOTER_TEXT")

	cfg, err := NewLoader(WithConfigPaths(configPath)).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Report.FooterText != "from-env" {
		t.Errorf("env should override file, got %s", cfg.Report.FooterText)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing app name",
			mutate:  func(c *Config) { c.App.Name = "" },
			wantErr: true,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.Report.PDF.PageWidth = 0 },
			wantErr: true,
		},
		{
			name:    "negative margin",
			mutate:  func(c *Config) { c.Report.PDF.MarginLeft = -1 },
			wantErr: true,
		},
		{
			name:    "bad cache driver",
			mutate:  func(c *Config) { c.Cache.Driver = "memcached" },
			wantErr: true,
		},
		{
			name:    "bad database driver",
			mutate:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewLoader(WithConfigPaths()).Load()
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
