// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`

	// File logging (rotated by lumberjack). Disabled when LogFile is empty.
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig controls the headless browser process.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args            []string `mapstructure:"args" yaml:"args"`
}

// CaptureConfig controls the crawl session.
type CaptureConfig struct {
	// NavigationTimeout bounds a single page load.
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// SettleWait is the fixed post-load window that lets deferred scripts
	// set cookies and fire beacons. Activity after the window is missed;
	// that is a deliberate simplification, not event-driven completion.
	SettleWait time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
	// MaxLinks caps how many same-page links are visited after the seed.
	MaxLinks int `mapstructure:"max_links" yaml:"max_links"`
	// VisitInterval paces navigations (politeness, one visit per interval).
	VisitInterval time.Duration `mapstructure:"visit_interval" yaml:"visit_interval"`
}

// ReportConfig controls the output artifacts.
type ReportConfig struct {
	OutputDir      string `mapstructure:"output_dir" yaml:"output_dir"`
	ResultsFile    string `mapstructure:"results_file" yaml:"results_file"`
	ThirdPartyFile string `mapstructure:"third_party_file" yaml:"third_party_file"`
	SummaryFile    string `mapstructure:"summary_file" yaml:"summary_file"`
}

// SetDefaults registers default values on the given viper instance. Call
// before unmarshalling so that absent keys resolve sensibly.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "privscope")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)

	v.SetDefault("browser.headless", true)

	v.SetDefault("capture.navigation_timeout", 60*time.Second)
	v.SetDefault("capture.settle_wait", 5*time.Second)
	v.SetDefault("capture.max_links", 5)
	v.SetDefault("capture.visit_interval", time.Second)

	v.SetDefault("report.output_dir", ".")
	v.SetDefault("report.results_file", "scan_results.csv")
	v.SetDefault("report.third_party_file", "third_party_map.csv")
	v.SetDefault("report.summary_file", "scan_summary.md")
}

// Validate sanity-checks values that would otherwise fail deep inside the
// capture engine.
func (c *Config) Validate() error {
	if c.Capture.NavigationTimeout <= 0 {
		return fmt.Errorf("capture.navigation_timeout must be positive, got %s", c.Capture.NavigationTimeout)
	}
	if c.Capture.SettleWait < 0 {
		return fmt.Errorf("capture.settle_wait must not be negative, got %s", c.Capture.SettleWait)
	}
	if c.Capture.MaxLinks < 0 {
		return fmt.Errorf("capture.max_links must not be negative, got %d", c.Capture.MaxLinks)
	}
	if c.Report.OutputDir == "" {
		return fmt.Errorf("report.output_dir must not be empty")
	}
	return nil
}
