package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg
}

func TestSetDefaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 60*time.Second, cfg.Capture.NavigationTimeout)
	assert.Equal(t, 5*time.Second, cfg.Capture.SettleWait)
	assert.Equal(t, 5, cfg.Capture.MaxLinks)
	assert.Equal(t, "scan_results.csv", cfg.Report.ResultsFile)
	assert.Equal(t, "third_party_map.csv", cfg.Report.ThirdPartyFile)
	assert.Equal(t, "scan_summary.md", cfg.Report.SummaryFile)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig(t)
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Capture.NavigationTimeout = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Capture.MaxLinks = -1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Report.OutputDir = ""
	assert.Error(t, bad.Validate())
}
