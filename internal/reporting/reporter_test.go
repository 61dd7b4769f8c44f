package reporting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/privscope-cli/internal/config"
)

func TestGenerate_WritesAllThreeArtifacts(t *testing.T) {
	dir := t.TempDir()
	cfg := config.ReportConfig{
		OutputDir:      dir,
		ResultsFile:    "scan_results.csv",
		ThirdPartyFile: "third_party_map.csv",
		SummaryFile:    "scan_summary.md",
	}

	g := NewGenerator(cfg, zap.NewNop())
	require.NoError(t, g.Generate(testScanResult()))

	for _, name := range []string{"scan_results.csv", "third_party_map.csv", "scan_summary.md"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}

func TestGenerate_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	cfg := config.ReportConfig{
		OutputDir:      dir,
		ResultsFile:    "scan_results.csv",
		ThirdPartyFile: "third_party_map.csv",
		SummaryFile:    "scan_summary.md",
	}

	g := NewGenerator(cfg, zap.NewNop())
	require.NoError(t, g.Generate(testScanResult()))

	_, err := os.Stat(filepath.Join(dir, "scan_summary.md"))
	assert.NoError(t, err)
}
