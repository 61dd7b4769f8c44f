// internal/reporting/reporter.go
// Report generation: one scan result in, three artifacts out. Every writer
// here takes an io.Writer so tests never touch the filesystem; the Generator
// owns file handles and the close discipline.
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
	"github.com/xkilldash9x/privscope-cli/internal/config"
)

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// Generator writes the three scan artifacts: the row-level dataset, the
// third-party registry, and the risk summary.
type Generator struct {
	cfg    config.ReportConfig
	logger *zap.Logger
}

func NewGenerator(cfg config.ReportConfig, logger *zap.Logger) *Generator {
	return &Generator{cfg: cfg, logger: logger.Named("reporting")}
}

// Generate writes all artifacts for the scan. A failure writing one artifact
// aborts; partially written files are left for inspection rather than
// cleaned up.
func (g *Generator) Generate(result *schemas.ScanResult) error {
	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", g.cfg.OutputDir, err)
	}

	artifacts := []struct {
		name  string
		write func(io.Writer, *schemas.ScanResult) error
	}{
		{g.cfg.ResultsFile, WriteRows},
		{g.cfg.ThirdPartyFile, WriteThirdPartyRegistry},
		{g.cfg.SummaryFile, WriteSummary},
	}

	for _, artifact := range artifacts {
		path := filepath.Join(g.cfg.OutputDir, artifact.name)
		if err := g.writeFile(path, result, artifact.write); err != nil {
			return err
		}
		g.logger.Info("Report artifact written.", zap.String("path", path))
	}
	return nil
}

func (g *Generator) writeFile(path string, result *schemas.ScanResult, write func(io.Writer, *schemas.ScanResult) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}

	if err := write(f, result); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
