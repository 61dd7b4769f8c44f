// -- cmd/scan.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/privscope-cli/internal/capture"
	"github.com/xkilldash9x/privscope-cli/internal/config"
	"github.com/xkilldash9x/privscope-cli/internal/observability"
	"github.com/xkilldash9x/privscope-cli/internal/pipeline"
	"github.com/xkilldash9x/privscope-cli/internal/reporting"
)

// newScanCmd creates and configures the `scan` command.
func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [seed-url]",
		Short: "Scans a page and reports its privacy compliance posture",
		Long: `Scan loads the seed URL in a headless browser, follows a bounded set of
its links, and records every cookie and POST request observed along the way.
The captured data is classified, mapped to regulations, and written to the
output directory as two CSV files and a markdown summary.`,
		// A missing seed URL fails here, before any browser resource exists.
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys so command-line values override
			// the config file and environment with the right precedence.
			if err := viper.BindPFlag("capture.max_links", cmd.Flags().Lookup("max-links")); err != nil {
				return err
			}
			if err := viper.BindPFlag("capture.settle_wait", cmd.Flags().Lookup("settle-wait")); err != nil {
				return err
			}
			if err := viper.BindPFlag("capture.navigation_timeout", cmd.Flags().Lookup("timeout")); err != nil {
				return err
			}
			if err := viper.BindPFlag("report.output_dir", cmd.Flags().Lookup("output-dir")); err != nil {
				return err
			}
			return viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// The context passed from main.go is signal-aware.
			ctx := cmd.Context()
			logger := observability.GetLogger()

			var cfg config.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("failed to unmarshal config with flag overrides: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			seedURL, err := normalizeSeedURL(args[0])
			if err != nil {
				return err
			}

			scanID := uuid.New().String()
			logger.Info("Starting privacy scan.",
				zap.String("scan_id", scanID),
				zap.String("seed_url", seedURL),
				zap.Int("max_links", cfg.Capture.MaxLinks),
				zap.Duration("settle_wait", cfg.Capture.SettleWait),
			)

			manager := capture.NewManager(ctx, &cfg, logger)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := manager.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Browser shutdown did not complete cleanly.", zap.Error(err))
				}
			}()

			engine := capture.NewEngine(manager, cfg.Capture, logger)
			captured, err := engine.Run(ctx, seedURL)
			if err != nil {
				if errors.Is(err, capture.ErrSeedUnreachable) {
					return fmt.Errorf("scan aborted: %w", err)
				}
				if errors.Is(err, context.Canceled) {
					logger.Warn("Scan aborted by user signal.", zap.String("scan_id", scanID))
				}
				return err
			}

			result, err := pipeline.NewProcessor(logger).Process(ctx, scanID, captured)
			if err != nil {
				return fmt.Errorf("failed to process capture: %w", err)
			}

			if err := reporting.NewGenerator(cfg.Report, logger).Generate(result); err != nil {
				return fmt.Errorf("failed to write reports: %w", err)
			}

			logger.Info("Scan complete.",
				zap.String("scan_id", scanID),
				zap.Int("pages_visited", len(result.VisitedPages)),
				zap.Int("cookies", len(result.Cookies)),
				zap.Int("post_requests", len(result.Requests)),
				zap.String("output_dir", cfg.Report.OutputDir),
			)
			return nil
		},
	}

	scanCmd.Flags().Int("max-links", 5, "maximum number of discovered links to visit after the seed")
	scanCmd.Flags().Duration("settle-wait", 5*time.Second, "fixed wait after each page load before snapshotting")
	scanCmd.Flags().Duration("timeout", 60*time.Second, "navigation timeout per page")
	scanCmd.Flags().StringP("output-dir", "o", ".", "directory for the report artifacts")
	scanCmd.Flags().Bool("headless", true, "run the browser headless")

	return scanCmd
}

// normalizeSeedURL ensures the seed has an http(s) scheme; a bare hostname
// gets https.
func normalizeSeedURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid seed URL %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https":
		return raw, nil
	case "":
		return "https://" + raw, nil
	default:
		return "", fmt.Errorf("unsupported seed URL scheme %q", u.Scheme)
	}
}
