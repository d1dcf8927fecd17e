package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-archiver/internal/archive"
	"github.com/JakeFAU/gazette-archiver/internal/gazette"
	"github.com/JakeFAU/gazette-archiver/internal/metrics"
)

// newArchiveCmd creates the 'archive' subcommand, which runs one pass over the feed.
func newArchiveCmd(opts *rootOptions) *cobra.Command {
	var (
		stopOnError bool
		limit       int
	)
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive every active scraped document once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.loadRuntime()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("stop-on-error") {
				cfg.Run.StopOnError = stopOnError
			}
			if cmd.Flags().Changed("limit") {
				if limit < 0 {
					return fmt.Errorf("--limit must be >= 0")
				}
				cfg.Run.Limit = limit
			}

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			defer a.Close()

			report, runErr := a.Coordinator().Run(cmd.Context())
			printReport(cmd, report)

			pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
				logger.Warn("metrics push failed", zap.Error(err))
			}

			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return fmt.Errorf("archive run: %w", runErr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "stop at the first document that fails")
	cmd.Flags().IntVar(&limit, "limit", 0, "process at most N documents (0 = no limit)")
	return cmd
}

func printReport(cmd *cobra.Command, r archive.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d processed\n", r.RunID, r.Processed)
	for _, s := range []archive.Status{
		archive.StatusArchived,
		archive.StatusDuplicateKnown,
		archive.StatusDuplicateConflict,
		archive.StatusSkippedIndex,
		archive.StatusFailed,
	} {
		fmt.Fprintf(out, "  %-20s %d\n", s, r.ByStatus[s])
	}
	for _, k := range []gazette.FailureKind{
		gazette.KindUnrecognizedSource,
		gazette.KindExtraction,
		gazette.KindNeedsManualReview,
		gazette.KindDecryption,
		gazette.KindUnknownCombination,
		gazette.KindDuplicateConflict,
		gazette.KindStorage,
	} {
		if n := r.ByKind[k]; n > 0 {
			fmt.Fprintf(out, "  failure %-20s %d\n", k, n)
		}
	}
}
