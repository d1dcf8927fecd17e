package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/gazette-archiver/internal/app"
	"github.com/JakeFAU/gazette-archiver/internal/gazette"
	"github.com/JakeFAU/gazette-archiver/internal/id/uuid"
)

// newFailuresCmd lists failure ledger entries, optionally for one run.
func newFailuresCmd(opts *rootOptions) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "failures",
		Short: "List documents that could not be archived",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runID != "" {
				if err := uuid.Validate(runID); err != nil {
					return fmt.Errorf("--run: %w", err)
				}
			}
			cfg, _, err := opts.loadRuntime()
			if err != nil {
				return err
			}
			records, err := app.OpenRecords(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				_ = records.Close()
			}()

			failures, err := records.ListFailures(cmd.Context(), runID)
			if err != nil {
				return fmt.Errorf("list failures: %w", err)
			}
			return writeFailures(cmd, failures)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "only show failures from this run id")
	return cmd
}

func writeFailures(cmd *cobra.Command, failures []gazette.Failure) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OCCURRED\tDOCUMENT\tSTAGE\tKIND\tUNIQUE ID\tMESSAGE")
	for _, f := range failures {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
			f.OccurredAt.UTC().Format("2006-01-02T15:04:05Z"),
			f.DocumentID, f.Stage, f.Kind, f.UniqueID, f.Message)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write failures: %w", err)
	}
	return nil
}
