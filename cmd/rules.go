package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/gazette-archiver/internal/resolver"
)

// newRulesCmd prints the classification table for operators auditing coverage.
func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the source classification rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeRules(cmd, resolver.Rules())
		},
	}
}

func writeRules(cmd *cobra.Command, rules []resolver.Rule) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HOST\tPATH\tTITLE\tSUBTITLE\tJURISDICTION\tVOLUME")
	for _, r := range rules {
		path := r.Path
		if r.PathPrefix {
			path += "*"
		}
		if len(r.Variants) == 0 {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.Host, path, dash(r.Title), dash(r.Subtitle), r.Jurisdiction, r.Volume)
			continue
		}
		for _, v := range r.Variants {
			title, subtitle, jurisdiction, volume := r.Title, r.Subtitle, r.Jurisdiction, r.Volume
			if v.Title != "" {
				title = v.Title
			}
			if v.Subtitle != "" {
				subtitle = v.Subtitle
			}
			if v.Jurisdiction != "" {
				jurisdiction = v.Jurisdiction
			}
			if v.Volume != "" {
				volume = v.Volume
			}
			fmt.Fprintf(w, "%s\t%s [%s]\t%s\t%s\t%s\t%s\n",
				r.Host, path, strings.Join(v.Tokens, "|"), dash(title), dash(subtitle), jurisdiction, volume)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write rules: %w", err)
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
