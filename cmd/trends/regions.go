package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/couchcryptid/outbreak-trends/internal/domain"
	"github.com/spf13/cobra"
)

func newRegionsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List loaded regions with their latest counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, _, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			summaries := idx.Summaries()
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}
			return writeSummaryTable(a, summaries)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print regions as JSON")
	return cmd
}

func writeSummaryTable(a *app, summaries []domain.RegionSummary) error {
	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "REGION\tDAYS\tLAST DAY\tCONFIRMED\tDEATHS\tRECOVERED\t")
	for _, s := range summaries {
		last := "-"
		if !s.LastDay.IsZero() {
			last = s.LastDay.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%d\t\n",
			s.Region, s.Days, last, s.Confirmed, s.Deaths, s.Recovered)
	}
	return tw.Flush()
}
