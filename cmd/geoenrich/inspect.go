package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/lintang-b-s/osm-geoenrich/pkg/di"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load the osm extract and print the number of POIs per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		inspection, cleanup, err := di.InitializeInspection(cmd.Context())
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer cleanup()

		return printInspection(cmd.OutOrStdout(), inspection)
	},
}

func printInspection(out io.Writer, inspection *di.Inspection) error {
	fmt.Fprintf(out, "extract: %s\n\n", inspection.OSMFile)

	rules := append(inspection.Rules[:0:0], inspection.Rules...)
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Category < rules[j].Category
	})

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tTAG\tPOIS")
	total := 0
	for _, rule := range rules {
		n := inspection.Counts[rule.Category]
		total += n
		fmt.Fprintf(w, "%s\t%s=%s\t%d\n", rule.Category, rule.Key, rule.Value, n)
	}
	fmt.Fprintf(w, "total\t\t%d\n", total)
	return w.Flush()
}
