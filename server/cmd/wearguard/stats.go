package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marocz/wearguard/server/internal/risk"
	"github.com/marocz/wearguard/server/internal/scrape"
)

// statsFlags holds the parsed flags for the stats command.
type statsFlags struct {
	url    string
	asJSON bool
}

func newStatsCmd() *cobra.Command {
	var flags statsFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise prediction counts from a running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), flags, scrape.New(nil), cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.url, "url", "http://localhost:8080/metrics", "metrics endpoint to scrape")
	f.BoolVar(&flags.asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func runStats(ctx context.Context, flags statsFlags, client *scrape.Client, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := client.Fetch(ctx, flags.url)
	if err != nil {
		return codeError(exitFailure, "%s", err)
	}

	if flags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			return codeError(exitFailure, "writing output: %s", err)
		}
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RISK LEVEL\tPREDICTIONS")
	for _, b := range risk.Bands {
		fmt.Fprintf(tw, "%s\t%.0f\n", b, st.Predictions[b])
	}
	fmt.Fprintf(tw, "total\t%.0f\n", st.Total())
	fmt.Fprintf(tw, "mean probability\t%.4f\n", st.MeanProbability)

	reasons := make([]string, 0, len(st.Errors))
	for r := range st.Errors {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(tw, "errors[%s]\t%.0f\n", r, st.Errors[r])
	}
	return tw.Flush()
}
