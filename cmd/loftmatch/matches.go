package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	service "github.com/okian/loftmatch/internal/app"
	"github.com/okian/loftmatch/internal/domain/types"
	"github.com/spf13/cobra"
)

func newMatchesCmd(c *cli) *cobra.Command {
	var (
		data, id, side, output string
		limit                  int
	)
	cmd := &cobra.Command{
		Use:   "matches",
		Short: "Rank every partner of one individual from a dataset file",
		Long: "Scores the individual against each member of the opposite gender and prints " +
			"them best first. Partners with unreadable records are reported as skipped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := c.startService(ctx)
			if err != nil {
				return err
			}
			defer svc.Stop()

			summary, err := loadFile(ctx, svc, data)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", data, err)
			}
			res, err := svc.Matches(ctx, service.MatchRequest{
				SessionID: summary.SessionID,
				ID:        id,
				Side:      side,
				Limit:     limit,
			})
			if err != nil {
				return err
			}
			return writeMatches(cmd.OutOrStdout(), output, res)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&data, "data", "d", "", "Path to the dataset file, .csv or .xlsx (required)")
	f.StringVar(&id, "id", "", "ID of the individual to rank partners for (required)")
	f.StringVarP(&side, "side", "s", "", "Gender of the individual: male or female (required)")
	f.IntVarP(&limit, "limit", "n", 0, "Show only the best N partners (0 shows all)")
	f.StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	markRequired(cmd, "data", "id", "side")
	return cmd
}

func writeMatches(w io.Writer, format string, res types.Matches) error {
	if ok, err := encodeStructured(w, format, res); ok {
		return err
	}
	switch strings.ToLower(format) {
	case "", "text":
		fmt.Fprintf(w, "Partners for %s (%s), %d scored\n", res.Subject.Label, res.Side, res.Scored)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tID\tNAME\tSCORE\tBAND")
		for i, m := range res.Matches {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\n", i+1, m.Partner.ID, m.Partner.Name, m.Compatibility, m.Band)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if len(res.Skipped) > 0 {
			fmt.Fprintf(w, "Skipped: %s\n", strings.Join(res.Skipped, ", "))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
