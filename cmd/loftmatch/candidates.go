package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/okian/loftmatch/internal/domain/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCandidatesCmd(c *cli) *cobra.Command {
	var data, output string
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List the selectable males and females of a dataset file",
		Args:  cobra.NoArgs,
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
			list, err := svc.Candidates(ctx, summary.SessionID)
			if err != nil {
				return err
			}
			return writeCandidates(cmd.OutOrStdout(), output, list)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "Path to the dataset file, .csv or .xlsx (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	markRequired(cmd, "data")
	return cmd
}

// encodeStructured writes v as indented JSON or YAML. It reports false for
// any other format.
func encodeStructured(w io.Writer, format string, v any) (bool, error) {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func writeCandidates(w io.Writer, format string, list types.Candidates) error {
	if ok, err := encodeStructured(w, format, list); ok {
		return err
	}
	switch strings.ToLower(format) {
	case "", "text":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SIDE\tID\tNAME\tCOLOR")
		for _, m := range list.Males {
			fmt.Fprintf(tw, "male\t%s\t%s\t%s\n", m.ID, m.Name, m.Color)
		}
		for _, f := range list.Females {
			fmt.Fprintf(tw, "female\t%s\t%s\t%s\n", f.ID, f.Name, f.Color)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
