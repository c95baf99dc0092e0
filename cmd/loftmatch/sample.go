package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/okian/loftmatch/internal/adapters/loader"
	"github.com/okian/loftmatch/internal/sampledata"
	"github.com/okian/loftmatch/pkg/logger"
	"github.com/spf13/cobra"
)

const defaultSampleCount = 20

func newSampleCmd(c *cli) *cobra.Command {
	var (
		count       int
		out         string
		seed        uint64
		unknownRate float64
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a synthetic dataset file",
		Long: "Writes a dataset of alternating males and females with IDs P001, P002, ... " +
			"The format follows the extension of --out.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := loader.FormatFromName(out)
			if err != nil {
				return err
			}

			next := 0
			opts := []sampledata.Option{
				sampledata.WithUnknownRate(unknownRate),
				sampledata.WithIDGenerator(func() string {
					next++
					return fmt.Sprintf("P%03d", next)
				}),
			}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, sampledata.WithSeed(seed))
			}
			individuals, err := sampledata.Generate(count, opts...)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			switch format {
			case loader.FormatXLSX:
				err = sampledata.WriteXLSX(f, individuals)
			default:
				err = sampledata.WriteCSV(f, individuals)
			}
			if err = errors.Join(err, f.Close()); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			c.log.Info(cmd.Context(), "sample dataset written",
				logger.String("path", out), logger.Int("count", len(individuals)))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d individuals to %s\n", len(individuals), out)
			return err
		},
	}
	f := cmd.Flags()
	f.IntVarP(&count, "count", "n", defaultSampleCount, "Number of individuals")
	f.StringVarP(&out, "out", "o", "", "Output path ending in .csv or .xlsx (required)")
	f.Uint64Var(&seed, "seed", 0, "Seed for deterministic output")
	f.Float64Var(&unknownRate, "unknown-rate", 0.1, "Share of trait labels missing from the tables")
	markRequired(cmd, "out")
	return cmd
}
