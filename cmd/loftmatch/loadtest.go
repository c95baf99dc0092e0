package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/loftmatch/internal/loadtest"
	"github.com/spf13/cobra"
)

func newLoadtestCmd(c *cli) *cobra.Command {
	cfg := loadtest.Config{}
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Drive a running server with generated datasets and concurrent scoring",
		Long: "Uploads a generated loft, scores random pairs concurrently, then checks that the " +
			"ranking endpoint agrees with the individual scores. The dataset is deleted afterwards " +
			"unless --keep is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := loadtest.Run(cmd.Context(), cfg, c.log)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(stats); encErr != nil && err == nil {
				err = fmt.Errorf("failed to write statistics: %w", encErr)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", loadtest.DefaultBaseURL, "Base URL of the service")
	f.IntVar(&cfg.Individuals, "individuals", loadtest.DefaultIndividuals, "Size of the generated loft")
	f.IntVar(&cfg.Pairs, "pairs", loadtest.DefaultPairs, "Number of pairs to score")
	f.IntVar(&cfg.Workers, "workers", 0, "Concurrent request workers (default CPU cores * 2)")
	f.DurationVar(&cfg.Timeout, "timeout", loadtest.DefaultTimeout, "HTTP request timeout")
	f.Uint64Var(&cfg.Seed, "seed", uint64(time.Now().UnixNano()), "Seed for the loft and the pair draw")
	f.BoolVar(&cfg.Keep, "keep", false, "Keep the dataset on the server afterwards")
	return cmd
}
