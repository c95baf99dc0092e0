package main

import (
	"fmt"

	"github.com/okian/loftmatch/internal/domain/scoring"
	"github.com/okian/loftmatch/internal/domain/types"
	"github.com/okian/loftmatch/pkg/report"
	"github.com/spf13/cobra"
)

type scoreOptions struct {
	data         string
	male         string
	female       string
	output       string
	targetWeight float64

	color, weight, head, feather, power, health float64
}

func newScoreCmd(c *cli) *cobra.Command {
	o := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one male and female pair from a dataset file",
		Long: "Loads a CSV or XLSX dataset, selects the male and female by ID and prints " +
			"the compatibility report. Weight flags override the configured coefficients.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runScore(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.data, "data", "d", "", "Path to the dataset file, .csv or .xlsx (required)")
	f.StringVarP(&o.male, "male", "m", "", "ID of the male (required)")
	f.StringVarP(&o.female, "female", "f", "", "ID of the female (required)")
	f.StringVarP(&o.output, "output", "o", report.FormatText, "Output format: text, json or yaml")
	f.Float64Var(&o.targetWeight, "target-weight", 0, "Reference weight in grams (default from config)")
	f.Float64Var(&o.color, "w-color", 0, "Color coefficient")
	f.Float64Var(&o.weight, "w-weight", 0, "Weight coefficient")
	f.Float64Var(&o.head, "w-head", 0, "Head coefficient")
	f.Float64Var(&o.feather, "w-feather", 0, "Feather coefficient")
	f.Float64Var(&o.power, "w-power", 0, "Power coefficient")
	f.Float64Var(&o.health, "w-health", 0, "Health coefficient")
	markRequired(cmd, "data", "male", "female")
	return cmd
}

func (c *cli) runScore(cmd *cobra.Command, o *scoreOptions) error {
	renderer, err := report.RendererFor(o.output)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	svc, err := c.startService(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	summary, err := loadFile(ctx, svc, o.data)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", o.data, err)
	}

	req := types.ScoreRequest{SessionID: summary.SessionID, MaleID: o.male, FemaleID: o.female}
	flags := cmd.Flags()
	var weights scoring.WeightOverrides
	for _, ov := range []struct {
		name string
		dst  **float64
		val  float64
	}{
		{"w-color", &weights.Color, o.color},
		{"w-weight", &weights.Weight, o.weight},
		{"w-head", &weights.Head, o.head},
		{"w-feather", &weights.Feather, o.feather},
		{"w-power", &weights.Power, o.power},
		{"w-health", &weights.Health, o.health},
	} {
		if flags.Changed(ov.name) {
			v := ov.val
			*ov.dst = &v
			req.Weights = &weights
		}
	}
	if flags.Changed("target-weight") {
		target := o.targetWeight
		req.TargetWeight = &target
	}

	rep, err := svc.Score(ctx, req)
	if err != nil {
		return err
	}
	return renderer.Render(cmd.OutOrStdout(), rep)
}
