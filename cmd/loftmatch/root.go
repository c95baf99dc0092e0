package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/loftmatch/internal/adapters/loader"
	service "github.com/okian/loftmatch/internal/app"
	"github.com/okian/loftmatch/internal/config"
	"github.com/okian/loftmatch/internal/domain/types"
	"github.com/okian/loftmatch/pkg/logger"
	"github.com/spf13/cobra"
)

// cli carries state shared by every subcommand once the root has run.
type cli struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "loftmatch",
		Short: "Pigeon breeding-pair compatibility scorer",
		Long: "loftmatch loads pigeon datasets (CSV or XLSX) and scores the compatibility " +
			"of a male and female pair on a 0 to 100 scale.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "Path to a YAML config file (default $"+config.EnvConfigPath+")")
	pf.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&c.logFormat, "log-format", "", "Log format: text or json")

	root.AddCommand(
		newServeCmd(c),
		newScoreCmd(c),
		newCandidatesCmd(c),
		newMatchesCmd(c),
		newLoadtestCmd(c),
		newSampleCmd(c),
	)
	return root
}

// setup loads configuration and initializes logging on stderr so that
// command output on stdout stays machine readable.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	path := c.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfigPath)
	}
	cfg, err := config.LoadFile(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.logFormat != "" {
		cfg.LogFormat = c.logFormat
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}

	format := logger.Format(strings.ToLower(cfg.LogFormat))
	if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr()), logger.WithFormat(format)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	c.log = logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		c.log.Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	return nil
}

// startService builds and starts a service from the loaded configuration.
func (c *cli) startService(ctx context.Context) (*service.Service, error) {
	svc := service.New(
		service.WithLogger(c.log),
		service.WithNormalizer(c.cfg.Normalizer()),
		service.WithWeights(c.cfg.Weights),
		service.WithTargetWeight(c.cfg.TargetWeight),
		service.WithMaxSessions(c.cfg.MaxSessions),
		service.WithFirstMatch(c.cfg.FirstMatch),
		service.WithWorkerCount(c.cfg.Workers),
		service.WithQueueSize(c.cfg.QueueSize),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start service: %w", err)
	}
	return svc, nil
}

// loadFile loads a dataset file into svc using the format implied by its extension.
func loadFile(ctx context.Context, svc *service.Service, path string) (types.DatasetSummary, error) {
	format, err := loader.FormatFromName(path)
	if err != nil {
		return types.DatasetSummary{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return types.DatasetSummary{}, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return svc.LoadDataset(ctx, filepath.Base(path), f, format)
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
}
