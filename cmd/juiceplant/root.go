package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jzx17/juiceplant/internal/config"
)

type runOptions struct {
	configPath string
	envFiles   []string
	workers    int
	plants     int
	duration   time.Duration
	perBottle  int
	finalize   string
	logLevel   string
	logFormat  string
	metrics    bool
}

func newRootCommand() *cobra.Command {
	opts := &runOptions{}

	rootCmd := &cobra.Command{
		Use:           "juiceplant",
		Short:         "Run orange juice plants and report the bottles produced",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			return runPlants(cmd.Context(), cmd.OutOrStdout(), cfg, opts.metrics)
		},
	}

	defaults := config.Default()
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration file path (TOML)")
	flags.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "Files with JUICE_* variables to load into the environment")
	flags.IntVar(&opts.workers, "workers", defaults.Workers, "Workers per plant")
	flags.IntVar(&opts.plants, "plants", defaults.Plants, "Number of plants")
	flags.DurationVar(&opts.duration, "duration", defaults.RunDuration(), "How long the plants run")
	flags.IntVar(&opts.perBottle, "per-bottle", defaults.ItemsPerBottle, "Oranges needed to fill one bottle")
	flags.StringVar(&opts.finalize, "finalize", defaults.FinalizeStage, "Stage at which an orange counts as processed")
	flags.StringVar(&opts.logLevel, "log-level", defaults.Logging.Level, "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", defaults.Logging.Format, "Log format (console, json)")
	rootCmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print prometheus metrics after the run")

	rootCmd.AddCommand(newConfigCommand(opts))

	return rootCmd
}

// resolve layers the flags the user actually set on top of file and
// environment configuration
func (o *runOptions) resolve(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(o.envFiles...); err != nil {
		return nil, err
	}

	cfg, err := config.Read(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("plants") {
		cfg.Plants = o.plants
	}
	if flags.Changed("duration") {
		cfg.RunDurationMS = int(o.duration / time.Millisecond)
	}
	if flags.Changed("per-bottle") {
		cfg.ItemsPerBottle = o.perBottle
	}
	if flags.Changed("finalize") {
		cfg.FinalizeStage = o.finalize
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = o.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newConfigCommand(opts *runOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
