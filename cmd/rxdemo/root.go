package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/rxkit/bootstrap"
	"github.com/kbukum/rxkit/config"
	"github.com/kbukum/rxkit/logger"
	"github.com/kbukum/rxkit/version"
)

type rootOptions struct {
	configFile string
	envFile    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          serviceName,
		Short:        "Run integer streams through rxkit operators",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default: searched from cmd/rxdemo/config.yml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", ".env file (default: searched)")

	cmd.AddCommand(
		newRunCommand(opts),
		newScenariosCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// load reads the configuration without applying defaults; bootstrap.NewApp
// finishes it.
func (o *rootOptions) load() (*Config, error) {
	var loaderOpts []config.LoaderOption
	if o.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(o.envFile))
	}

	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, loaderOpts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	var (
		values     []int
		names      []string
		logSignals bool
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured stream and log every value",
		Example: `  rxdemo run --values 1,2,3 --transforms double,inc
  rxdemo run -c ./config.yml --limit 2 --log-signals`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("values") {
				cfg.Stream.Values = values
			}
			if flags.Changed("transforms") {
				cfg.Stream.Transforms = names
			}
			if flags.Changed("log-signals") {
				cfg.Stream.LogSignals = logSignals
			}
			if flags.Changed("limit") {
				cfg.Stream.Limit = limit
			}

			app, err := bootstrap.NewApp(cfg)
			if err != nil {
				return err
			}
			return app.RunTask(cmd.Context(), func(ctx context.Context) error {
				metrics, err := setupTelemetry(ctx, app)
				if err != nil {
					return err
				}
				_, err = runStream(ctx, app.Cfg.Stream, app.Logger, metrics)
				return err
			})
		},
	}
	cmd.Flags().IntSliceVar(&values, "values", nil, "source values")
	cmd.Flags().StringSliceVar(&names, "transforms", nil, "transforms applied in order (double, inc, square, negate)")
	cmd.Flags().BoolVar(&logSignals, "log-signals", false, "log every stream signal")
	cmd.Flags().IntVar(&limit, "limit", 0, "cancel after this many values")
	return cmd
}

func newScenariosCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "Check the reference transform scenarios",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			app, err := bootstrap.NewApp(cfg)
			if err != nil {
				return err
			}
			return app.RunTask(cmd.Context(), func(context.Context) error {
				return runScenarios(referenceScenarios, logger.Get(app.Name).WithComponent("scenarios"))
			})
		},
	}
}

func newVersionCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
