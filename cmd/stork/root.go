package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stork-lang/stork/internal/config"
	"github.com/stork-lang/stork/internal/logger"
)

// globals are the options shared by every subcommand.
type globals struct {
	configPath string
	logConfig  logger.Config
	color      string

	log *zap.Logger
}

func newRootCommand() *cobra.Command {
	g := &globals{logConfig: logger.NewConfig(), log: zap.NewNop()}
	loader := config.NewLoader()

	cmd := &cobra.Command{
		Use:           "stork",
		Short:         "Compile, inspect and run stork scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if g.configPath != "" {
				if err := loader.ReadFile(g.configPath); err != nil {
					return err
				}
			}
			if err := loader.Load(); err != nil {
				return err
			}
			log, err := g.logConfig.New(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			g.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = g.log.Sync()
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVar(&g.configPath, "config", os.Getenv(config.EnvPrefix+"_CONFIG"), "TOML file with default option values")
	if err := loader.Bind(fs,
		config.NewOpt(&g.logConfig.Level, "log-level", zapcore.WarnLevel, "log level: debug, info, warn, error"),
		config.NewOpt(&g.logConfig.Format, "log-format", "auto", "log format: auto, console, json"),
		config.NewOpt(&g.color, "color", "auto", "colored diagnostics: auto, always, never"),
	); err != nil {
		panic(err)
	}

	cmd.AddCommand(
		newCheckCommand(g),
		newDumpCommand(g),
		newPlanCommand(g),
		newRunCommand(g),
	)
	return cmd
}
