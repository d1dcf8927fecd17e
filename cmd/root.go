// Package cmd defines and implements the CLI commands for the gazettes executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-archiver/internal/app"
	"github.com/JakeFAU/gazette-archiver/internal/config"
	"github.com/JakeFAU/gazette-archiver/internal/logging"
)

// newApp is the application factory. It is a variable so tests can swap it.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app.App, error) {
	return app.NewApp(ctx, cfg, logger)
}

type rootOptions struct {
	cfgFile string
	envFile string
}

// loadRuntime reads configuration and builds the process logger.
func (o *rootOptions) loadRuntime() (config.Config, *zap.Logger, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, err
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "gazettes",
		Short: "Resolves metadata for scraped gazette PDFs and archives them.",
		Long: `gazettes reads the documents the crawler has scraped, works out which
publication each one is, and copies it to the archive under a deterministic
name, recording the result in the archive database.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (env GAZETTES_* overrides apply)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "optional dotenv file loaded before the environment is read")

	cmd.AddCommand(newArchiveCmd(opts))
	cmd.AddCommand(newFailuresCmd(opts))
	cmd.AddCommand(newRulesCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		zap.L().Error("command execution failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
