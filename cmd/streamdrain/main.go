package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCommand(config *Config, exitCode *int) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "streamdrain [flags] -- command [args...]",
		Short: "Run a command and capture its stdout and stderr line by line",
		Long: `streamdrain runs a command, drains its standard output and standard error
concurrently so the child never blocks on a full pipe, and forwards the captured
lines to a sink once the command has finished.

Examples:
  # Run a build and mirror its output to the terminal
  streamdrain -- make test

  # Keep the last 1000 lines per stream and store the run in SQLite
  streamdrain --capture.max-lines 1000 --store.enable -- ./long-job.sh

  # Decode legacy output and write it to a rotated file
  streamdrain -e windows-1252 --sink.type file --sink.file.path /tmp/out.log -- ./legacy-tool`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadFromViper(cmd, viper.New()); err != nil {
				return err
			}
			return config.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := setupLogging(config.Log)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			code, err := runCommand(ctx, config, args)
			*exitCode = code
			return err
		},
	}
	// everything after the command name belongs to the command
	rootCmd.Flags().SetInterspersed(false)
	config.SetupFlags(rootCmd)
	return rootCmd
}

func main() {
	exitCode := 0
	rootCmd := newRootCommand(DefaultConfig(), &exitCode)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error(err.Error())
		if exitCode == 0 {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}
