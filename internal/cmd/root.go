package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/adamancini/toolup/internal/notify"
	"github.com/adamancini/toolup/internal/output"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	verbose      bool
	quiet        bool
)

// Execute runs the toolup command line.
func Execute(version, commit, date string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd(version, commit, date).ExecuteContext(ctx)
}

func newRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "toolup",
		Short: "Install and update versioned toolchains",
		Long: `toolup installs toolchains from a distribution server and keeps them up to date.

Toolchains are named channel[-date][-target], for example stable, nightly-2016-02-01
or beta-i686-unknown-linux-gnu. Missing target parts are taken from the host.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to settings file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newUninstallCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newComponentCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return output.Formats(), cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd
}

// newLogger builds the stderr logger notifications are written to.
func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openService creates a Service from the global flags. Callers must Close it.
func openService(cmd *cobra.Command) (*Service, error) {
	logger := newLogger(cmd.ErrOrStderr(), verbose, quiet)
	return NewService(configPath, notify.NewSlogHandler(logger))
}

func newWriter(cmd *cobra.Command) (*output.Writer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewWriter(cmd.OutOrStdout(), format), nil
}

// withService runs fn with a writer and an open service.
func withService(cmd *cobra.Command, fn func(w *output.Writer, svc *Service) error) error {
	w, err := newWriter(cmd)
	if err != nil {
		return err
	}
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			svc.handler(notify.Notification{Kind: notify.NonFatalError, Err: err})
		}
	}()
	return fn(w, svc)
}
