package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/toolup/internal/output"
)

func newInstallCmd() *cobra.Command {
	var (
		components []string
		targets    []string
	)

	cmd := &cobra.Command{
		Use:   "install [toolchain...]",
		Short: "Install or update toolchains",
		Long: `Install downloads the toolchain's manifest and installs its required components.

If the toolchain is already installed it is brought up to date. With no
arguments the default toolchain is installed.

Examples:
  toolup install stable
  toolup install nightly-2016-02-01 -c docs
  toolup install stable -t i686-unknown-linux-gnu`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(w *output.Writer, svc *Service) error {
				return runInstall(cmd.Context(), w, svc, args, components, targets)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&components, "component", "c", nil, "Extra component to install (repeatable)")
	cmd.Flags().StringSliceVarP(&targets, "target", "t", nil, "Also install the standard library for target (repeatable)")

	return cmd
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update [toolchain...]",
		Short: "Update installed toolchains",
		Long: `Update brings toolchains up to date with their channel.

With no arguments every installed toolchain is updated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(w *output.Writer, svc *Service) error {
				return runUpdate(cmd.Context(), w, svc, args)
			})
		},
	}
}

// runInstall installs each named toolchain, or the default toolchain when
// names is empty.
func runInstall(ctx context.Context, w *output.Writer, svc *Service, names, components, targets []string) error {
	if len(names) == 0 {
		names = []string{""}
	}

	var report UpdateReport
	for _, name := range names {
		tc, err := svc.ResolveToolchain(name)
		if err != nil {
			return err
		}
		report.Toolchains = append(report.Toolchains, svc.Install(ctx, tc, components, targets))
	}
	return writeReport(w, report)
}

// runUpdate updates the named toolchains, or all installed ones.
func runUpdate(ctx context.Context, w *output.Writer, svc *Service, names []string) error {
	if len(names) > 0 {
		return runInstall(ctx, w, svc, names, nil, nil)
	}
	report, err := svc.UpdateAll(ctx)
	if err != nil {
		return err
	}
	return writeReport(w, report)
}

func writeReport(w *output.Writer, report UpdateReport) error {
	if err := w.Write(report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	switch n := report.Failed(); {
	case n == 0:
		return nil
	case len(report.Toolchains) == 1:
		return report.Toolchains[0].Err()
	default:
		return fmt.Errorf("%d of %d toolchains failed", n, len(report.Toolchains))
	}
}
