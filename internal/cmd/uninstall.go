package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/adamancini/toolup/internal/output"
)

func newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <toolchain>...",
		Short: "Uninstall toolchains",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(_ *output.Writer, svc *Service) error {
				return runUninstall(cmd.OutOrStdout(), svc, args)
			})
		},
	}
}

func runUninstall(stdout io.Writer, svc *Service, names []string) error {
	for _, name := range names {
		tc, err := svc.ResolveToolchain(name)
		if err != nil {
			return err
		}
		if err := svc.Uninstall(tc); err != nil {
			return fmt.Errorf("failed to uninstall %s: %w", tc, err)
		}
		if !quiet {
			fmt.Fprintf(stdout, "%s uninstalled\n", tc)
		}
	}
	return nil
}
