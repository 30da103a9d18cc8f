package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/toolup/internal/output"
)

func newComponentCmd() *cobra.Command {
	var (
		toolchain string
		target    string
	)

	cmd := &cobra.Command{
		Use:   "component",
		Short: "Add, remove and list toolchain components",
	}
	cmd.PersistentFlags().StringVar(&toolchain, "toolchain", "", "Toolchain to modify (default: default_toolchain)")

	add := &cobra.Command{
		Use:   "add <component>...",
		Short: "Add components to an installed toolchain",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(w *output.Writer, svc *Service) error {
				return runComponentModify(cmd.Context(), w, svc, toolchain, target, args, nil)
			})
		},
	}
	add.Flags().StringVar(&target, "target", "", "Target of the components")

	remove := &cobra.Command{
		Use:   "remove <component>...",
		Short: "Remove components from an installed toolchain",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(w *output.Writer, svc *Service) error {
				return runComponentModify(cmd.Context(), w, svc, toolchain, target, nil, args)
			})
		},
	}
	remove.Flags().StringVar(&target, "target", "", "Target of the components")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the components a toolchain offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(w *output.Writer, svc *Service) error {
				return runComponentList(w, svc, toolchain)
			})
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

func runComponentModify(ctx context.Context, w *output.Writer, svc *Service, toolchain, target string, add, remove []string) error {
	tc, err := svc.ResolveToolchain(toolchain)
	if err != nil {
		return err
	}
	result, err := svc.ModifyComponents(ctx, tc, add, remove, target)
	if err != nil {
		return err
	}
	if err := w.Write(result); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runComponentList(w *output.Writer, svc *Service, toolchain string) error {
	tc, err := svc.ResolveToolchain(toolchain)
	if err != nil {
		return err
	}
	list, err := svc.ListComponents(tc)
	if err != nil {
		return err
	}
	if err := w.Write(list); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
