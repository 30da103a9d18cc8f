package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/toolup/internal/output"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the toolup home, host triple and installed toolchains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, runShow)
		},
	}
}

func runShow(w *output.Writer, svc *Service) error {
	report, err := svc.Show()
	if err != nil {
		return err
	}
	if err := w.Write(report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
