package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/toolup/internal/diff"
	"github.com/adamancini/toolup/internal/output"
)

// CheckReport is the output of check.
type CheckReport struct {
	Toolchains []*diff.Result `json:"toolchains" yaml:"toolchains"`
}

// UpToDate reports whether no toolchain has an update.
func (r CheckReport) UpToDate() bool {
	for _, t := range r.Toolchains {
		if !t.UpToDate() {
			return false
		}
	}
	return true
}

func (r CheckReport) String() string {
	if len(r.Toolchains) == 0 {
		return "no toolchains installed\n"
	}
	var b strings.Builder
	for _, t := range r.Toolchains {
		b.WriteString(t.String())
	}
	return b.String()
}

func newCheckCmd() *cobra.Command {
	var showCommands bool

	cmd := &cobra.Command{
		Use:   "check [toolchain...]",
		Short: "Check installed toolchains for updates",
		Long: `Check compares installed toolchains with the releases their channels
currently publish and reports the component changes an update would make.
Nothing is installed.

With no arguments every installed toolchain is checked.

Use --show-commands to print the commands that apply the updates.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(w *output.Writer, svc *Service) error {
				return runCheck(cmd.Context(), w, svc, args, showCommands)
			})
		},
	}

	cmd.Flags().BoolVar(&showCommands, "show-commands", false, "Output toolup commands instead of a report")

	return cmd
}

func runCheck(ctx context.Context, w *output.Writer, svc *Service, names []string, showCommands bool) error {
	report, err := svc.CheckAll(ctx, names)
	if err != nil {
		return err
	}

	if showCommands {
		var commands []diff.Command
		for _, t := range report.Toolchains {
			commands = append(commands, t.GenerateCommands()...)
		}
		if w.Format() == output.FormatText {
			if len(commands) == 0 {
				return w.WriteText("# No commands needed - already up to date\n")
			}
			return w.WriteText(diff.FormatCommands(commands, true))
		}
		return w.Write(commands)
	}

	if err := w.Write(report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
