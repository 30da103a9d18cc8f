package diff

import (
	"fmt"
	"strings"

	"github.com/adamancini/toolup/internal/dist"
)

// Command is a toolup invocation that applies part of a diff.
type Command struct {
	Command     string `json:"command" yaml:"command"`
	Description string `json:"description" yaml:"description"`
}

// GenerateCommands returns the commands that bring the toolchain up to date.
// Components the release does not publish must be removed before the
// update can succeed, so their removal comes first.
func (r *Result) GenerateCommands() []Command {
	if r.UpToDate() {
		return nil
	}

	var commands []Command
	for _, d := range r.Components {
		if d.Action != ActionUnavailable {
			continue
		}
		commands = append(commands, Command{
			Command:     dist.RemoveHint(r.Toolchain, d.component),
			Description: fmt.Sprintf("Remove %s, which is not published in the %s release", d.Name, r.AvailableDate),
		})
	}

	desc := fmt.Sprintf("Update %s to %s", r.Toolchain, r.AvailableVersion)
	if r.CurrentVersion != "" {
		desc = fmt.Sprintf("Update %s from %s to %s", r.Toolchain, r.CurrentVersion, r.AvailableVersion)
	}
	commands = append(commands, Command{
		Command:     "toolup update " + r.Toolchain,
		Description: desc,
	})
	return commands
}

// FormatCommands formats commands for shell execution.
func FormatCommands(commands []Command, includeComments bool) string {
	var output strings.Builder

	for _, cmd := range commands {
		if includeComments {
			output.WriteString(fmt.Sprintf("# %s\n", cmd.Description))
		}
		output.WriteString(fmt.Sprintf("%s\n", cmd.Command))
		if includeComments {
			output.WriteString("\n")
		}
	}

	return output.String()
}

// String renders the result as a short report.
func (r *Result) String() string {
	var b strings.Builder
	current := r.CurrentVersion
	if current == "" {
		current = "(unknown version)"
	}
	if r.UpToDate() {
		fmt.Fprintf(&b, "%s - up to date: %s\n", r.Toolchain, current)
		return b.String()
	}
	fmt.Fprintf(&b, "%s - update available: %s -> %s\n", r.Toolchain, current, r.AvailableVersion)
	for _, c := range r.Components {
		if c.Action == ActionNone {
			continue
		}
		fmt.Fprintf(&b, "  %-11s %s\n", c.Action, c.Name)
	}
	return b.String()
}
