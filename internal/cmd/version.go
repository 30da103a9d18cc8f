package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/toolup/internal/output"
	"github.com/adamancini/toolup/internal/triple"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
	Host    string `json:"host" yaml:"host"`
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("toolup %s (%s %s)\nhost: %s\n", v.Version, v.Commit, v.Date, v.Host)
}

func newVersionCmd(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWriter(cmd)
			if err != nil {
				return err
			}
			return runVersion(w, VersionInfo{
				Version: version,
				Commit:  commit,
				Date:    date,
				Host:    triple.FromHostOrBuild().String(),
			})
		},
	}
}

func runVersion(w *output.Writer, info VersionInfo) error {
	if err := w.Write(info); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
