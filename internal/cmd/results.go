package cmd

import (
	"fmt"
	"strings"

	"github.com/adamancini/toolup/internal/triple"
)

// Toolchain statuses reported by install and update.
const (
	StatusInstalled = "installed"
	StatusUpdated   = "updated"
	StatusUnchanged = "unchanged"
	StatusFailed    = "failed"
)

// ToolchainResult is the outcome of installing or updating one toolchain.
type ToolchainResult struct {
	Toolchain string `json:"toolchain" yaml:"toolchain"`
	Status    string `json:"status" yaml:"status"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`

	err error
}

func failed(tc triple.ToolchainDesc, err error) ToolchainResult {
	return ToolchainResult{Toolchain: tc.String(), Status: StatusFailed, Error: err.Error(), err: err}
}

// Err returns the error that failed the toolchain, if any.
func (r ToolchainResult) Err() error {
	return r.err
}

func (r ToolchainResult) String() string {
	switch r.Status {
	case StatusFailed:
		return fmt.Sprintf("%s failed: %s\n", r.Toolchain, r.Error)
	case StatusUnchanged:
		return fmt.Sprintf("%s unchanged - %s\n", r.Toolchain, versionOrUnknown(r.Version))
	default:
		return fmt.Sprintf("%s %s - %s\n", r.Toolchain, r.Status, versionOrUnknown(r.Version))
	}
}

func versionOrUnknown(v string) string {
	if v == "" {
		return "(unknown version)"
	}
	return v
}

// UpdateReport collects the results of a multi-toolchain install or update.
type UpdateReport struct {
	Toolchains []ToolchainResult `json:"toolchains" yaml:"toolchains"`
}

// Failed counts the toolchains that failed.
func (r UpdateReport) Failed() int {
	n := 0
	for _, t := range r.Toolchains {
		if t.Status == StatusFailed {
			n++
		}
	}
	return n
}

func (r UpdateReport) String() string {
	if len(r.Toolchains) == 0 {
		return "no toolchains installed\n"
	}
	var b strings.Builder
	for _, t := range r.Toolchains {
		b.WriteString(t.String())
	}
	return b.String()
}

// ComponentStatus describes one component offered by a toolchain.
type ComponentStatus struct {
	Name      string `json:"name" yaml:"name"`
	Required  bool   `json:"required" yaml:"required"`
	Installed bool   `json:"installed" yaml:"installed"`
	Available bool   `json:"available" yaml:"available"`
}

// ComponentList is the output of component list.
type ComponentList struct {
	Toolchain  string            `json:"toolchain" yaml:"toolchain"`
	Components []ComponentStatus `json:"components" yaml:"components"`
}

func (l ComponentList) String() string {
	var b strings.Builder
	for _, c := range l.Components {
		b.WriteString(c.Name)
		switch {
		case c.Required:
			b.WriteString(" (installed, required)")
		case c.Installed:
			b.WriteString(" (installed)")
		case !c.Available:
			b.WriteString(" (unavailable)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ToolchainInfo describes an installed toolchain.
type ToolchainInfo struct {
	Name       string   `json:"name" yaml:"name"`
	Version    string   `json:"version,omitempty" yaml:"version,omitempty"`
	Components []string `json:"components" yaml:"components"`
}

// ShowReport is the output of show.
type ShowReport struct {
	Home             string          `json:"home" yaml:"home"`
	Host             string          `json:"host" yaml:"host"`
	DefaultToolchain string          `json:"default_toolchain,omitempty" yaml:"default_toolchain,omitempty"`
	Toolchains       []ToolchainInfo `json:"toolchains" yaml:"toolchains"`
}

func (r ShowReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "toolup home:  %s\n", r.Home)
	fmt.Fprintf(&b, "host triple:  %s\n", r.Host)
	if r.DefaultToolchain != "" {
		fmt.Fprintf(&b, "default:      %s\n", r.DefaultToolchain)
	}
	b.WriteString("\ninstalled toolchains\n--------------------\n")
	if len(r.Toolchains) == 0 {
		b.WriteString("(none)\n")
	}
	for _, tc := range r.Toolchains {
		fmt.Fprintf(&b, "%s (%s)\n", tc.Name, versionOrUnknown(tc.Version))
		for _, c := range tc.Components {
			fmt.Fprintf(&b, "  %s\n", c)
		}
	}
	return b.String()
}
