// Package diff computes what an update would change in an installed
// toolchain.
package diff

import (
	"slices"

	"github.com/adamancini/toolup/internal/dist"
	"github.com/adamancini/toolup/internal/manifest"
	"github.com/adamancini/toolup/internal/triple"
)

// Action represents what an update does to a component.
type Action string

const (
	ActionNone        Action = "none"        // Already at the published release
	ActionAdd         Action = "add"         // Installed by the update
	ActionRemove      Action = "remove"      // Removed by the update
	ActionUpdate      Action = "update"      // Replaced with the published release
	ActionUnavailable Action = "unavailable" // Wanted but not published; the update would fail
)

// ComponentDiff is the change to one component.
type ComponentDiff struct {
	Name   string `json:"name" yaml:"name"`
	Action Action `json:"action" yaml:"action"`

	component manifest.Component
}

// Result compares an installed toolchain with the published release.
type Result struct {
	Toolchain        string          `json:"toolchain" yaml:"toolchain"`
	CurrentVersion   string          `json:"current_version,omitempty" yaml:"current_version,omitempty"`
	CurrentDate      string          `json:"current_date,omitempty" yaml:"current_date,omitempty"`
	AvailableVersion string          `json:"available_version" yaml:"available_version"`
	AvailableDate    string          `json:"available_date" yaml:"available_date"`
	Components       []ComponentDiff `json:"components" yaml:"components"`
}

// Compute compares the installed manifest and config with available.
// installed and cfg are nil for toolchains installed from a legacy release,
// in which case every component is reported as added.
func Compute(toolchain string, target triple.TargetTriple, installed *manifest.Manifest, cfg *manifest.Config, available *manifest.Manifest) (*Result, error) {
	root, err := available.RootTarget(target)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Toolchain:        toolchain,
		AvailableVersion: available.RootVersion(),
		AvailableDate:    available.Date,
	}
	if installed != nil {
		result.CurrentVersion = installed.RootVersion()
		result.CurrentDate = installed.Date
	}

	cs := dist.BuildChangeSet(available, installed, cfg, dist.Changes{}, root, nil)
	upToDate := installed != nil && installed.Equal(available)

	var starting []manifest.Component
	if cfg != nil {
		starting = cfg.Components
	}

	for _, c := range cs.Final {
		action := ActionAdd
		switch {
		case !isAvailable(available, c):
			action = ActionUnavailable
		case upToDate && slices.Contains(starting, c):
			action = ActionNone
		case slices.Contains(starting, c):
			action = ActionUpdate
		}
		result.Components = append(result.Components, ComponentDiff{Name: c.Name(), Action: action, component: c})
	}
	for _, c := range starting {
		if !slices.Contains(cs.Final, c) {
			result.Components = append(result.Components, ComponentDiff{Name: c.Name(), Action: ActionRemove, component: c})
		}
	}
	return result, nil
}

func isAvailable(m *manifest.Manifest, c manifest.Component) bool {
	tp, err := m.TargetPackage(c)
	return err == nil && tp.Available
}

// UpToDate reports whether an update would change nothing.
func (r *Result) UpToDate() bool {
	add, update, remove, unavailable := r.Summary()
	return add == 0 && update == 0 && remove == 0 && unavailable == 0
}

// Summary returns counts of actions needed.
func (r *Result) Summary() (add, update, remove, unavailable int) {
	for _, c := range r.Components {
		switch c.Action {
		case ActionAdd:
			add++
		case ActionUpdate:
			update++
		case ActionRemove:
			remove++
		case ActionUnavailable:
			unavailable++
		}
	}
	return add, update, remove, unavailable
}
