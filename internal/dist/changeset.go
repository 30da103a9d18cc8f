package dist

import (
	"slices"

	"github.com/adamancini/toolup/internal/manifest"
	"github.com/adamancini/toolup/internal/notify"
)

// Changes are the extensions a caller explicitly adds or removes.
type Changes struct {
	Add    []manifest.Component
	Remove []manifest.Component
}

// IsEmpty reports whether no change was requested.
func (c Changes) IsEmpty() bool {
	return len(c.Add) == 0 && len(c.Remove) == 0
}

// ChangeSet is the result of resolving an update.
type ChangeSet struct {
	// Uninstall lists installed components to remove, in order.
	Uninstall []manifest.Component
	// Install lists components to download and install, in order.
	Install []manifest.Component
	// Final is the installed config after the update.
	Final []manifest.Component
}

// IsEmpty reports whether the update touches nothing on disk.
func (cs ChangeSet) IsEmpty() bool {
	return len(cs.Uninstall) == 0 && len(cs.Install) == 0
}

// BuildChangeSet computes the components to remove and install to move from
// the state recorded by oldManifest and cfg to newManifest with changes
// applied. root is the root package entry of newManifest for the toolchain's
// target.
//
// Adds and removes must name extensions of root, must not overlap, and
// removes must be installed. Violations are caller bugs and panic.
//
// When oldManifest equals newManifest only the difference is applied.
// Otherwise every installed component is removed and the whole final list is
// installed, since components from different releases are never mixed.
func BuildChangeSet(newManifest, oldManifest *manifest.Manifest, cfg *manifest.Config, changes Changes, root *manifest.TargetedPackage, handler notify.Handler) ChangeSet {
	if handler == nil {
		handler = notify.Discard
	}

	for _, c := range changes.Add {
		if !slices.Contains(root.Extensions, c) {
			panic("package must contain extension to add: " + c.Name())
		}
		if slices.Contains(changes.Remove, c) {
			panic("can't both add and remove extension: " + c.Name())
		}
	}
	for _, c := range changes.Remove {
		if !slices.Contains(root.Extensions, c) {
			panic("package must contain extension to remove: " + c.Name())
		}
		if cfg == nil {
			panic("removing extension requires an installed config: " + c.Name())
		}
		if !cfg.Contains(c) {
			panic("removing extension that is not installed: " + c.Name())
		}
	}

	var starting []manifest.Component
	if cfg != nil {
		starting = slices.Clone(cfg.Components)
	}

	final := slices.Clone(root.Components)
	for _, c := range changes.Add {
		if !slices.Contains(final, c) {
			final = append(final, c)
		}
	}
	for _, existing := range starting {
		if slices.Contains(changes.Remove, existing) {
			continue
		}
		if renamed, ok := newManifest.Rename(existing); ok {
			if !slices.Contains(final, renamed) {
				final = append(final, renamed)
			}
			continue
		}
		if slices.Contains(root.Extensions, existing) && !slices.Contains(final, existing) {
			final = append(final, existing)
		}
	}

	cs := ChangeSet{Final: final}
	if oldManifest != nil && oldManifest.Equal(newManifest) {
		for _, c := range starting {
			if !slices.Contains(final, c) {
				cs.Uninstall = append(cs.Uninstall, c)
			}
		}
		for _, c := range final {
			if !slices.Contains(starting, c) {
				cs.Install = append(cs.Install, c)
			} else if slices.Contains(changes.Add, c) {
				handler(notify.Notification{Kind: notify.ComponentAlreadyInstalled, Name: c.Name()})
			}
		}
	} else {
		cs.Uninstall = starting
		cs.Install = slices.Clone(final)
	}
	return cs
}

// checkAvailability returns one error naming every component of install the
// manifest cannot provide.
func checkAvailability(m *manifest.Manifest, install []manifest.Component, toolchain string, handler notify.Handler) error {
	var unavailable []manifest.Component
	for _, c := range install {
		tp, err := m.TargetPackage(c)
		if err == nil && tp.Available {
			continue
		}
		handler(notify.Notification{Kind: notify.ComponentUnavailable, Name: c.Pkg, Target: c.Target.String()})
		unavailable = append(unavailable, c)
	}
	if len(unavailable) > 0 {
		return &UnavailableComponentsError{Toolchain: toolchain, Components: unavailable}
	}
	return nil
}

// CheckChanges validates changes against root and cfg, returning an error
// for requests BuildChangeSet would reject. Adding a required component is
// reported through handler as already installed and dropped.
func CheckChanges(changes Changes, root *manifest.TargetedPackage, cfg *manifest.Config, handler notify.Handler) (Changes, error) {
	if handler == nil {
		handler = notify.Discard
	}
	var out Changes
	for _, c := range changes.Add {
		switch {
		case slices.Contains(root.Components, c):
			handler(notify.Notification{Kind: notify.ComponentAlreadyInstalled, Name: c.Name()})
			continue
		case !slices.Contains(root.Extensions, c):
			return Changes{}, &UnknownComponentError{Component: c}
		case slices.Contains(changes.Remove, c):
			return Changes{}, &ConflictingChangeError{Component: c}
		}
		out.Add = append(out.Add, c)
	}
	for _, c := range changes.Remove {
		switch {
		case slices.Contains(root.Components, c):
			return Changes{}, &RequiredComponentError{Component: c}
		case !slices.Contains(root.Extensions, c):
			return Changes{}, &UnknownComponentError{Component: c}
		case !cfg.Contains(c):
			return Changes{}, &ComponentNotInstalledError{Component: c}
		}
		out.Remove = append(out.Remove, c)
	}
	return out, nil
}

// ResolveChanges prepares user-supplied changes for BuildChangeSet. A
// component requested for the toolchain's target that the manifest only
// offers target-independently is matched to that entry, then the result is
// checked with CheckChanges.
func ResolveChanges(changes Changes, root *manifest.TargetedPackage, cfg *manifest.Config, handler notify.Handler) (Changes, error) {
	match := func(list []manifest.Component) []manifest.Component {
		out := make([]manifest.Component, 0, len(list))
		for _, c := range list {
			out = append(out, matchTarget(c, root))
		}
		return out
	}
	return CheckChanges(Changes{Add: match(changes.Add), Remove: match(changes.Remove)}, root, cfg, handler)
}

func matchTarget(c manifest.Component, root *manifest.TargetedPackage) manifest.Component {
	offered := slices.Concat(root.Components, root.Extensions)
	if slices.Contains(offered, c) {
		return c
	}
	wildcard := manifest.Component{Pkg: c.Pkg}
	if slices.Contains(offered, wildcard) {
		return wildcard
	}
	return c
}
