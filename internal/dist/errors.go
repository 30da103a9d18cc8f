package dist

import (
	"fmt"
	"strings"

	"github.com/adamancini/toolup/internal/manifest"
)

// ComponentDownloadFailedError is returned when a component installer could
// not be downloaded or failed verification.
type ComponentDownloadFailedError struct {
	Component manifest.Component
	Err       error
}

func (e *ComponentDownloadFailedError) Error() string {
	return fmt.Sprintf("component download failed for %s: %v", e.Component.Name(), e.Err)
}

func (e *ComponentDownloadFailedError) Unwrap() error {
	return e.Err
}

// UnavailableComponentsError lists every component of an update that the
// manifest does not provide for its target.
type UnavailableComponentsError struct {
	Toolchain  string
	Components []manifest.Component
}

func (e *UnavailableComponentsError) Error() string {
	var b strings.Builder
	if len(e.Components) == 1 {
		c := e.Components[0]
		fmt.Fprintf(&b, "component %s is unavailable for download for channel '%s'", describe(c), e.Toolchain)
		b.WriteString("\nif you don't need the component, you can remove it with:\n")
	} else {
		names := make([]string, len(e.Components))
		for i, c := range e.Components {
			names[i] = describe(c)
		}
		fmt.Fprintf(&b, "some components are unavailable for download for channel '%s': %s",
			e.Toolchain, strings.Join(names, ", "))
		b.WriteString("\nif you don't need the components, you can remove them with:\n")
	}
	for _, c := range e.Components {
		b.WriteString("\n    ")
		b.WriteString(RemoveHint(e.Toolchain, c))
	}
	return b.String()
}

// RemoveHint is the command that removes c from toolchain.
func RemoveHint(toolchain string, c manifest.Component) string {
	if c.Target.IsZero() {
		return fmt.Sprintf("toolup component remove --toolchain %s %s", toolchain, c.Pkg)
	}
	return fmt.Sprintf("toolup component remove --toolchain %s --target %s %s", toolchain, c.Target, c.Pkg)
}

func describe(c manifest.Component) string {
	if c.Target.IsZero() {
		return fmt.Sprintf("'%s'", c.Pkg)
	}
	return fmt.Sprintf("'%s' for target '%s'", c.Pkg, c.Target)
}

// CorruptComponentError is returned when a downloaded installer does not
// contain the component the manifest promised.
type CorruptComponentError struct {
	Name string
}

func (e *CorruptComponentError) Error() string {
	return fmt.Sprintf("component manifest for '%s' is corrupt", e.Name)
}

// NoReleaseError is returned when the server publishes no manifest of either
// generation for a toolchain.
type NoReleaseError struct {
	Name string
}

func (e *NoReleaseError) Error() string {
	return fmt.Sprintf("no release found for '%s'", e.Name)
}

// UnknownComponentError is returned when a requested component is not an
// extension of the toolchain.
type UnknownComponentError struct {
	Component manifest.Component
}

func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("toolchain does not contain component %s", describe(e.Component))
}

// RequiredComponentError is returned when removing a component the toolchain
// cannot work without.
type RequiredComponentError struct {
	Component manifest.Component
}

func (e *RequiredComponentError) Error() string {
	return fmt.Sprintf("component %s is required by the toolchain and cannot be removed", describe(e.Component))
}

// ComponentNotInstalledError is returned when removing an extension that is
// not installed.
type ComponentNotInstalledError struct {
	Component manifest.Component
}

func (e *ComponentNotInstalledError) Error() string {
	return fmt.Sprintf("component %s is not installed", describe(e.Component))
}

// ConflictingChangeError is returned when a component is both added and
// removed in one request.
type ConflictingChangeError struct {
	Component manifest.Component
}

func (e *ConflictingChangeError) Error() string {
	return fmt.Sprintf("component %s cannot be both added and removed", describe(e.Component))
}
