package triple

import (
	"fmt"
	"regexp"
	"strings"
)

// trackingChannels are the rolling-release channel names.
var trackingChannels = []string{"nightly", "beta", "stable"}

const channelAlternatives = `nightly|beta|stable|\d{1}\.\d{1}\.\d{1}|\d{1}\.\d{2}\.\d{1}`

var (
	partialDescPattern = regexp.MustCompile(`^(` + channelAlternatives + `)(?:-(\d{4}-\d{2}-\d{2}))?(?:-(.*))?$`)
	fullDescPattern    = regexp.MustCompile(`^(` + channelAlternatives + `)(?:-(\d{4}-\d{2}-\d{2}))?-(.*)?$`)
)

// InvalidToolchainNameError is returned when a toolchain name cannot be parsed.
type InvalidToolchainNameError struct {
	Name string
}

func (e *InvalidToolchainNameError) Error() string {
	return fmt.Sprintf("invalid toolchain name: '%s'", e.Name)
}

// PartialToolchainDesc is a toolchain name as typed by a user, such as
// "stable" or "nightly-2016-02-01-msvc". Its target may be incomplete.
type PartialToolchainDesc struct {
	// Channel is "nightly", "beta", "stable" or an explicit version number.
	Channel string
	// Date is YYYY-MM-DD, or empty for the latest release.
	Date   string
	Target PartialTargetTriple
}

// ToolchainDesc is a fully resolved toolchain. It always carries a complete
// target triple and is used for canonical identification, such as naming the
// installation directory.
type ToolchainDesc struct {
	Channel string
	Date    string
	Target  TargetTriple
}

// ParsePartialToolchainDesc parses a possibly abbreviated toolchain name.
func ParsePartialToolchainDesc(name string) (PartialToolchainDesc, error) {
	m := partialDescPattern.FindStringSubmatch(name)
	if m == nil {
		return PartialToolchainDesc{}, &InvalidToolchainNameError{Name: name}
	}

	target, ok := ParsePartialTargetTriple(m[3])
	if !ok {
		return PartialToolchainDesc{}, &InvalidToolchainNameError{Name: name}
	}

	return PartialToolchainDesc{
		Channel: m[1],
		Date:    m[2],
		Target:  target,
	}, nil
}

// HasTriple reports whether any part of the target was given.
func (d PartialToolchainDesc) HasTriple() bool {
	return !d.Target.IsEmpty()
}

// Resolve fills in the missing parts of the target from host.
//
// If the OS was given explicitly the host environment is not inherited,
// even when the OS matches the host, so that a triple without an
// environment can still be named.
func (d PartialToolchainDesc) Resolve(host TargetTriple) (ToolchainDesc, error) {
	h, ok := ParsePartialTargetTriple(string(host))
	if !ok || h.Arch == "" || h.OS == "" {
		return ToolchainDesc{}, fmt.Errorf("host triple '%s' couldn't be converted to a partial triple", host)
	}

	env := d.Target.Env
	if d.Target.OS == "" && env == "" {
		env = h.Env
	}
	arch := d.Target.Arch
	if arch == "" {
		arch = h.Arch
	}
	os := d.Target.OS
	if os == "" {
		os = h.OS
	}

	t := arch + "-" + os
	if env != "" {
		t += "-" + env
	}

	return ToolchainDesc{
		Channel: d.Channel,
		Date:    d.Date,
		Target:  TargetTriple(t),
	}, nil
}

// String formats the partial descriptor back into a toolchain name.
func (d PartialToolchainDesc) String() string {
	var b strings.Builder
	b.WriteString(d.Channel)
	if d.Date != "" {
		b.WriteString("-" + d.Date)
	}
	if !d.Target.IsEmpty() {
		b.WriteString("-" + d.Target.String())
	}
	return b.String()
}

// ParseToolchainDesc parses a fully-qualified toolchain name. The target part
// is not validated against the known lists.
func ParseToolchainDesc(name string) (ToolchainDesc, error) {
	m := fullDescPattern.FindStringSubmatch(name)
	if m == nil {
		return ToolchainDesc{}, &InvalidToolchainNameError{Name: name}
	}
	return ToolchainDesc{
		Channel: m[1],
		Date:    m[2],
		Target:  TargetTriple(m[3]),
	}, nil
}

// IsTracking reports whether the toolchain follows a rolling channel rather
// than a pinned release.
func (d ToolchainDesc) IsTracking() bool {
	return d.Date == "" && IsTrackingChannel(d.Channel)
}

// IsTrackingChannel reports whether channel is a named release channel
// rather than an explicit version number.
func IsTrackingChannel(channel string) bool {
	for _, c := range trackingChannels {
		if c == channel {
			return true
		}
	}
	return false
}

// ManifestV1URL returns the URL of the legacy flat manifest.
//
// Staged manifests only exist for tracking channels; staging a dated
// toolchain is not a real-world case and yields the dated URL.
func (d ToolchainDesc) ManifestV1URL(distRoot string, staged bool) string {
	switch {
	case d.Date == "" && staged:
		return fmt.Sprintf("%s/staging/channel-toolchain-%s", distRoot, d.Channel)
	case d.Date == "":
		return fmt.Sprintf("%s/channel-toolchain-%s", distRoot, d.Channel)
	default:
		return fmt.Sprintf("%s/%s/channel-toolchain-%s", distRoot, d.Date, d.Channel)
	}
}

// ManifestV2URL returns the URL of the structured TOML manifest.
func (d ToolchainDesc) ManifestV2URL(distRoot string, staged bool) string {
	return d.ManifestV1URL(distRoot, staged) + ".toml"
}

// ManifestName is either "channel" or "channel-date".
func (d ToolchainDesc) ManifestName() string {
	if d.Date == "" {
		return d.Channel
	}
	return d.Channel + "-" + d.Date
}

// PackageDir returns the directory holding the release's installers.
func (d ToolchainDesc) PackageDir(distRoot string) string {
	if d.Date == "" {
		return distRoot
	}
	return distRoot + "/" + d.Date
}

// FullSpec is the name annotated with "(tracking)" for rolling channels.
func (d ToolchainDesc) FullSpec() string {
	if d.Date != "" {
		return d.String()
	}
	return d.String() + " (tracking)"
}

// String formats the descriptor as channel[-date]-target.
func (d ToolchainDesc) String() string {
	var b strings.Builder
	b.WriteString(d.Channel)
	if d.Date != "" {
		b.WriteString("-" + d.Date)
	}
	b.WriteString("-" + d.Target.String())
	return b.String()
}

// ValidateChannelName checks that name parses as a channel and carries no target.
func ValidateChannelName(name string) error {
	d, err := ParsePartialToolchainDesc(name)
	if err != nil {
		return err
	}
	if d.HasTriple() {
		return fmt.Errorf("target triple in channel name '%s'", name)
	}
	return nil
}
