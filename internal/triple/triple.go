// Package triple parses and resolves platform triples and toolchain names.
package triple

import (
	"fmt"
	"regexp"
	"strings"
)

// These lists contain the targets known to toolup and are used to build
// partial target triples. Full target triples are nearly arbitrary strings.
var (
	knownArchs = []string{
		"i386", "i586", "i686", "x86_64", "arm", "armv7", "armv7s", "aarch64",
		"mips", "mipsel", "mips64", "mips64el", "powerpc", "powerpc64",
		"powerpc64le", "s390x",
	}
	knownOSes = []string{
		"pc-windows", "unknown-linux", "apple-darwin", "unknown-netbsd",
		"apple-ios", "linux", "rumprun-netbsd", "unknown-freebsd",
	}
	knownEnvs = []string{
		"gnu", "msvc", "gnueabi", "gnueabihf", "gnuabi64", "androideabi",
		"android", "musl",
	}
)

// The input is prefixed with "-" before matching so every segment is
// delimited the same way.
var partialTriplePattern = regexp.MustCompile(fmt.Sprintf(`^(?:-(%s))?(?:-(%s))?(?:-(%s))?$`,
	quoteAll(knownArchs), quoteAll(knownOSes), quoteAll(knownEnvs)))

func quoteAll(list []string) string {
	quoted := make([]string, len(list))
	for i, s := range list {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return strings.Join(quoted, "|")
}

// TargetTriple is a canonical platform identifier such as
// "x86_64-unknown-linux-gnu". The zero value means "no target".
type TargetTriple string

// String returns the triple text.
func (t TargetTriple) String() string {
	return string(t)
}

// IsZero reports whether the triple is empty.
func (t TargetTriple) IsZero() bool {
	return t == ""
}

// PartialTargetTriple is a triple whose arch, OS and environment may each be
// omitted. Missing parts are filled in from the host when resolved.
type PartialTargetTriple struct {
	Arch string
	OS   string
	Env  string
}

// IsEmpty reports whether no part of the triple was given.
func (p PartialTargetTriple) IsEmpty() bool {
	return p.Arch == "" && p.OS == "" && p.Env == ""
}

// ParsePartialTargetTriple matches name against the known architecture, OS and
// environment lists. It returns false if any segment is unrecognised.
func ParsePartialTargetTriple(name string) (PartialTargetTriple, bool) {
	if name == "" {
		return PartialTargetTriple{}, true
	}

	m := partialTriplePattern.FindStringSubmatch("-" + name)
	if m == nil {
		return PartialTargetTriple{}, false
	}
	return PartialTargetTriple{Arch: m[1], OS: m[2], Env: m[3]}, true
}

// String joins the present parts with "-".
func (p PartialTargetTriple) String() string {
	var parts []string
	for _, s := range []string{p.Arch, p.OS, p.Env} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "-")
}
