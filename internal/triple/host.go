package triple

import (
	"os"
	"runtime"
)

// HostOverrideEnv overrides host detection. It exists for testing.
const HostOverrideEnv = "TOOLUP_OVERRIDE_HOST_TRIPLE"

// BuildTriple overrides the triple reported by FromBuild.
// Set with -ldflags "-X github.com/adamancini/toolup/internal/triple.BuildTriple=...".
var BuildTriple string

// FromHost detects the triple of the machine toolup is running on.
// It returns false when the host cannot be identified.
func FromHost() (TargetTriple, bool) {
	if t := os.Getenv(HostOverrideEnv); t != "" {
		return TargetTriple(t), true
	}
	return detectHost()
}

// FromBuild returns the triple toolup itself was built for.
func FromBuild() TargetTriple {
	if BuildTriple != "" {
		return TargetTriple(BuildTriple)
	}
	return goTriple(runtime.GOOS, runtime.GOARCH)
}

// FromHostOrBuild detects the host triple, falling back to the build triple.
func FromHostOrBuild() TargetTriple {
	if t, ok := FromHost(); ok {
		return t
	}
	return FromBuild()
}

// goTriple maps a Go GOOS/GOARCH pair onto the closest platform triple.
func goTriple(goos, goarch string) TargetTriple {
	arch := map[string]string{
		"amd64":    "x86_64",
		"386":      "i686",
		"arm64":    "aarch64",
		"arm":      "armv7",
		"mips":     "mips",
		"mipsle":   "mipsel",
		"mips64":   "mips64",
		"mips64le": "mips64el",
		"ppc64":    "powerpc64",
		"ppc64le":  "powerpc64le",
		"s390x":    "s390x",
	}[goarch]
	if arch == "" {
		arch = goarch
	}

	switch goos {
	case "linux":
		switch goarch {
		case "arm":
			return TargetTriple(arch + "-unknown-linux-gnueabihf")
		case "mips64", "mips64le":
			return TargetTriple(arch + "-unknown-linux-gnuabi64")
		}
		return TargetTriple(arch + "-unknown-linux-gnu")
	case "android":
		if goarch == "arm" {
			return TargetTriple(arch + "-linux-androideabi")
		}
		return TargetTriple(arch + "-linux-android")
	case "darwin":
		return TargetTriple(arch + "-apple-darwin")
	case "windows":
		return TargetTriple(arch + "-pc-windows-msvc")
	default:
		return TargetTriple(arch + "-unknown-" + goos)
	}
}
