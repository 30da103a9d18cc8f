//go:build unix

package triple

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// MIPS does not report endianness in uname; binaries only run on hosts with
// the same endianness, so the build architecture decides.
func mipsTriples() (mips, mips64 string) {
	switch runtime.GOARCH {
	case "mipsle", "mips64le":
		return "mipsel-unknown-linux-gnu", "mips64el-unknown-linux-gnuabi64"
	default:
		return "mips-unknown-linux-gnu", "mips64-unknown-linux-gnuabi64"
	}
}

func detectHost() (TargetTriple, bool) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", false
	}
	sysname := unix.ByteSliceToString(uts.Sysname[:])
	machine := unix.ByteSliceToString(uts.Machine[:])
	return hostTriple(runtime.GOOS, sysname, machine)
}

// hostTriple maps uname output onto a triple.
func hostTriple(goos, sysname, machine string) (TargetTriple, bool) {
	if goos == "android" {
		switch machine {
		case "arm":
			return "arm-linux-androideabi", true
		case "armv7l", "armv8l":
			return "armv7-linux-androideabi", true
		case "aarch64":
			return "aarch64-linux-android", true
		case "i686":
			return "i686-linux-android", true
		case "x86_64":
			return "x86_64-linux-android", true
		}
	}

	mips, mips64 := mipsTriples()
	known := map[[2]string]string{
		{"Linux", "x86_64"}:     "x86_64-unknown-linux-gnu",
		{"Linux", "i686"}:       "i686-unknown-linux-gnu",
		{"Linux", "mips"}:       mips,
		{"Linux", "mips64"}:     mips64,
		{"Linux", "arm"}:        "arm-unknown-linux-gnueabi",
		{"Linux", "armv7l"}:     "armv7-unknown-linux-gnueabihf",
		{"Linux", "armv8l"}:     "armv7-unknown-linux-gnueabihf",
		{"Linux", "aarch64"}:    "aarch64-unknown-linux-gnu",
		{"Darwin", "x86_64"}:    "x86_64-apple-darwin",
		{"Darwin", "i686"}:      "i686-apple-darwin",
		{"Darwin", "arm64"}:     "aarch64-apple-darwin",
		{"FreeBSD", "x86_64"}:   "x86_64-unknown-freebsd",
		{"FreeBSD", "amd64"}:    "x86_64-unknown-freebsd",
		{"FreeBSD", "i686"}:     "i686-unknown-freebsd",
		{"OpenBSD", "x86_64"}:   "x86_64-unknown-openbsd",
		{"OpenBSD", "i686"}:     "i686-unknown-openbsd",
		{"NetBSD", "x86_64"}:    "x86_64-unknown-netbsd",
		{"NetBSD", "i686"}:      "i686-unknown-netbsd",
		{"DragonFly", "x86_64"}: "x86_64-unknown-dragonfly",
	}
	if t, ok := known[[2]string{sysname, machine}]; ok {
		return TargetTriple(t), true
	}
	return "", false
}
