//go:build unix

package triple

import "testing"

func TestHostTriple(t *testing.T) {
	tests := []struct {
		goos, sysname, machine string
		want                   TargetTriple
		wantOK                 bool
	}{
		{"linux", "Linux", "x86_64", "x86_64-unknown-linux-gnu", true},
		{"linux", "Linux", "armv7l", "armv7-unknown-linux-gnueabihf", true},
		{"darwin", "Darwin", "arm64", "aarch64-apple-darwin", true},
		{"freebsd", "FreeBSD", "amd64", "x86_64-unknown-freebsd", true},
		{"android", "Linux", "aarch64", "aarch64-linux-android", true},
		{"linux", "Linux", "sparc64", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.sysname+"/"+tt.machine, func(t *testing.T) {
			got, ok := hostTriple(tt.goos, tt.sysname, tt.machine)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("hostTriple() = (%s, %v), want (%s, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDetectHost(t *testing.T) {
	t.Setenv(HostOverrideEnv, "")
	if got := FromHostOrBuild(); got == "" {
		t.Error("expected a triple")
	}
}
