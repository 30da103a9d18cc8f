package triple

import (
	"errors"
	"testing"
)

func TestParsePartialTargetTriple(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   PartialTargetTriple
		wantOK bool
	}{
		{name: "empty", input: "", want: PartialTargetTriple{}, wantOK: true},
		{name: "arch only", input: "x86_64", want: PartialTargetTriple{Arch: "x86_64"}, wantOK: true},
		{name: "env only", input: "msvc", want: PartialTargetTriple{Env: "msvc"}, wantOK: true},
		{name: "os and env", input: "pc-windows-msvc", want: PartialTargetTriple{OS: "pc-windows", Env: "msvc"}, wantOK: true},
		{name: "full", input: "x86_64-unknown-linux-gnu", want: PartialTargetTriple{Arch: "x86_64", OS: "unknown-linux", Env: "gnu"}, wantOK: true},
		{name: "arch and os", input: "i686-apple-darwin", want: PartialTargetTriple{Arch: "i686", OS: "apple-darwin"}, wantOK: true},
		{name: "longer arch wins", input: "armv7-linux-androideabi", want: PartialTargetTriple{Arch: "armv7", OS: "linux", Env: "androideabi"}, wantOK: true},
		{name: "mipsel", input: "mipsel", want: PartialTargetTriple{Arch: "mipsel"}, wantOK: true},
		{name: "longer env wins", input: "gnueabihf", want: PartialTargetTriple{Env: "gnueabihf"}, wantOK: true},
		{name: "unknown", input: "foo", wantOK: false},
		{name: "bare os name", input: "windows", wantOK: false},
		{name: "wrong order", input: "gnu-x86_64", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePartialTargetTriple(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParsePartialTargetTriple(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParsePartialTargetTriple(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePartialToolchainDesc(t *testing.T) {
	tests := []struct {
		input   string
		want    PartialToolchainDesc
		wantErr bool
	}{
		{input: "stable", want: PartialToolchainDesc{Channel: "stable"}},
		{input: "nightly-2016-03-01", want: PartialToolchainDesc{Channel: "nightly", Date: "2016-03-01"}},
		{input: "1.8.0", want: PartialToolchainDesc{Channel: "1.8.0"}},
		{input: "1.10.0-x86_64-unknown-linux-gnu", want: PartialToolchainDesc{
			Channel: "1.10.0",
			Target:  PartialTargetTriple{Arch: "x86_64", OS: "unknown-linux", Env: "gnu"},
		}},
		{input: "nightly-2016-03-01-msvc", want: PartialToolchainDesc{
			Channel: "nightly",
			Date:    "2016-03-01",
			Target:  PartialTargetTriple{Env: "msvc"},
		}},
		{input: "beta-i686", want: PartialToolchainDesc{Channel: "beta", Target: PartialTargetTriple{Arch: "i686"}}},
		{input: "foo", wantErr: true},
		{input: "1.8", wantErr: true},
		{input: "stable-x86_64-foo", wantErr: true},
		{input: "nightly-2016-3-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePartialToolchainDesc(tt.input)
			if tt.wantErr {
				var nameErr *InvalidToolchainNameError
				if !errors.As(err, &nameErr) {
					t.Fatalf("expected InvalidToolchainNameError, got %v", err)
				}
				if nameErr.Error() != "invalid toolchain name: '"+tt.input+"'" {
					t.Errorf("unexpected message: %s", nameErr.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		input string
		host  TargetTriple
		want  string
	}{
		{input: "stable", host: "x86_64-unknown-linux-gnu", want: "stable-x86_64-unknown-linux-gnu"},
		{input: "nightly-2016-03-01", host: "x86_64-unknown-linux-gnu", want: "nightly-2016-03-01-x86_64-unknown-linux-gnu"},
		{input: "nightly-i686", host: "x86_64-unknown-linux-gnu", want: "nightly-i686-unknown-linux-gnu"},
		{input: "stable-pc-windows", host: "x86_64-unknown-linux-gnu", want: "stable-x86_64-pc-windows"},
		{input: "stable-unknown-linux", host: "x86_64-unknown-linux-gnu", want: "stable-x86_64-unknown-linux"},
		{input: "stable-gnu", host: "x86_64-pc-windows-msvc", want: "stable-x86_64-pc-windows-gnu"},
		{input: "beta", host: "aarch64-apple-darwin", want: "beta-aarch64-apple-darwin"},
	}

	for _, tt := range tests {
		t.Run(tt.input+"@"+string(tt.host), func(t *testing.T) {
			partial, err := ParsePartialToolchainDesc(tt.input)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			got, err := partial.Resolve(tt.host)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("Resolve() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveUnknownHost(t *testing.T) {
	partial, err := ParsePartialToolchainDesc("stable")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := partial.Resolve("sparc-sun-solaris"); err == nil {
		t.Error("expected error for unrecognised host")
	}
}

func TestParseToolchainDesc(t *testing.T) {
	d, err := ParseToolchainDesc("nightly-2016-02-01-x86_64-unknown-linux-gnu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ToolchainDesc{Channel: "nightly", Date: "2016-02-01", Target: "x86_64-unknown-linux-gnu"}
	if d != want {
		t.Errorf("got %+v, want %+v", d, want)
	}

	if _, err := ParseToolchainDesc("stable"); err == nil {
		t.Error("expected error for name without target")
	}
}

func TestToolchainDescURLs(t *testing.T) {
	const root = "https://static.example.org/dist"
	tracking := ToolchainDesc{Channel: "nightly", Target: "x86_64-unknown-linux-gnu"}
	dated := ToolchainDesc{Channel: "nightly", Date: "2016-02-01", Target: "x86_64-unknown-linux-gnu"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"v1 tracking", tracking.ManifestV1URL(root, false), root + "/channel-toolchain-nightly"},
		{"v1 staged", tracking.ManifestV1URL(root, true), root + "/staging/channel-toolchain-nightly"},
		{"v1 dated", dated.ManifestV1URL(root, false), root + "/2016-02-01/channel-toolchain-nightly"},
		{"v1 dated staged", dated.ManifestV1URL(root, true), root + "/2016-02-01/channel-toolchain-nightly"},
		{"v2 tracking", tracking.ManifestV2URL(root, false), root + "/channel-toolchain-nightly.toml"},
		{"v2 dated", dated.ManifestV2URL(root, false), root + "/2016-02-01/channel-toolchain-nightly.toml"},
		{"package dir tracking", tracking.PackageDir(root), root},
		{"package dir dated", dated.PackageDir(root), root + "/2016-02-01"},
		{"manifest name tracking", tracking.ManifestName(), "nightly"},
		{"manifest name dated", dated.ManifestName(), "nightly-2016-02-01"},
		{"full name tracking", tracking.FullSpec(), "nightly-x86_64-unknown-linux-gnu (tracking)"},
		{"full name dated", dated.FullSpec(), "nightly-2016-02-01-x86_64-unknown-linux-gnu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestIsTracking(t *testing.T) {
	tests := []struct {
		d    ToolchainDesc
		want bool
	}{
		{ToolchainDesc{Channel: "stable"}, true},
		{ToolchainDesc{Channel: "nightly"}, true},
		{ToolchainDesc{Channel: "nightly", Date: "2016-02-01"}, false},
		{ToolchainDesc{Channel: "1.8.0"}, false},
	}

	for _, tt := range tests {
		if got := tt.d.IsTracking(); got != tt.want {
			t.Errorf("%+v IsTracking() = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestIsTrackingChannel(t *testing.T) {
	for _, c := range []string{"nightly", "beta", "stable"} {
		if !IsTrackingChannel(c) {
			t.Errorf("IsTrackingChannel(%q) = false, want true", c)
		}
	}
	for _, c := range []string{"1.8.0", "1.10.0", ""} {
		if IsTrackingChannel(c) {
			t.Errorf("IsTrackingChannel(%q) = true, want false", c)
		}
	}
}

func TestValidateChannelName(t *testing.T) {
	if err := ValidateChannelName("beta"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateChannelName("beta-x86_64"); err == nil {
		t.Error("expected error for channel with triple")
	}
	if err := ValidateChannelName("bogus"); err == nil {
		t.Error("expected error for invalid channel")
	}
}

func TestFromHostOverride(t *testing.T) {
	t.Setenv(HostOverrideEnv, "x86_64-pc-windows-gnu")

	got, ok := FromHost()
	if !ok {
		t.Fatal("expected override to be used")
	}
	if got != "x86_64-pc-windows-gnu" {
		t.Errorf("FromHost() = %s", got)
	}
	if FromHostOrBuild() != got {
		t.Error("FromHostOrBuild should prefer the host triple")
	}
}

func TestGoTriple(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         TargetTriple
	}{
		{"linux", "amd64", "x86_64-unknown-linux-gnu"},
		{"linux", "arm", "armv7-unknown-linux-gnueabihf"},
		{"linux", "arm64", "aarch64-unknown-linux-gnu"},
		{"darwin", "arm64", "aarch64-apple-darwin"},
		{"windows", "386", "i686-pc-windows-msvc"},
		{"freebsd", "amd64", "x86_64-unknown-freebsd"},
		{"android", "arm", "armv7-linux-androideabi"},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			if got := goTriple(tt.goos, tt.goarch); got != tt.want {
				t.Errorf("goTriple() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFromBuildOverride(t *testing.T) {
	saved := BuildTriple
	t.Cleanup(func() { BuildTriple = saved })

	BuildTriple = "powerpc64le-unknown-linux-gnu"
	if got := FromBuild(); got != "powerpc64le-unknown-linux-gnu" {
		t.Errorf("FromBuild() = %s", got)
	}
}
