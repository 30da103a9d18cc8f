package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adamancini/toolup/internal/config"
)

func TestList(t *testing.T) {
	names := List()

	expected := []string{"ci", "minimal", "mirror"}
	if len(names) != len(expected) {
		t.Fatalf("List() = %v, want %v", names, expected)
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("List()[%d] = %s, want %s", i, names[i], name)
		}
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"minimal", false},
		{"mirror", false},
		{"ci", false},
		{"nonexistent", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Get(tt.name)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Get(%s) expected error, got nil", tt.name)
				} else if !strings.Contains(err.Error(), "available: ci, minimal, mirror") {
					t.Errorf("Get(%s) error does not list templates: %v", tt.name, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Get(%s) unexpected error: %v", tt.name, err)
			}
			if tmpl.Name != tt.name {
				t.Errorf("Get(%s) name = %s, want %s", tt.name, tmpl.Name, tt.name)
			}
			if !strings.Contains(string(tmpl.Content), "version = 1") {
				t.Errorf("Get(%s) content missing version", tt.name)
			}
		})
	}
}

func TestGetDescription(t *testing.T) {
	for _, name := range List() {
		if GetDescription(name) == "Custom template" {
			t.Errorf("template %s has no description", name)
		}
	}
	if got := GetDescription("other"); got != "Custom template" {
		t.Errorf("GetDescription(other) = %q", got)
	}
}

// Every template must load and validate as a settings file.
func TestTemplatesAreValidSettings(t *testing.T) {
	t.Setenv("TOOLUP_MIRROR", "")
	t.Setenv("TOOLUP_CI_TOOLCHAIN", "")
	t.Setenv("TOOLUP_CI_HOME", "")

	for _, name := range List() {
		t.Run(name, func(t *testing.T) {
			tmpl, err := Get(name)
			if err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(t.TempDir(), "settings"+Extension)
			if err := os.WriteFile(path, tmpl.Content, 0644); err != nil {
				t.Fatal(err)
			}

			settings, err := config.Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if err := config.Validate(settings); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if settings.DefaultToolchain != "stable" {
				t.Errorf("default_toolchain = %q, want stable", settings.DefaultToolchain)
			}
		})
	}
}

func TestMirrorTemplateExpandsEnv(t *testing.T) {
	t.Setenv("TOOLUP_MIRROR", "https://mirror.internal")

	tmpl, err := Get("mirror")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, tmpl.Content, 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if settings.DistServer != "https://mirror.internal" || !settings.StrictManifestChecksum {
		t.Errorf("mirror settings = %+v", settings)
	}
}
