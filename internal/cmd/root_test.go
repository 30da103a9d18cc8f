package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/adamancini/toolup/internal/output"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name         string
		verbose      bool
		quiet        bool
		debug, info  bool
		errorEnabled bool
	}{
		{name: "default", info: true, errorEnabled: true},
		{name: "verbose", verbose: true, debug: true, info: true, errorEnabled: true},
		{name: "quiet", quiet: true, errorEnabled: true},
		{name: "quiet wins", verbose: true, quiet: true, errorEnabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := newLogger(&bytes.Buffer{}, tt.verbose, tt.quiet)
			ctx := context.Background()
			if got := logger.Enabled(ctx, slog.LevelDebug); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
			if got := logger.Enabled(ctx, slog.LevelInfo); got != tt.info {
				t.Errorf("info enabled = %v, want %v", got, tt.info)
			}
			if got := logger.Enabled(ctx, slog.LevelError); got != tt.errorEnabled {
				t.Errorf("error enabled = %v, want %v", got, tt.errorEnabled)
			}
		})
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd("1.0.0", "abc123", "2024-01-01")

	want := []string{"init", "install", "update", "uninstall", "check", "component", "show", "completion", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	for _, name := range []string{"add", "remove", "list"} {
		cmd, _, err := root.Find([]string{"component", name})
		if err != nil || cmd.Name() != name {
			t.Errorf("component subcommand %q not registered", name)
		}
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish"} {
		t.Run(shell, func(t *testing.T) {
			root := newRootCmd("1.0.0", "abc123", "2024-01-01")
			var stdout bytes.Buffer
			root.SetOut(&stdout)
			root.SetArgs([]string{"completion", shell})

			if err := root.Execute(); err != nil {
				t.Fatalf("completion %s failed: %v", shell, err)
			}
			if !strings.Contains(stdout.String(), "toolup") {
				t.Errorf("completion %s output does not mention toolup", shell)
			}
		})
	}
}

func TestRunVersion(t *testing.T) {
	info := VersionInfo{Version: "1.0.0", Commit: "abc123", Date: "2024-01-01", Host: "x86_64-unknown-linux-gnu"}

	var buf bytes.Buffer
	if err := runVersion(output.NewWriter(&buf, output.FormatText), info); err != nil {
		t.Fatalf("runVersion() error = %v", err)
	}
	want := "toolup 1.0.0 (abc123 2024-01-01)\nhost: x86_64-unknown-linux-gnu\n"
	if buf.String() != want {
		t.Errorf("runVersion() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := runVersion(output.NewWriter(&buf, output.FormatYAML), info); err != nil {
		t.Fatalf("runVersion() error = %v", err)
	}
	if !strings.Contains(buf.String(), "commit: abc123") {
		t.Errorf("runVersion() yaml = %q", buf.String())
	}
}

func TestToolchainResultString(t *testing.T) {
	tests := []struct {
		result ToolchainResult
		want   string
	}{
		{ToolchainResult{Toolchain: "stable", Status: StatusInstalled, Version: "1.0.0"}, "stable installed - 1.0.0\n"},
		{ToolchainResult{Toolchain: "stable", Status: StatusUnchanged}, "stable unchanged - (unknown version)\n"},
		{ToolchainResult{Toolchain: "beta", Status: StatusFailed, Error: "boom"}, "beta failed: boom\n"},
	}

	for _, tt := range tests {
		if got := tt.result.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
