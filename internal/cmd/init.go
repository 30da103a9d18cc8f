package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/toolup/internal/config"
	"github.com/adamancini/toolup/internal/templates"
)

func newInitCmd() *cobra.Command {
	var (
		templateName string
		outputPath   string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a settings file from a template",
		Long: `Create a toolup settings file from a built-in template.

Available templates:
  ci       - Pinned toolchain and fixed unpack workers for CI
  minimal  - Default toolchain only
  mirror   - Install from a mirror with strict manifest checks

Examples:
  toolup init
  toolup init --template=mirror
  toolup init --file ./settings.toml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout(), templateName, outputPath, force)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", "minimal", "Template name")
	cmd.Flags().StringVar(&outputPath, "file", "", "Output path for the settings file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")

	_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var completions []string
		for _, name := range templates.List() {
			completions = append(completions, fmt.Sprintf("%s\t%s", name, templates.GetDescription(name)))
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runInit writes the named template to outputPath after checking that it
// loads as a valid settings file.
func runInit(stdout io.Writer, templateName, outputPath string, force bool) error {
	if outputPath == "" {
		outputPath = defaultSettingsPath()
	}
	outputPath = expandHomePath(outputPath)

	if _, err := os.Stat(outputPath); err == nil && !force {
		return fmt.Errorf("settings file already exists at %s (use --force to overwrite)", outputPath)
	}

	tmpl, err := templates.Get(templateName)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}
	if err := validateTemplateContent(tmpl.Content); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	parentDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", parentDir, err)
	}
	if err := os.WriteFile(outputPath, tmpl.Content, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	if !quiet {
		_, _ = fmt.Fprintf(stdout, "Created %s from the '%s' template\n", outputPath, tmpl.Name)
		_, _ = fmt.Fprintln(stdout, "\nNext steps:")
		_, _ = fmt.Fprintln(stdout, "  1. Edit the settings file to customize")
		_, _ = fmt.Fprintln(stdout, "  2. Run 'toolup install' to install the default toolchain")
	}
	return nil
}

// validateTemplateContent checks that content loads and validates as a
// settings file.
func validateTemplateContent(content []byte) error {
	tmpFile, err := os.CreateTemp("", "toolup-settings-*"+templates.Extension)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmpFile.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmpFile.Write(content); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	settings, err := config.Load(tmpName)
	if err != nil {
		return err
	}
	return config.Validate(settings)
}

// defaultSettingsPath is the first location FindSettings searches.
func defaultSettingsPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "toolup", "settings.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "settings.toml"
	}
	return filepath.Join(home, ".config", "toolup", "settings.toml")
}

// expandHomePath expands ~ to the user's home directory.
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
