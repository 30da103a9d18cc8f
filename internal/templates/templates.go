// Package templates provides embedded settings templates for toolup init.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.toml
var templatesFS embed.FS

// Extension is the file extension of every template.
const Extension = ".toml"

// Template is a settings file template.
type Template struct {
	Name        string
	Description string
	Content     []byte
}

var templateDescriptions = map[string]string{
	"minimal": "Default toolchain only",
	"mirror":  "Install from a mirror with strict manifest checks",
	"ci":      "Pinned toolchain and fixed unpack workers for CI",
}

// List returns all available template names sorted alphabetically.
func List() []string {
	entries, err := templatesFS.ReadDir(".")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), Extension))
	}

	sort.Strings(names)
	return names
}

// Get returns a template by name. The content is returned unexpanded;
// ${VAR} references are resolved when the settings file is loaded.
func Get(name string) (*Template, error) {
	content, err := templatesFS.ReadFile(name + Extension)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("template '%s' not found (available: %s)", name, strings.Join(List(), ", "))
		}
		return nil, fmt.Errorf("failed to read template '%s': %w", name, err)
	}

	return &Template{
		Name:        name,
		Description: GetDescription(name),
		Content:     content,
	}, nil
}

// GetDescription returns the description for a template.
func GetDescription(name string) string {
	if desc, ok := templateDescriptions[name]; ok {
		return desc
	}
	return "Custom template"
}
