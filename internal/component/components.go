// Package component manages component installers and the receipts that
// record what each installed component put on disk.
package component

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adamancini/toolup/internal/transaction"
)

// MetadataDir is the prefix-relative directory holding receipts, the
// installed manifest and the installed config.
const MetadataDir = "lib/toolup"

const (
	componentsFile  = "components"
	manifestPrefix  = "manifest-"
	versionFile     = "toolup-installer-version"
	installerFormat = "3"
)

// MetadataPath returns the prefix-relative path of a metadata file.
func MetadataPath(name string) string {
	return path.Join(MetadataDir, name)
}

// EntryKind is the type of a receipt entry.
type EntryKind string

const (
	EntryFile EntryKind = "file"
	EntryDir  EntryKind = "dir"
)

// Entry is one path installed by a component, relative to the prefix.
type Entry struct {
	Kind EntryKind
	Path string
}

// ParseEntry parses a "file:path" or "dir:path" line.
func ParseEntry(line string) (Entry, error) {
	kind, p, ok := strings.Cut(line, ":")
	if !ok || p == "" {
		return Entry{}, fmt.Errorf("invalid manifest entry %q", line)
	}
	switch EntryKind(kind) {
	case EntryFile, EntryDir:
	default:
		return Entry{}, fmt.Errorf("invalid manifest entry kind %q", kind)
	}
	if err := validateRelPath(p); err != nil {
		return Entry{}, err
	}
	return Entry{Kind: EntryKind(kind), Path: p}, nil
}

// String formats the entry as a receipt line.
func (e Entry) String() string {
	return string(e.Kind) + ":" + e.Path
}

func parseEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		e, err := ParseEntry(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

func validateRelPath(p string) error {
	if path.IsAbs(p) || strings.HasPrefix(p, "/") {
		return fmt.Errorf("absolute path %q not allowed", p)
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return fmt.Errorf("path %q escapes the prefix", p)
		}
	}
	return nil
}

// Components is the set of components installed under a prefix.
type Components struct {
	prefix string
}

// NewComponents opens the receipts stored under prefix.
func NewComponents(prefix string) *Components {
	return &Components{prefix: prefix}
}

// Prefix returns the installation root.
func (c *Components) Prefix() string {
	return c.prefix
}

func (c *Components) abs(rel string) string {
	return filepath.Join(c.prefix, filepath.FromSlash(rel))
}

func (c *Components) names() ([]string, error) {
	data, err := os.ReadFile(c.abs(MetadataPath(componentsFile)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read installed components: %w", err)
	}
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// List returns every installed component in install order.
func (c *Components) List() ([]*Component, error) {
	names, err := c.names()
	if err != nil {
		return nil, err
	}
	out := make([]*Component, len(names))
	for i, n := range names {
		out[i] = &Component{components: c, name: n}
	}
	return out, nil
}

// Find returns the installed component called name, or nil.
func (c *Components) Find(name string) (*Component, error) {
	names, err := c.names()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(names, name) {
		return nil, nil
	}
	return &Component{components: c, name: name}, nil
}

// Add records a newly installed component and its entries.
func (c *Components) Add(name string, entries []Entry, tx *transaction.Transaction) error {
	var receipt strings.Builder
	for _, e := range entries {
		receipt.WriteString(e.String())
		receipt.WriteByte('\n')
	}
	if err := tx.WriteFile(name, MetadataPath(manifestPrefix+name), []byte(receipt.String())); err != nil {
		return err
	}

	names, err := c.names()
	if err != nil {
		return err
	}
	if !slices.Contains(names, name) {
		names = append(names, name)
	}
	if err := c.writeNames(names, tx); err != nil {
		return err
	}
	return c.writeVersion(tx)
}

func (c *Components) writeNames(names []string, tx *transaction.Transaction) error {
	full, err := tx.ModifyFile(MetadataPath(componentsFile))
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(full, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write installed components: %w", err)
	}
	return nil
}

func (c *Components) writeVersion(tx *transaction.Transaction) error {
	rel := MetadataPath(versionFile)
	if data, err := os.ReadFile(c.abs(rel)); err == nil && strings.TrimSpace(string(data)) == installerFormat {
		return nil
	}
	full, err := tx.ModifyFile(rel)
	if err != nil {
		return err
	}
	if err := os.WriteFile(full, []byte(installerFormat+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write installer version: %w", err)
	}
	return nil
}

// Component is an installed component.
type Component struct {
	components *Components
	name       string
}

// Name returns the installed name.
func (c *Component) Name() string {
	return c.name
}

// Entries reads the component's receipt.
func (c *Component) Entries() ([]Entry, error) {
	data, err := os.ReadFile(c.components.abs(MetadataPath(manifestPrefix + c.name)))
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt for '%s': %w", c.name, err)
	}
	return parseEntries(data)
}

// Uninstall removes every path the component installed, its receipt, and its
// entry in the components list.
func (c *Component) Uninstall(tx *transaction.Transaction) error {
	entries, err := c.Entries()
	if err != nil {
		return err
	}

	for _, e := range entries {
		switch e.Kind {
		case EntryFile:
			err = tx.RemoveFile(c.name, e.Path)
		case EntryDir:
			err = tx.RemoveDir(c.name, e.Path)
		}
		if err != nil {
			return err
		}
	}

	if err := tx.RemoveFile(c.name, MetadataPath(manifestPrefix+c.name)); err != nil {
		return err
	}

	names, err := c.components.names()
	if err != nil {
		return err
	}
	return c.components.writeNames(slices.DeleteFunc(names, func(n string) bool { return n == c.name }), tx)
}
