// Package types provides type-safe constants shared across toolup.
//
// This package centralizes enumerated values that appear in manifests,
// settings files and environment variables, replacing magic strings with
// typed constants that carry their own validation.
package types

import (
	"fmt"
	"strings"
)

// Compression identifies the archive format of a component package.
type Compression string

const (
	// CompressionGz is a gzip-compressed tarball (.tar.gz).
	CompressionGz Compression = "gz"
	// CompressionXz is an xz-compressed tarball (.tar.xz).
	CompressionXz Compression = "xz"
	// CompressionZst is a zstd-compressed tarball (.tar.zst).
	CompressionZst Compression = "zst"
)

// AllCompressions returns all supported compressions, most preferred first.
func AllCompressions() []Compression {
	return []Compression{CompressionZst, CompressionXz, CompressionGz}
}

// Validate checks if the Compression is a valid value.
func (c Compression) Validate() error {
	switch c {
	case CompressionGz, CompressionXz, CompressionZst:
		return nil
	case "":
		return fmt.Errorf("compression is required")
	default:
		return fmt.Errorf("invalid compression '%s' (must be gz, xz, or zst)", c)
	}
}

// String returns the string representation of the Compression.
func (c Compression) String() string {
	return string(c)
}

// Extension returns the file suffix used for packages of this compression.
func (c Compression) Extension() string {
	return ".tar." + string(c)
}

// ParseCompression parses a string into a Compression.
// Accepts either the bare name ("zst") or a file suffix (".tar.zst").
func ParseCompression(s string) (Compression, error) {
	s = strings.TrimPrefix(strings.ToLower(s), ".tar.")
	c := Compression(s)
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

// IOMode selects how the disk I/O engine performs writes.
type IOMode string

const (
	// IOModeImmediate performs every write on the calling goroutine.
	IOModeImmediate IOMode = "immediate"
	// IOModeThreaded dispatches writes to an adaptive worker pool.
	IOModeThreaded IOMode = "threaded"
)

// AllIOModes returns all valid I/O modes.
func AllIOModes() []IOMode {
	return []IOMode{IOModeImmediate, IOModeThreaded}
}

// Validate checks if the IOMode is a valid value.
// Empty mode is valid and means threaded.
func (m IOMode) Validate() error {
	switch m {
	case IOModeImmediate, IOModeThreaded, "":
		return nil
	default:
		return fmt.Errorf("invalid io mode '%s' (must be immediate or threaded)", m)
	}
}

// String returns the string representation of the IOMode.
func (m IOMode) String() string {
	return string(m)
}

// IsImmediate returns true if the mode is immediate.
func (m IOMode) IsImmediate() bool {
	return m == IOModeImmediate
}

// Default returns the default mode if empty, otherwise returns the current mode.
func (m IOMode) Default() IOMode {
	if m == "" {
		return IOModeThreaded
	}
	return m
}

// ParseIOMode parses a string into an IOMode.
// "disabled" is accepted as an alias for immediate.
func ParseIOMode(s string) (IOMode, error) {
	s = strings.ToLower(s)
	if s == "disabled" {
		return IOModeImmediate, nil
	}
	mode := IOMode(s)
	if err := mode.Validate(); err != nil {
		return "", err
	}
	return mode, nil
}
