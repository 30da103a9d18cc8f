// Package diskio performs the directory and file writes of an install,
// either inline or through an adaptively sized worker pool.
//
// Filesystems differ wildly in how long create, write and close take:
// network mounts pay a round trip per call and virus scanners hook close.
// The threaded executor therefore measures completion latency and treats
// concurrency like a congestion window: grow it exponentially while the
// P95 latency stays flat, halve it when latency degrades, then grow it
// linearly again.
package diskio

import (
	"fmt"
	"os"
	"time"
)

// Kind is the operation an Item performs.
type Kind int

const (
	KindDirectory Kind = iota
	KindFile
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Item is a single queued filesystem operation and, once performed, its
// outcome.
type Item struct {
	FullPath string
	Kind     Kind
	Content  []byte
	Mode     os.FileMode

	// Start is set when the item is submitted to an executor.
	Start time.Time
	// Finish is the time from Start until the operation completed.
	Finish time.Duration
	// Size is the content length for files.
	Size int
	// Err is the result of the operation.
	Err error
}

// MakeDir returns an item that creates a single directory.
func MakeDir(path string, mode os.FileMode) *Item {
	return &Item{FullPath: path, Kind: KindDirectory, Mode: mode}
}

// WriteFile returns an item that creates or truncates a file.
func WriteFile(path string, content []byte, mode os.FileMode) *Item {
	return &Item{FullPath: path, Kind: KindFile, Content: content, Mode: mode, Size: len(content)}
}

// Perform executes item on the calling goroutine and records the result.
func Perform(item *Item) {
	switch item.Kind {
	case KindDirectory:
		item.Err = os.Mkdir(item.FullPath, item.Mode)
	case KindFile:
		item.Err = writeFile(item.FullPath, item.Content, item.Mode)
	default:
		item.Err = fmt.Errorf("unknown item kind %s", item.Kind)
	}
	if !item.Start.IsZero() {
		item.Finish = time.Since(item.Start)
	}
}

func writeFile(path string, content []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
