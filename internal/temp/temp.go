// Package temp hands out uniquely named scratch files and directories under
// a single root so they can be cleaned up together.
package temp

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/adamancini/toolup/internal/notify"
)

// Context allocates scratch paths under Root.
type Context struct {
	Root   string
	notify notify.Handler
}

// New returns a Context rooted at root. The directory is created lazily.
func New(root string, handler notify.Handler) *Context {
	if handler == nil {
		handler = notify.Discard
	}
	return &Context{Root: root, notify: handler}
}

func (c *Context) ensureRoot() error {
	if _, err := os.Stat(c.Root); err == nil {
		return nil
	}
	c.notify(notify.Notification{Kind: notify.CreatingDirectory, Name: "temp", Path: c.Root})
	if err := os.MkdirAll(c.Root, 0755); err != nil {
		return fmt.Errorf("failed to create temp root %s: %w", c.Root, err)
	}
	return nil
}

// NewFile reserves a fresh path with the given suffix. The file itself is
// created empty.
func (c *Context) NewFile(suffix string) (string, error) {
	if err := c.ensureRoot(); err != nil {
		return "", err
	}
	path := filepath.Join(c.Root, "f"+uuid.NewString()+suffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	return path, nil
}

// NewDirectory creates a fresh directory.
func (c *Context) NewDirectory() (string, error) {
	if err := c.ensureRoot(); err != nil {
		return "", err
	}
	path := filepath.Join(c.Root, "d"+uuid.NewString())
	if err := os.Mkdir(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	return path, nil
}

// Remove deletes a path previously handed out. Failures are reported as
// non-fatal notifications.
func (c *Context) Remove(path string) {
	if err := os.RemoveAll(path); err != nil {
		c.notify(notify.Notification{Kind: notify.NonFatalError, Path: path, Err: err})
	}
}

// Clean removes everything under the root.
func (c *Context) Clean() error {
	entries, err := os.ReadDir(c.Root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read temp root: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.Root, e.Name())); err != nil {
			return fmt.Errorf("failed to clean temp root: %w", err)
		}
	}
	return nil
}
