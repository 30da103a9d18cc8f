// Package transaction applies filesystem changes to an installation prefix
// so that they can be undone as a unit.
//
// Every change is appended to a log together with whatever is needed to
// reverse it. Removed and overwritten files are moved into a temp
// directory instead of being deleted. Commit discards the backups;
// Rollback replays the log backwards. Callers defer Rollback right after
// New, which makes it a no-op once Commit has run.
package transaction

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adamancini/toolup/internal/notify"
	"github.com/adamancini/toolup/internal/temp"
)

type changeKind int

const (
	addedFile changeKind = iota
	addedDir
	removedFile
	removedDir
	modifiedFile
)

type change struct {
	kind   changeKind
	rel    string
	backup string
}

// ConflictError is returned when a component would overwrite a path that
// already exists.
type ConflictError struct {
	Component string
	Path      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("failed to install component: '%s', detected conflict: '%s'", e.Component, e.Path)
}

// Transaction is a reversible log of changes under Prefix. It is not safe for
// concurrent use, and only one transaction may be open per prefix.
type Transaction struct {
	prefix    string
	temp      *temp.Context
	notify    notify.Handler
	changes   []change
	committed bool
	backupDir string
}

// New starts a transaction against prefix.
func New(prefix string, tmp *temp.Context, handler notify.Handler) *Transaction {
	if handler == nil {
		handler = notify.Discard
	}
	return &Transaction{prefix: prefix, temp: tmp, notify: handler}
}

// Prefix returns the installation root.
func (tx *Transaction) Prefix() string {
	return tx.prefix
}

// Path returns the absolute path of rel under the prefix.
func (tx *Transaction) Path(rel string) string {
	return filepath.Join(tx.prefix, filepath.FromSlash(rel))
}

// AddDir creates an empty directory.
func (tx *Transaction) AddDir(component, rel string) (string, error) {
	full, err := tx.prepareAdd(component, rel)
	if err != nil {
		return "", err
	}
	if err := os.Mkdir(full, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", rel, err)
	}
	tx.record(change{kind: addedDir, rel: rel})
	return full, nil
}

// WriteFile creates a new file with the given content.
func (tx *Transaction) WriteFile(component, rel string, content []byte) error {
	full, err := tx.prepareAdd(component, rel)
	if err != nil {
		return err
	}
	tx.record(change{kind: addedFile, rel: rel})
	if err := os.WriteFile(full, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// CopyFile moves src into the prefix at rel.
func (tx *Transaction) CopyFile(component, rel, src string) error {
	full, err := tx.prepareAdd(component, rel)
	if err != nil {
		return err
	}
	tx.record(change{kind: addedFile, rel: rel})
	if err := move(src, full); err != nil {
		return fmt.Errorf("failed to install file %s: %w", rel, err)
	}
	return nil
}

// CopyDir moves the directory tree src into the prefix at rel.
func (tx *Transaction) CopyDir(component, rel, src string) error {
	full, err := tx.prepareAdd(component, rel)
	if err != nil {
		return err
	}
	tx.record(change{kind: addedDir, rel: rel})
	if err := move(src, full); err != nil {
		return fmt.Errorf("failed to install directory %s: %w", rel, err)
	}
	return nil
}

// RemoveFile removes a file, keeping a backup.
func (tx *Transaction) RemoveFile(component, rel string) error {
	return tx.remove(component, rel, removedFile)
}

// RemoveDir removes a directory tree, keeping a backup.
func (tx *Transaction) RemoveDir(component, rel string) error {
	return tx.remove(component, rel, removedDir)
}

// ModifyFile records that rel is about to be created or overwritten and
// returns its absolute path. The current contents, if any, are backed up.
func (tx *Transaction) ModifyFile(rel string) (string, error) {
	full := tx.Path(rel)
	if err := tx.ensureParents(rel); err != nil {
		return "", err
	}

	var backup string
	if _, err := os.Stat(full); err == nil {
		backup, err = tx.backupPath()
		if err != nil {
			return "", err
		}
		if err := copyFile(full, backup); err != nil {
			return "", fmt.Errorf("failed to back up %s: %w", rel, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat %s: %w", rel, err)
	}

	tx.record(change{kind: modifiedFile, rel: rel, backup: backup})
	return full, nil
}

// Commit makes every change permanent.
func (tx *Transaction) Commit() {
	tx.committed = true
	if tx.backupDir != "" {
		tx.temp.Remove(tx.backupDir)
	}
	tx.changes = nil
}

// Rollback undoes every change in reverse order. It does nothing after
// Commit. Failures are reported as non-fatal notifications so the error that
// caused the rollback is what reaches the caller.
func (tx *Transaction) Rollback() {
	if tx.committed || len(tx.changes) == 0 {
		return
	}
	tx.notify(notify.Notification{Kind: notify.RollingBack, Path: tx.prefix})

	for i := len(tx.changes) - 1; i >= 0; i-- {
		if err := tx.undo(tx.changes[i]); err != nil {
			tx.notify(notify.Notification{Kind: notify.NonFatalError, Path: tx.Path(tx.changes[i].rel), Err: err})
		}
	}
	tx.changes = nil
	if tx.backupDir != "" {
		tx.temp.Remove(tx.backupDir)
	}
}

func (tx *Transaction) undo(c change) error {
	full := tx.Path(c.rel)
	switch c.kind {
	case addedFile:
		return removeIfExists(full, os.Remove)
	case addedDir:
		return removeIfExists(full, os.RemoveAll)
	case removedFile, removedDir:
		return move(c.backup, full)
	case modifiedFile:
		if c.backup == "" {
			return removeIfExists(full, os.Remove)
		}
		return move(c.backup, full)
	default:
		return fmt.Errorf("unknown change kind %d", c.kind)
	}
}

func (tx *Transaction) record(c change) {
	tx.changes = append(tx.changes, c)
}

func (tx *Transaction) prepareAdd(component, rel string) (string, error) {
	full := tx.Path(rel)
	if _, err := os.Lstat(full); err == nil {
		return "", &ConflictError{Component: component, Path: rel}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat %s: %w", rel, err)
	}
	if err := tx.ensureParents(rel); err != nil {
		return "", err
	}
	return full, nil
}

func (tx *Transaction) remove(component, rel string, kind changeKind) error {
	full := tx.Path(rel)
	if _, err := os.Lstat(full); err != nil {
		return fmt.Errorf("failed to remove %s for component '%s': %w", rel, component, err)
	}

	backup, err := tx.backupPath()
	if err != nil {
		return err
	}
	if err := move(full, backup); err != nil {
		return fmt.Errorf("failed to remove %s: %w", rel, err)
	}
	tx.record(change{kind: kind, rel: rel, backup: backup})
	return nil
}

// ensureParents creates missing parent directories of rel, recording each one
// so that rollback removes it again.
func (tx *Transaction) ensureParents(rel string) error {
	if err := os.MkdirAll(tx.prefix, 0755); err != nil {
		return fmt.Errorf("failed to create prefix: %w", err)
	}

	dir := filepath.Dir(filepath.FromSlash(rel))
	if dir == "." {
		return nil
	}

	var current string
	for _, part := range strings.Split(dir, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		full := filepath.Join(tx.prefix, current)
		info, err := os.Stat(full)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("failed to create directory %s: not a directory", current)
			}
			continue
		}
		if err := os.Mkdir(full, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", current, err)
		}
		tx.record(change{kind: addedDir, rel: filepath.ToSlash(current)})
	}
	return nil
}

func (tx *Transaction) backupPath() (string, error) {
	if tx.backupDir == "" {
		dir, err := tx.temp.NewDirectory()
		if err != nil {
			return "", fmt.Errorf("failed to create backup directory: %w", err)
		}
		tx.backupDir = dir
	}
	return filepath.Join(tx.backupDir, fmt.Sprintf("%d", len(tx.changes))), nil
}

func removeIfExists(path string, remove func(string) error) error {
	if err := remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
