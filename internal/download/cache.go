package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/adamancini/toolup/internal/notify"
	"github.com/adamancini/toolup/internal/temp"
)

// UpdateHashLen is the number of hash characters recorded in update-hash files.
const UpdateHashLen = 20

const partialSuffix = ".partial"

// Cache is a content-addressed download directory. Files are stored under
// their SHA-256 and reused across calls.
type Cache struct {
	Dir string

	client *Client
	temp   *temp.Context
	notify notify.Handler
	group  singleflight.Group
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string, client *Client, tmp *temp.Context, handler notify.Handler) *Cache {
	if handler == nil {
		handler = notify.Discard
	}
	if client == nil {
		client = NewClient()
	}
	return &Cache{
		Dir:    dir,
		client: client,
		temp:   tmp,
		notify: handler,
	}
}

// Download fetches url into the cache and returns the path of the verified
// file. Concurrent calls for the same hash share one transfer.
func (c *Cache) Download(ctx context.Context, url, hash string) (string, error) {
	v, err, _ := c.group.Do(hash, func() (any, error) {
		return c.download(ctx, url, hash)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Cache) download(ctx context.Context, url, hash string) (string, error) {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	target := filepath.Join(c.Dir, hash)

	if _, err := os.Stat(target); err == nil {
		actual, err := fileHash(target)
		if err != nil {
			return "", err
		}
		if actual == hash {
			c.notify(notify.Notification{Kind: notify.FileAlreadyDownloaded, Path: target})
			c.notify(notify.Notification{Kind: notify.ChecksumValid, URL: url})
			return target, nil
		}
		c.notify(notify.Notification{Kind: notify.CachedFileChecksumFailed, Path: target})
		if err := os.Remove(target); err != nil {
			return "", fmt.Errorf("failed to remove corrupt cached file: %w", err)
		}
	}

	partial := target + partialSuffix
	hasher := sha256.New()
	if err := c.client.DownloadToPath(ctx, url, partial, hasher, c.notify); err != nil {
		return "", err
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if actual != hash {
		if err := os.Remove(partial); err != nil {
			c.notify(notify.Notification{Kind: notify.NonFatalError, Path: partial, Err: err})
		}
		return "", &ChecksumFailedError{URL: url, Expected: hash, Calculated: actual}
	}
	c.notify(notify.Notification{Kind: notify.ChecksumValid, URL: url})

	if err := os.Rename(partial, target); err != nil {
		return "", fmt.Errorf("failed to move download into cache: %w", err)
	}
	return target, nil
}

// DownloadAndCheck fetches url after consulting its published ".sha256".
//
// If updateHashPath names a file holding the same short hash the download is
// skipped and ok is false. Otherwise the content is written to a fresh temp
// file and verified; the caller owns the returned path. shortHash is the value
// to record in the update-hash file once the result has been applied.
func (c *Cache) DownloadAndCheck(ctx context.Context, url, updateHashPath, suffix string) (path, shortHash string, ok bool, err error) {
	hashURL := url + ".sha256"
	hashFile, err := c.temp.NewFile(".sha256")
	if err != nil {
		return "", "", false, err
	}
	defer c.temp.Remove(hashFile)

	if err := c.client.DownloadToPath(ctx, hashURL, hashFile, nil, c.notify); err != nil {
		return "", "", false, err
	}
	data, err := os.ReadFile(hashFile)
	if err != nil {
		return "", "", false, fmt.Errorf("failed to read hash file: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", "", false, fmt.Errorf("empty hash file at %s", hashURL)
	}
	expected := fields[0]
	shortHash = expected
	if len(shortHash) > UpdateHashLen {
		shortHash = shortHash[:UpdateHashLen]
	}

	if updateHashPath != "" {
		recorded, err := os.ReadFile(updateHashPath)
		switch {
		case err == nil:
			if strings.TrimSpace(string(recorded)) == shortHash {
				return "", "", false, nil
			}
		case errors.Is(err, os.ErrNotExist):
			c.notify(notify.Notification{Kind: notify.NoUpdateHash, Path: updateHashPath})
		default:
			c.notify(notify.Notification{Kind: notify.CantReadUpdateHash, Path: updateHashPath, Err: err})
		}
	}

	file, err := c.temp.NewFile(suffix)
	if err != nil {
		return "", "", false, err
	}

	hasher := sha256.New()
	if err := c.client.DownloadToPath(ctx, url, file, hasher, c.notify); err != nil {
		c.temp.Remove(file)
		return "", "", false, err
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if actual != expected {
		c.temp.Remove(file)
		return "", "", false, &ChecksumFailedError{URL: url, Expected: expected, Calculated: actual}
	}
	c.notify(notify.Notification{Kind: notify.ChecksumValid, URL: url})

	return file, shortHash, true, nil
}

// Clean removes the cached files for the given hashes.
func (c *Cache) Clean(hashes []string) error {
	for _, h := range hashes {
		if err := os.Remove(filepath.Join(c.Dir, h)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove cached file %s: %w", h, err)
		}
	}
	return nil
}

// fileHash returns the hex SHA-256 of the file at path.
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
