// Package download fetches remote files into a content-addressed cache with
// resume support and SHA-256 verification.
package download

import (
	"context"
	"errors"
	"fmt"
	"hash"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/adamancini/toolup/internal/notify"
)

// ConnectTimeout bounds connection setup. Transfers themselves are not timed out.
const ConnectTimeout = 30 * time.Second

const chunkSize = 64 * 1024

// Client fetches http(s) and file URLs.
type Client struct {
	http *http.Client
}

// NewClient creates a client with the default connect timeout.
func NewClient() *Client {
	dialer := &net.Dialer{Timeout: ConnectTimeout}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.TLSHandshakeTimeout = ConnectTimeout

	return &Client{
		http: &http.Client{Transport: transport},
	}
}

// NewClientWithHTTP wraps an existing http.Client. Used by tests.
func NewClientWithHTTP(c *http.Client) *Client {
	return &Client{http: c}
}

// DownloadToPath writes the resource at rawURL into path.
//
// When h is non-nil the transfer is resumable: bytes already present in path
// are replayed through h and the handler before the remaining bytes are
// requested. Without a hasher path is truncated first.
func (c *Client) DownloadToPath(ctx context.Context, rawURL, path string, h hash.Hash, handler notify.Handler) error {
	if handler == nil {
		handler = notify.Discard
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse url %s: %w", rawURL, err)
	}

	flags := os.O_CREATE | os.O_RDWR
	if h == nil {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	offset, err := replay(f, h, handler)
	if err != nil {
		return fmt.Errorf("failed to read partial download %s: %w", path, err)
	}

	switch u.Scheme {
	case "file":
		err = c.fetchFile(u, f, offset, h, handler)
	case "http", "https":
		err = c.fetchHTTP(ctx, rawURL, f, offset, h, handler)
	default:
		err = fmt.Errorf("unsupported url scheme %q in %s", u.Scheme, rawURL)
	}
	if err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	handler(notify.Notification{Kind: notify.DownloadFinished, URL: rawURL})
	return nil
}

// replay feeds the existing contents of f through h and returns the offset to
// resume from, leaving f positioned at the end.
func replay(f *os.File, h hash.Hash, handler notify.Handler) (int64, error) {
	if h == nil {
		return 0, nil
	}
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if info.Size() == 0 {
		return 0, nil
	}

	handler(notify.Notification{Kind: notify.ResumingPartialDownload})

	buf := make([]byte, chunkSize)
	var offset int64
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			offset += int64(n)
			handler(notify.Notification{Kind: notify.DownloadDataReceived, Bytes: int64(n)})
		}
		if errors.Is(err, io.EOF) {
			return offset, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// restart discards partial content when the source cannot honour a resume.
func restart(f *os.File, h hash.Hash) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if h != nil {
		h.Reset()
	}
	return nil
}

func (c *Client) fetchHTTP(ctx context.Context, rawURL string, f *os.File, offset int64, h hash.Hash, handler notify.Handler) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("failed to download %s: %w", rawURL, ErrNotFound)
	case resp.StatusCode == http.StatusPartialContent && offset > 0:
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && offset > 0:
		// The partial file is already as long as the resource, or longer.
		if err := restart(f, h); err != nil {
			return fmt.Errorf("failed to restart download: %w", err)
		}
		return c.fetchHTTP(ctx, rawURL, f, 0, h, handler)
	case resp.StatusCode == http.StatusOK:
		if offset > 0 {
			if err := restart(f, h); err != nil {
				return fmt.Errorf("failed to restart download: %w", err)
			}
			offset = 0
		}
	default:
		return &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	if resp.ContentLength >= 0 {
		handler(notify.Notification{Kind: notify.DownloadContentLengthReceived, URL: rawURL, Bytes: offset + resp.ContentLength})
	}
	return copyChunks(f, resp.Body, h, handler)
}

func (c *Client) fetchFile(u *url.URL, f *os.File, offset int64, h hash.Hash, handler notify.Handler) error {
	src, err := os.Open(u.Path)
	if os.IsNotExist(err) {
		return fmt.Errorf("failed to open %s: %w", u.Path, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", u.Path, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", u.Path, err)
	}
	if offset > info.Size() {
		if err := restart(f, h); err != nil {
			return fmt.Errorf("failed to restart download: %w", err)
		}
		offset = 0
	}
	if _, err := src.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek %s: %w", u.Path, err)
	}

	handler(notify.Notification{Kind: notify.DownloadContentLengthReceived, URL: u.String(), Bytes: info.Size()})
	return copyChunks(f, src, h, handler)
}

func copyChunks(dst io.Writer, src io.Reader, h hash.Hash, handler notify.Handler) error {
	buf := make([]byte, chunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return fmt.Errorf("failed to write download: %w", werr)
			}
			if h != nil {
				h.Write(buf[:n])
			}
			handler(notify.Notification{Kind: notify.DownloadDataReceived, Bytes: int64(n)})
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read download: %w", err)
		}
	}
}
