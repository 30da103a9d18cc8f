package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SlogLevel maps a notification level onto a slog level.
func SlogLevel(l Level) slog.Level {
	switch l {
	case LevelVerbose:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewSlogHandler returns a Handler that writes notifications to logger.
// Per-chunk download events are folded into a Tracker and reported once
// when the download finishes.
func NewSlogHandler(logger *slog.Logger) Handler {
	tracker := NewTracker()
	return func(n Notification) {
		switch n.Kind {
		case DownloadDataReceived, DownloadContentLengthReceived, ResumingPartialDownload:
			tracker.Handle(n)
			return
		case DownloadFinished:
			received, total, elapsed := tracker.Finish()
			logger.Debug(n.String(),
				slog.Int64("bytes", received),
				slog.Int64("content_length", total),
				slog.Duration("elapsed", elapsed))
			return
		}

		attrs := []slog.Attr{}
		if n.Name != "" {
			attrs = append(attrs, slog.String("name", n.Name))
		}
		if n.Target != "" {
			attrs = append(attrs, slog.String("target", n.Target))
		}
		if n.URL != "" {
			attrs = append(attrs, slog.String("url", n.URL))
		}
		if n.Path != "" {
			attrs = append(attrs, slog.String("path", n.Path))
		}
		if n.Err != nil {
			attrs = append(attrs, slog.String("error", n.Err.Error()))
		}
		logger.LogAttrs(context.Background(), SlogLevel(n.Level()), n.String(), attrs...)
	}
}

// Tracker aggregates download progress events.
type Tracker struct {
	mu            sync.Mutex
	contentLength int64
	received      int64
	resumed       bool
	started       time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Handle folds a download event into the tracker.
func (t *Tracker) Handle(n Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started.IsZero() {
		t.started = time.Now()
	}
	switch n.Kind {
	case DownloadContentLengthReceived:
		t.contentLength = n.Bytes
	case DownloadDataReceived:
		t.received += n.Bytes
	case ResumingPartialDownload:
		t.resumed = true
	}
}

// Progress returns bytes received so far and the advertised total (0 if unknown).
func (t *Tracker) Progress() (received, total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.received, t.contentLength
}

// Resumed reports whether the current download continued a partial file.
func (t *Tracker) Resumed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resumed
}

// Finish returns the final totals and resets the tracker for the next download.
func (t *Tracker) Finish() (received, total int64, elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	received, total = t.received, t.contentLength
	if !t.started.IsZero() {
		elapsed = time.Since(t.started)
	}
	t.contentLength, t.received, t.resumed, t.started = 0, 0, false, time.Time{}
	return received, total, elapsed
}
