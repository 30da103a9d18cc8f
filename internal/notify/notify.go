// Package notify carries one-way progress and diagnostic events from the
// installer core to whatever front end is attached.
package notify

import (
	"fmt"
	"strings"
)

// Level is the severity of a notification.
type Level int

const (
	LevelVerbose Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the lowercase name of the level.
func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Kind identifies the event a notification describes.
type Kind int

const (
	// Download transport events.
	DownloadContentLengthReceived Kind = iota
	DownloadDataReceived
	DownloadFinished
	ResumingPartialDownload

	// Download cache events.
	FileAlreadyDownloaded
	CachedFileChecksumFailed
	ChecksumValid
	NoUpdateHash
	CantReadUpdateHash

	// Manifest protocol events.
	DownloadingManifest
	DownloadedManifest
	DownloadingLegacyManifest
	ManifestChecksumFailedHack

	// Installer events.
	DownloadingComponent
	InstallingComponent
	RemovingComponent
	RemovingOldComponent
	ComponentAlreadyInstalled
	ComponentUnavailable
	MissingInstalledComponent
	ExtensionNotInstalled

	// Transaction and filesystem events.
	RollingBack
	RemovingDirectory
	CreatingDirectory
	NonFatalError
)

// Notification is a single event. Only the fields relevant to Kind are set.
type Notification struct {
	Kind Kind

	// Name is a component, toolchain or manifest name.
	Name string
	// Target is the component target, when it differs from the host toolchain.
	Target string
	// URL is the resource being fetched.
	URL string
	// Path is a filesystem path.
	Path string
	// Version carries a date or version string.
	Version string
	// Bytes is a content length or a received chunk size.
	Bytes int64
	// Err carries a non-fatal error.
	Err error
}

// Level returns the severity of the notification.
func (n Notification) Level() Level {
	switch n.Kind {
	case DownloadContentLengthReceived, DownloadDataReceived, DownloadFinished,
		ResumingPartialDownload, FileAlreadyDownloaded, ChecksumValid,
		NoUpdateHash, DownloadingLegacyManifest, CreatingDirectory:
		return LevelVerbose
	case DownloadingManifest, DownloadedManifest, ManifestChecksumFailedHack,
		DownloadingComponent, InstallingComponent, RemovingComponent,
		RemovingOldComponent, ComponentAlreadyInstalled, RollingBack,
		RemovingDirectory:
		return LevelInfo
	case CachedFileChecksumFailed, CantReadUpdateHash, ComponentUnavailable,
		MissingInstalledComponent, ExtensionNotInstalled:
		return LevelWarn
	case NonFatalError:
		return LevelError
	default:
		return LevelInfo
	}
}

// String renders the notification as a human-readable message.
func (n Notification) String() string {
	switch n.Kind {
	case DownloadContentLengthReceived:
		return fmt.Sprintf("download size is %d bytes", n.Bytes)
	case DownloadDataReceived:
		return fmt.Sprintf("received %d bytes", n.Bytes)
	case DownloadFinished:
		return "download finished"
	case ResumingPartialDownload:
		return "resuming partial download"
	case FileAlreadyDownloaded:
		return "reusing previously downloaded file"
	case CachedFileChecksumFailed:
		return "bad checksum for cached download"
	case ChecksumValid:
		return "checksum passed"
	case NoUpdateHash:
		return fmt.Sprintf("no update hash at: '%s'", n.Path)
	case CantReadUpdateHash:
		return fmt.Sprintf("can't read update hash file: '%s', can't skip update...", n.Path)
	case DownloadingManifest:
		return fmt.Sprintf("syncing channel updates for '%s'", n.Name)
	case DownloadedManifest:
		if n.Version != "" {
			return fmt.Sprintf("latest update on %s, toolchain version %s", n.Name, n.Version)
		}
		return fmt.Sprintf("latest update on %s, no toolchain version", n.Name)
	case DownloadingLegacyManifest:
		return "manifest not found. trying legacy manifest"
	case ManifestChecksumFailedHack:
		return "update not yet available, sorry! try again later"
	case DownloadingComponent:
		return componentMessage("downloading component", n)
	case InstallingComponent:
		return componentMessage("installing component", n)
	case RemovingComponent:
		return componentMessage("removing component", n)
	case RemovingOldComponent:
		return componentMessage("removing previous version of component", n)
	case ComponentAlreadyInstalled:
		return fmt.Sprintf("component %s is up to date", n.Name)
	case ComponentUnavailable:
		if n.Target != "" {
			return fmt.Sprintf("component '%s' is not available on target '%s'", n.Name, n.Target)
		}
		return fmt.Sprintf("component '%s' is not available", n.Name)
	case MissingInstalledComponent:
		return fmt.Sprintf("during uninstall component %s was not found", n.Name)
	case ExtensionNotInstalled:
		return fmt.Sprintf("extension '%s' was not installed", n.Name)
	case RollingBack:
		return "rolling back changes"
	case RemovingDirectory:
		return fmt.Sprintf("removing %s directory: '%s'", n.Name, n.Path)
	case CreatingDirectory:
		return fmt.Sprintf("creating %s directory: '%s'", n.Name, n.Path)
	case NonFatalError:
		if n.Err != nil {
			return n.Err.Error()
		}
		return "non-fatal error"
	default:
		return fmt.Sprintf("notification(%d)", int(n.Kind))
	}
}

func componentMessage(prefix string, n Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s '%s'", prefix, n.Name)
	if n.Target != "" {
		fmt.Fprintf(&b, " for '%s'", n.Target)
	}
	return b.String()
}

// Handler receives notifications. Handlers must not block for long; the
// installer calls them synchronously.
type Handler func(Notification)

// Discard is a Handler that drops every notification.
func Discard(Notification) {}

// Tee returns a Handler that forwards to every non-nil handler in order.
func Tee(handlers ...Handler) Handler {
	return func(n Notification) {
		for _, h := range handlers {
			if h != nil {
				h(n)
			}
		}
	}
}

// Recorder collects notifications. It is primarily useful in tests.
type Recorder struct {
	Events []Notification
}

// Handle appends n to the recorded events.
func (r *Recorder) Handle(n Notification) {
	r.Events = append(r.Events, n)
}

// Count returns how many recorded events have the given kind.
func (r *Recorder) Count(kind Kind) int {
	count := 0
	for _, n := range r.Events {
		if n.Kind == kind {
			count++
		}
	}
	return count
}

// Has reports whether any recorded event has the given kind.
func (r *Recorder) Has(kind Kind) bool {
	return r.Count(kind) > 0
}
