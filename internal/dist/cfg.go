// Package dist installs toolchains published by a distribution server. It
// fetches channel manifests, resolves which components to change and applies
// the result to an installation prefix inside a transaction.
package dist

import (
	"strings"

	"github.com/adamancini/toolup/internal/diskio"
	"github.com/adamancini/toolup/internal/download"
	"github.com/adamancini/toolup/internal/notify"
	"github.com/adamancini/toolup/internal/temp"
)

// DefaultDistServer is the server manifests point their installer URLs at.
const DefaultDistServer = "https://static.toolup.dev"

// DownloadCfg carries the collaborators an update needs.
type DownloadCfg struct {
	// DistServer overrides DefaultDistServer. Installer URLs in manifests are
	// rewritten to point at it.
	DistServer string
	Cache      *download.Cache
	Temp       *temp.Context
	Notify     notify.Handler
	// Executor creates the disk executor used to unpack installers. Nil
	// unpacks on the calling goroutine.
	Executor diskio.Factory
	// StagedManifest fetches tracking channels from the staging area.
	StagedManifest bool
	// StrictManifestChecksum fails an update when a manifest does not match
	// its published hash instead of reporting that no update is available.
	StrictManifestChecksum bool
}

func (c *DownloadCfg) server() string {
	if c.DistServer == "" {
		return DefaultDistServer
	}
	return strings.TrimRight(c.DistServer, "/")
}

// DistRoot is the base URL of channel manifests.
func (c *DownloadCfg) DistRoot() string {
	return c.server() + "/dist"
}

// rewriteURL points an installer URL from the manifest at the configured
// server.
func (c *DownloadCfg) rewriteURL(u string) string {
	server := c.server()
	if server == DefaultDistServer {
		return u
	}
	return strings.Replace(u, DefaultDistServer, server, 1)
}

func (c *DownloadCfg) notify(n notify.Notification) {
	if c.Notify != nil {
		c.Notify(n)
	}
}

func (c *DownloadCfg) newExecutor() diskio.Executor {
	if c.Executor == nil {
		return diskio.NewImmediate()
	}
	return c.Executor()
}
