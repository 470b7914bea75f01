package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evenmork/camwatch-backend/config"
	"github.com/evenmork/camwatch-backend/models"
)

// Paths derives a camera's filesystem mapping from the shared
// configuration: where its imagery lands, where it is published, and the
// patterns matching its files. All derivations are pure functions of
// camera attributes plus static config and are recomputed on every call,
// never cached, so attribute changes take effect immediately.
type Paths struct {
	cfg config.Config
	tok *Tokenizer
}

func NewPaths(cfg config.Config, tok *Tokenizer) *Paths {
	return &Paths{cfg: cfg, tok: tok}
}

// IncomingDir is the camera's incoming folder relative to the incoming root.
func (p *Paths) IncomingDir(camera *models.Camera) string {
	return strings.Trim(p.tok.Expand(p.cfg.IncomingFolder, camera, false), "/")
}

// FullIncomingDir is the absolute path of the camera's incoming folder.
func (p *Paths) FullIncomingDir(camera *models.Camera) string {
	return filepath.Join(p.cfg.IncomingRoot, p.IncomingDir(camera))
}

// Dir is the camera's published folder relative to the published root.
func (p *Paths) Dir(camera *models.Camera) string {
	return strings.Trim(p.tok.Expand(p.cfg.Folder, camera, false), "/")
}

// FullDir is the absolute path of the camera's published folder.
func (p *Paths) FullDir(camera *models.Camera) string {
	return filepath.Join(p.cfg.PublishedRoot, p.Dir(camera))
}

// FileRegex is the expanded filename pattern for this camera's images.
// Substituted attribute values are regex-escaped since the result is
// compiled as a regular expression.
func (p *Paths) FileRegex(camera *models.Camera) string {
	return p.tok.Expand(p.cfg.FileRegex, camera, true)
}

// FilePathRegex matches the full published path of this camera's images.
// Callers anchor it start-to-end when matching.
func (p *Paths) FilePathRegex(camera *models.Camera) string {
	return regexp.QuoteMeta(p.FullDir(camera)) + "/" + p.FileRegex(camera)
}

// CurrentPath is the absolute path of the camera's current file, or ""
// when the camera has none.
func (p *Paths) CurrentPath(camera *models.Camera) string {
	if camera.CurrentFile == nil || *camera.CurrentFile == "" {
		return ""
	}
	return filepath.Join(p.FullDir(camera), *camera.CurrentFile)
}

// CurrentRelativePath is the current file's path relative to the
// published root, or "" when the camera has none.
func (p *Paths) CurrentRelativePath(camera *models.Camera) string {
	if camera.CurrentFile == nil || *camera.CurrentFile == "" {
		return ""
	}
	return p.Dir(camera) + "/" + *camera.CurrentFile
}

// CacheKey identifies this camera's current-image cache entry.
func (p *Paths) CacheKey(camera *models.Camera) string {
	return fmt.Sprintf("camera.%d.current", camera.ID)
}

// SamePublishTarget reports whether the camera's incoming and published
// directories resolve to the same physical path. When they do, incoming
// files are treated as published in place and the pipeline is skipped.
func (p *Paths) SamePublishTarget(camera *models.Camera) bool {
	return p.FullIncomingDir(camera) == p.FullDir(camera)
}

// EnsureDirs creates the camera's incoming and published directories if
// missing.
func (p *Paths) EnsureDirs(camera *models.Camera) error {
	incoming := p.FullIncomingDir(camera)
	if err := os.MkdirAll(incoming, 0755); err != nil {
		return fmt.Errorf("failed to create incoming directory '%s': %w", incoming, err)
	}
	if published := p.FullDir(camera); published != incoming {
		if err := os.MkdirAll(published, 0755); err != nil {
			return fmt.Errorf("failed to create published directory '%s': %w", published, err)
		}
	}
	return nil
}
