package camera

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/evenmork/camwatch-backend/models"
)

// Image is the metadata view of a camera's current image, as served over
// HTTP and carried in broadcast events. Small images carry their content
// inline as a base64 data URL so consumers can render without a
// follow-up fetch.
type Image struct {
	FileName string    `json:"fileName"`
	FilePath string    `json:"filePath"` // relative to the published root
	Modified string    `json:"modified"` // RFC3339
	Mime     string    `json:"mime"`
	URL      string    `json:"url"`
	Expired  bool      `json:"expired"`
	ModTime  time.Time `json:"-"`
}

// IsStale reports whether the camera's current image is older than
// maxAge. A camera without a current file, or whose current file is
// missing from disk, counts as stale. A disabled (zero) maxAge never
// triggers staleness.
func IsStale(paths *Paths, maxAge time.Duration, camera *models.Camera) bool {
	if maxAge == 0 {
		return false
	}
	path := paths.CurrentPath(camera)
	if path == "" {
		return true
	}
	stat, err := os.Stat(path)
	if err != nil {
		return true
	}
	return time.Since(stat.ModTime()) > maxAge
}

// NewImage builds the current-image view for a camera. An expired (or
// absent) current file yields a view with only the Expired flag set.
func NewImage(paths *Paths, maxAge time.Duration, base64Below int64, camera *models.Camera) *Image {
	if IsStale(paths, maxAge, camera) {
		return &Image{Expired: true}
	}
	path := paths.CurrentPath(camera)
	if path == "" {
		return &Image{Expired: true}
	}
	stat, err := os.Stat(path)
	if err != nil {
		return &Image{Expired: true}
	}

	img := &Image{
		FileName: *camera.CurrentFile,
		FilePath: paths.CurrentRelativePath(camera),
		Modified: stat.ModTime().Format(time.RFC3339),
		ModTime:  stat.ModTime(),
	}
	if mime, err := mimetype.DetectFile(path); err == nil {
		img.Mime = mime.String()
	}
	img.URL = imageURL(path, camera, img.Mime, stat.Size(), base64Below)
	return img
}

// imageURL returns either a data: URL with the inlined file content, for
// files below the configured threshold, or the route serving the file.
func imageURL(path string, camera *models.Camera, mime string, size, base64Below int64) string {
	if base64Below > 0 && size <= base64Below {
		if content, err := os.ReadFile(path); err == nil {
			return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(content))
		}
	}
	return fmt.Sprintf("/api/cameras/%d/file/%s", camera.ID, *camera.CurrentFile)
}
