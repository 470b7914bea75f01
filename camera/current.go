package camera

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	gocache "github.com/patrickmn/go-cache"

	"github.com/evenmork/camwatch-backend/config"
	"github.com/evenmork/camwatch-backend/models"
	"github.com/evenmork/camwatch-backend/repository"
)

// Broadcaster receives change notifications when a camera's current
// image or active flag changes.
type Broadcaster interface {
	CameraUpdated(camera *models.Camera, image *Image)
}

// CurrentService is the orchestrator around a camera's current image: it
// keeps the camera record in sync with what is actually on disk. Every
// refresh ends in either a persisted state change with a broadcast, or a
// refreshed cache entry; an observed change is never dropped silently.
//
// Concurrent refreshes for the same camera race benignly: the TTL cache
// makes redundant scans cheap and the picture catalog's unique index
// prevents duplicate rows.
type CurrentService struct {
	cfg         config.Config
	paths       *Paths
	scanner     *Scanner
	cameras     *repository.CameraRepository
	cache       *gocache.Cache // nil when caching is disabled
	broadcaster Broadcaster    // nil when no transport is wired
}

func NewCurrentService(cfg config.Config, paths *Paths, scanner *Scanner, cameras *repository.CameraRepository, broadcaster Broadcaster) *CurrentService {
	var cache *gocache.Cache
	if cfg.CacheCurrent > 0 {
		cache = gocache.New(cfg.CacheCurrent, 2*cfg.CacheCurrent)
	}
	return &CurrentService{
		cfg:         cfg,
		paths:       paths,
		scanner:     scanner,
		cameras:     cameras,
		cache:       cache,
		broadcaster: broadcaster,
	}
}

// Refresh brings the camera record up to date with real life. It:
//
//  1. returns the cached view while the cache entry is fresh,
//  2. asserts the camera's directories exist,
//  3. scans for and catalogs new pictures,
//  4. re-evaluates the current file and staleness,
//  5. persists and broadcasts when anything changed.
func (s *CurrentService) Refresh(camera *models.Camera) (*Image, error) {
	if img := s.cachedImage(camera); img != nil {
		return img, nil
	}
	return s.refresh(camera)
}

// RefreshNow re-evaluates unconditionally, skipping the cache
// short-circuit. The sweeper uses it: a deactivation decision must come
// from disk, never from a still-fresh cache entry.
func (s *CurrentService) RefreshNow(camera *models.Camera) (*Image, error) {
	return s.refresh(camera)
}

func (s *CurrentService) refresh(camera *models.Camera) (*Image, error) {
	if err := s.paths.EnsureDirs(camera); err != nil {
		return nil, err
	}

	created, err := s.scanner.AddNewFiles(camera, s.cfg.ScanBatchSize)
	if err != nil {
		return nil, err
	}
	dirty := len(created) > 0

	latest, err := s.scanner.LatestFile(camera)
	if err != nil {
		return nil, err
	}
	switch {
	case latest == "":
		if camera.CurrentFile != nil {
			camera.CurrentFile = nil
			dirty = true
		}
	case camera.CurrentFile == nil || *camera.CurrentFile != latest:
		camera.CurrentFile = &latest
		dirty = true
	}

	img := NewImage(s.paths, s.cfg.MaxAge, s.cfg.Base64EncodeBelow, camera)
	if active := !img.Expired; camera.Active != active {
		camera.Active = active
		dirty = true
	}

	if dirty {
		if err := s.cameras.UpdateState(camera); err != nil {
			return nil, err
		}
		s.broadcast(camera, img)
	}
	s.cacheImage(camera, img)
	return img, nil
}

// Ingest drives the push-notification path for one incoming file already
// attributed to its camera: publish it, set it as current, mark the
// camera active, and broadcast. A file already catalogued by a
// concurrent scanner is not an error.
func (s *CurrentService) Ingest(camera *models.Camera, filePath string) (*models.Picture, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat incoming file %s: %w", filePath, err)
	}
	f := FileInfo{
		Name:    filepath.Base(filePath),
		Path:    filePath,
		ModTime: stat.ModTime(),
	}

	picture, err := s.scanner.CreatePicture(camera, f)
	if err != nil && !errors.Is(err, repository.ErrDuplicatePicture) {
		return nil, err
	}

	camera.CurrentFile = &f.Name
	camera.Active = true
	if err := s.cameras.UpdateState(camera); err != nil {
		return nil, err
	}

	img := NewImage(s.paths, s.cfg.MaxAge, s.cfg.Base64EncodeBelow, camera)
	s.broadcast(camera, img)
	s.cacheImage(camera, img)
	return picture, nil
}

// ScanOnce runs the scanning step directly, without the cache
// short-circuit. The fallback poller and the one-shot scan command use
// it in place of filesystem notifications.
func (s *CurrentService) ScanOnce(camera *models.Camera) ([]*models.Picture, error) {
	if err := s.paths.EnsureDirs(camera); err != nil {
		return nil, err
	}
	created, err := s.scanner.AddNewFiles(camera, s.cfg.ScanBatchSize)
	if err != nil || len(created) == 0 {
		return created, err
	}

	// candidates are newest first, so the first created picture is the
	// freshest
	camera.CurrentFile = &created[0].Filename
	camera.Active = true
	if err := s.cameras.UpdateState(camera); err != nil {
		return created, err
	}
	img := NewImage(s.paths, s.cfg.MaxAge, s.cfg.Base64EncodeBelow, camera)
	s.broadcast(camera, img)
	s.cacheImage(camera, img)
	return created, nil
}

func (s *CurrentService) cachedImage(camera *models.Camera) *Image {
	if s.cache == nil {
		return nil
	}
	if v, ok := s.cache.Get(s.paths.CacheKey(camera)); ok {
		if img, ok := v.(*Image); ok {
			return img
		}
	}
	return nil
}

func (s *CurrentService) cacheImage(camera *models.Camera, img *Image) {
	if s.cache == nil {
		return
	}
	s.cache.Set(s.paths.CacheKey(camera), img, gocache.DefaultExpiration)
}

func (s *CurrentService) broadcast(camera *models.Camera, img *Image) {
	if s.broadcaster != nil {
		s.broadcaster.CameraUpdated(camera, img)
	}
}
