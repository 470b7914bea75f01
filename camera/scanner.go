package camera

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/disintegration/imaging"
	"github.com/facette/natsort"
	"github.com/gabriel-vasile/mimetype"

	"github.com/evenmork/camwatch-backend/models"
	"github.com/evenmork/camwatch-backend/pipeline"
	"github.com/evenmork/camwatch-backend/repository"
)

// FileInfo describes one candidate image file in a camera's incoming
// directory.
type FileInfo struct {
	Name    string
	Path    string
	ModTime time.Time
}

// Scanner discovers image files in a camera's incoming directory and
// turns genuinely new ones into catalogued, published pictures.
type Scanner struct {
	paths    *Paths
	pictures *repository.PictureRepository
	pipe     *pipeline.Pipeline
}

func NewScanner(paths *Paths, pictures *repository.PictureRepository, pipe *pipeline.Pipeline) *Scanner {
	return &Scanner{paths: paths, pictures: pictures, pipe: pipe}
}

// FindNewFiles lists files in the camera's incoming directory whose name
// matches the camera's file pattern and whose modification time is
// strictly after the camera's last update, newest first, capped to
// maxCount. Equal modification times are tie-broken by natural filename
// order descending so repeated scans see the same order. A missing or
// unreadable directory yields zero candidates.
func (s *Scanner) FindNewFiles(camera *models.Camera, maxCount int) ([]FileInfo, error) {
	files, err := s.listMatching(camera, s.paths.FullIncomingDir(camera), func(modTime time.Time) bool {
		return modTime.After(camera.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	if maxCount > 0 && len(files) > maxCount {
		files = files[:maxCount]
	}
	return files, nil
}

// LatestFile returns the name of the newest file in the camera's
// published directory matching its pattern, regardless of the camera's
// last update, or "" when the directory holds no matching file.
func (s *Scanner) LatestFile(camera *models.Camera) (string, error) {
	files, err := s.listMatching(camera, s.paths.FullDir(camera), nil)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", nil
	}
	return files[0].Name, nil
}

func (s *Scanner) listMatching(camera *models.Camera, dir string, accept func(time.Time) bool) ([]FileInfo, error) {
	// the pattern matches filenames anchored at end-of-string only; the
	// directory itself is already known
	re, err := regexp.Compile(s.paths.FileRegex(camera) + "$")
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern for camera %d: %w", camera.ID, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// caller is responsible for directory assurance; treat as empty
		return nil, nil
	}

	var files []FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !re.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if accept != nil && !accept(info.ModTime()) {
			continue
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return natsort.Compare(files[j].Name, files[i].Name)
	})
	return files, nil
}

// AddNewFiles diffs new candidate files against the picture catalog and
// creates pictures for the remainder. Returns the created pictures,
// newest first, possibly empty. Files already catalogued by a concurrent
// scanner are skipped silently; a failing file is logged and left for
// the next scan.
func (s *Scanner) AddNewFiles(camera *models.Camera, maxCount int) ([]*models.Picture, error) {
	candidates, err := s.FindNewFiles(camera, maxCount)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	names := make([]string, len(candidates))
	for i, f := range candidates {
		names[i] = f.Name
	}
	existing, err := s.pictures.ExistingFilenames(camera.ID, names)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, name := range existing {
		known[name] = true
	}

	var created []*models.Picture
	for _, f := range candidates {
		if known[f.Name] {
			continue
		}
		picture, err := s.CreatePicture(camera, f)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicatePicture) {
				continue
			}
			log.Printf("scanner: ERROR creating picture for camera %d from %s: %v", camera.ID, f.Path, err)
			continue
		}
		created = append(created, picture)
	}
	return created, nil
}

// CreatePicture publishes one incoming file as a catalogued picture.
// When incoming and published directories coincide, the file is
// catalogued in place without decoding. Otherwise the image is decoded,
// run through the pipeline, re-encoded into the published directory, and
// the output's mtime synced to the source so ordering and staleness
// comparisons keep working downstream.
func (s *Scanner) CreatePicture(camera *models.Camera, f FileInfo) (*models.Picture, error) {
	outPath := f.Path
	if !s.paths.SamePublishTarget(camera) {
		img, err := imaging.Open(f.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", f.Path, err)
		}
		processed, err := s.pipe.Process(img, camera)
		if err != nil {
			return nil, err
		}
		outPath = filepath.Join(s.paths.FullDir(camera), f.Name)
		if err := imaging.Save(processed, outPath); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", outPath, err)
		}
		if err := os.Chtimes(outPath, f.ModTime, f.ModTime); err != nil {
			return nil, fmt.Errorf("failed to sync mtime of %s: %w", outPath, err)
		}
	}

	stat, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat published file %s: %w", outPath, err)
	}
	mime, err := mimetype.DetectFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect mime type of %s: %w", outPath, err)
	}

	picture := &models.Picture{
		CameraID:  camera.ID,
		Filename:  f.Name,
		Mime:      mime.String(),
		Size:      stat.Size(),
		CreatedAt: f.ModTime,
	}
	if err := s.pictures.Create(picture); err != nil {
		return nil, err
	}
	if err := s.pictures.MarkPublished(picture); err != nil {
		return nil, err
	}
	return picture, nil
}
