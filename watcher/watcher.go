package watcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/evenmork/camwatch-backend/camera"
	"github.com/evenmork/camwatch-backend/models"
	"github.com/evenmork/camwatch-backend/repository"
)

// batchWindow is how long the loop waits after the first event before
// processing the accumulated batch. A camera dumping a file typically
// fires several raw events on the same path in quick succession; the
// window lets them collapse into one.
const batchWindow = 200 * time.Millisecond

// Watcher is the long-running directory watch loop. It registers one
// filesystem watch per distinct incoming directory, attributes each
// distinct incoming file to its owning camera and drives ingestion.
// The registration map is built once at Run and owned by the loop;
// cameras added later are picked up on restart.
type Watcher struct {
	cameras  *repository.CameraRepository
	paths    *camera.Paths
	resolver *camera.Resolver
	current  *camera.CurrentService

	dirs map[string][]*models.Camera // watched directory -> cameras sharing it
}

func New(cameras *repository.CameraRepository, paths *camera.Paths, resolver *camera.Resolver, current *camera.CurrentService) *Watcher {
	return &Watcher{
		cameras:  cameras,
		paths:    paths,
		resolver: resolver,
		current:  current,
	}
}

// Run registers watches and blocks processing events until ctx is
// cancelled. Per-event failures are logged and never terminate the loop.
func (w *Watcher) Run(ctx context.Context) error {
	cams, err := w.cameras.ListAll()
	if err != nil {
		return err
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	defer fs.Close()

	w.dirs = make(map[string][]*models.Camera)
	for i := range cams {
		cam := &cams[i]
		if err := w.paths.EnsureDirs(cam); err != nil {
			log.Printf("watcher: WARNING could not create directories for camera %d (%s): %v", cam.ID, cam.Name, err)
			continue
		}
		dir := w.paths.FullIncomingDir(cam)
		if _, watched := w.dirs[dir]; !watched {
			if err := fs.Add(dir); err != nil {
				log.Printf("watcher: WARNING could not watch directory %s for camera %d (%s): %v", dir, cam.ID, cam.Name, err)
				continue
			}
			log.Printf("watcher: watching %s", dir)
		} else {
			log.Printf("watcher: several cameras share directory %s", dir)
		}
		w.dirs[dir] = append(w.dirs[dir], cam)
	}
	if len(w.dirs) == 0 {
		log.Println("watcher: no watchable directories found, nothing to do")
		return nil
	}

	var batch []fsnotify.Event
	var flush <-chan time.Time
	for {
		select {
		case ev, ok := <-fs.Events:
			if !ok {
				return nil
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
				continue
			}
			batch = append(batch, ev)
			if flush == nil {
				flush = time.After(batchWindow)
			}
		case <-flush:
			w.handleBatch(batch)
			batch = nil
			flush = nil
		case err, ok := <-fs.Errors:
			if !ok {
				return nil
			}
			log.Printf("watcher: ERROR from filesystem watcher: %v", err)
		case <-ctx.Done():
			return nil
		}
	}
}

// handleBatch processes each distinct file of a batch at most once, in
// arrival order.
func (w *Watcher) handleBatch(events []fsnotify.Event) {
	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		if seen[ev.Name] {
			continue
		}
		seen[ev.Name] = true
		if err := w.handleFile(ev.Name); err != nil {
			log.Printf("watcher: ERROR handling %s: %v", ev.Name, err)
		}
	}
}

func (w *Watcher) handleFile(path string) error {
	dir := filepath.Dir(path)
	candidates := w.dirs[dir]
	if len(candidates) == 0 {
		return nil
	}

	cam, err := w.resolver.Resolve(dir, filepath.Base(path), candidates)
	if err != nil {
		if errors.Is(err, camera.ErrAmbiguousCamera) {
			// operator-visible; the file never enters the catalog and is
			// retried once the configuration is corrected
			log.Printf("watcher: ERROR %v", err)
			return nil
		}
		return err
	}
	if cam == nil {
		log.Printf("watcher: no camera found for incoming file %s", path)
		return nil
	}

	if _, err := w.current.Ingest(cam, path); err != nil {
		return fmt.Errorf("ingesting for camera %d (%s): %w", cam.ID, cam.Name, err)
	}
	return nil
}
