package watcher

import (
	"context"
	"log"
	"time"

	"github.com/evenmork/camwatch-backend/camera"
	"github.com/evenmork/camwatch-backend/repository"
)

const sweepInterval = time.Minute

// Sweeper periodically re-evaluates active cameras against the staleness
// rule and deactivates stalled ones, bounding detection latency for
// cameras that silently stop delivering even when no HTTP read ever
// triggers a refresh.
type Sweeper struct {
	cameras *repository.CameraRepository
	current *camera.CurrentService
	maxAge  time.Duration
}

func NewSweeper(cameras *repository.CameraRepository, current *camera.CurrentService, maxAge time.Duration) *Sweeper {
	return &Sweeper{cameras: cameras, current: current, maxAge: maxAge}
}

// Run blocks, sweeping once per minute until ctx is cancelled. With
// staleness disabled it returns immediately.
func (s *Sweeper) Run(ctx context.Context) {
	if s.maxAge == 0 {
		return
	}
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep() {
	cams, err := s.cameras.ListStaleActive(s.maxAge)
	if err != nil {
		log.Printf("sweeper: ERROR listing stale cameras: %v", err)
		return
	}
	for i := range cams {
		cam := &cams[i]
		log.Printf("sweeper: camera %d (%s) is not receiving images anymore, re-evaluating", cam.ID, cam.Name)
		if _, err := s.current.RefreshNow(cam); err != nil {
			log.Printf("sweeper: ERROR refreshing camera %d (%s): %v", cam.ID, cam.Name, err)
		}
	}
}
