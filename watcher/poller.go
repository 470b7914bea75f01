package watcher

import (
	"context"
	"log"
	"time"

	"github.com/evenmork/camwatch-backend/camera"
	"github.com/evenmork/camwatch-backend/repository"
)

// Poller is the fallback for setups where filesystem notification is
// unavailable or a directory could not be watched: on a fixed interval
// it runs the scanning step for every camera.
type Poller struct {
	cameras  *repository.CameraRepository
	current  *camera.CurrentService
	interval time.Duration
}

func NewPoller(cameras *repository.CameraRepository, current *camera.CurrentService, interval time.Duration) *Poller {
	return &Poller{cameras: cameras, current: current, interval: interval}
}

// Run blocks, scanning every interval until ctx is cancelled. A zero
// interval disables polling and returns immediately.
func (p *Poller) Run(ctx context.Context) {
	if p.interval == 0 {
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.scanAll()
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) scanAll() {
	cams, err := p.cameras.ListAll()
	if err != nil {
		log.Printf("poller: ERROR listing cameras: %v", err)
		return
	}
	for i := range cams {
		cam := &cams[i]
		created, err := p.current.ScanOnce(cam)
		if err != nil {
			log.Printf("poller: ERROR scanning camera %d (%s): %v", cam.ID, cam.Name, err)
			continue
		}
		if len(created) > 0 {
			log.Printf("poller: camera %d (%s): added %d new files", cam.ID, cam.Name, len(created))
		}
	}
}
