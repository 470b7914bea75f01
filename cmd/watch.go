package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evenmork/camwatch-backend/camera"
	"github.com/evenmork/camwatch-backend/models"
	"github.com/evenmork/camwatch-backend/watcher"
)

// logBroadcaster stands in for the websocket hub in the standalone watch
// process, which has no HTTP surface of its own.
type logBroadcaster struct{}

func (logBroadcaster) CameraUpdated(cam *models.Camera, image *camera.Image) {
	if image == nil || image.Expired {
		log.Printf("watch: camera %d (%s) updated, no current image", cam.ID, cam.Name)
		return
	}
	log.Printf("watch: camera %d (%s) updated, current image %s", cam.ID, cam.Name, image.FileName)
}

func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the directory watch loop, stale sweeper and fallback poller",
		Long: `Watch every camera's incoming directory for new image files, attribute
each arriving file to its owning camera and publish it. Cameras whose
directories cannot be watched are covered by the fallback poller when
CAMERA_POLL_INTERVAL is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			current := app.currentService(logBroadcaster{})

			sweeper := watcher.NewSweeper(app.cameras, current, app.cfg.MaxAge)
			go sweeper.Run(ctx)

			poller := watcher.NewPoller(app.cameras, current, app.cfg.PollInterval)
			go poller.Run(ctx)

			w := watcher.New(app.cameras, app.paths, app.resolver, current)
			return w.Run(ctx)
		},
	}
}
