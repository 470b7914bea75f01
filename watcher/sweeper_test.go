package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evenmork/camwatch-backend/camera"
	"github.com/evenmork/camwatch-backend/config"
	"github.com/evenmork/camwatch-backend/database"
	"github.com/evenmork/camwatch-backend/models"
	"github.com/evenmork/camwatch-backend/pipeline"
	"github.com/evenmork/camwatch-backend/repository"
)

type sweepEnv struct {
	cfg      config.Config
	paths    *camera.Paths
	cameras  *repository.CameraRepository
	pictures *repository.PictureRepository
	current  *camera.CurrentService
}

func newSweepEnv(t *testing.T, mutate func(*config.Config)) *sweepEnv {
	t.Helper()

	cfg := config.Config{
		IncomingRoot:   t.TempDir(),
		IncomingFolder: config.DefaultIncomingFolder,
		Folder:         config.DefaultFolder,
		FileRegex:      config.DefaultFileRegex,
		MaxAge:         time.Hour,
		ScanBatchSize:  10,
	}
	cfg.PublishedRoot = cfg.IncomingRoot
	if mutate != nil {
		mutate(&cfg)
	}

	db, err := database.InitGormDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))

	pipe, err := pipeline.New(nil, pipeline.NewCustomRegistry())
	require.NoError(t, err)

	paths := camera.NewPaths(cfg, camera.NewTokenizer())
	cameras := repository.NewCameraRepository(db)
	pictures := repository.NewPictureRepository(db)
	scanner := camera.NewScanner(paths, pictures, pipe)

	return &sweepEnv{
		cfg:      cfg,
		paths:    paths,
		cameras:  cameras,
		pictures: pictures,
		current:  camera.NewCurrentService(cfg, paths, scanner, cameras, nil),
	}
}

// addActiveCamera registers a camera that currently looks live, with one
// image on disk of the given age.
func (e *sweepEnv) addActiveCamera(t *testing.T, name string, imageAge time.Duration) *models.Camera {
	t.Helper()

	cam := &models.Camera{CameraID: "cam-" + name, Name: name}
	require.NoError(t, e.cameras.Create(cam))
	require.NoError(t, e.paths.EnsureDirs(cam))

	fileName := cam.CameraID + "_001.jpg"
	path := filepath.Join(e.paths.FullIncomingDir(cam), fileName)
	require.NoError(t, os.WriteFile(path, []byte("image bytes"), 0644))
	modTime := time.Now().Add(-imageAge)
	require.NoError(t, os.Chtimes(path, modTime, modTime))

	require.NoError(t, e.cameras.DB.Model(cam).UpdateColumns(map[string]interface{}{
		"current_file": fileName,
		"active":       true,
		"updated_at":   modTime,
	}).Error)
	return cam
}

func TestSweepDeactivatesStaleCamera(t *testing.T) {
	env := newSweepEnv(t, nil)
	cam := env.addActiveCamera(t, "Stale", 61*time.Minute)

	sweeper := NewSweeper(env.cameras, env.current, env.cfg.MaxAge)
	sweeper.sweep()

	stored, err := env.cameras.GetByID(cam.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	// the last image stays recorded as current
	require.NotNil(t, stored.CurrentFile)
	assert.Equal(t, cam.CameraID+"_001.jpg", *stored.CurrentFile)
}

func TestSweepLeavesFreshCameraAlone(t *testing.T) {
	env := newSweepEnv(t, nil)
	cam := env.addActiveCamera(t, "Fresh", 5*time.Minute)

	sweeper := NewSweeper(env.cameras, env.current, env.cfg.MaxAge)
	sweeper.sweep()

	stored, err := env.cameras.GetByID(cam.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
}

func TestSweepIgnoresCache(t *testing.T) {
	env := newSweepEnv(t, func(cfg *config.Config) {
		cfg.CacheCurrent = time.Minute
	})
	cam := env.addActiveCamera(t, "Cached", 5*time.Minute)

	// prime the cache with a live view through the read path
	img, err := env.current.Refresh(cam)
	require.NoError(t, err)
	require.False(t, img.Expired)

	// the image ages past the max age while the cache entry stays fresh
	path := filepath.Join(env.paths.FullIncomingDir(cam), cam.CameraID+"_001.jpg")
	old := time.Now().Add(-61 * time.Minute)
	require.NoError(t, os.Chtimes(path, old, old))
	require.NoError(t, env.cameras.DB.Model(cam).UpdateColumn("updated_at", old).Error)

	// the read path would still serve the cached live view
	img, err = env.current.Refresh(cam)
	require.NoError(t, err)
	require.False(t, img.Expired)

	// the sweeper must not be fooled by it
	sweeper := NewSweeper(env.cameras, env.current, env.cfg.MaxAge)
	sweeper.sweep()

	stored, err := env.cameras.GetByID(cam.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestPollerScanAll(t *testing.T) {
	env := newSweepEnv(t, nil)

	cam := &models.Camera{CameraID: "cam-a", Name: "A"}
	require.NoError(t, env.cameras.Create(cam))
	require.NoError(t, env.paths.EnsureDirs(cam))

	path := filepath.Join(env.paths.FullIncomingDir(cam), "cam-a_001.jpg")
	require.NoError(t, os.WriteFile(path, []byte("image bytes"), 0644))
	modTime := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	require.NoError(t, env.cameras.DB.Model(cam).UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	poller := NewPoller(env.cameras, env.current, time.Minute)
	poller.scanAll()

	pictures, err := env.pictures.ListByCamera(cam.ID)
	require.NoError(t, err)
	require.Len(t, pictures, 1)
	assert.Equal(t, "cam-a_001.jpg", pictures[0].Filename)

	stored, err := env.cameras.GetByID(cam.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CurrentFile)
	assert.Equal(t, "cam-a_001.jpg", *stored.CurrentFile)
	assert.True(t, stored.Active)

	// a second pass finds nothing new
	poller.scanAll()
	pictures, err = env.pictures.ListByCamera(cam.ID)
	require.NoError(t, err)
	assert.Len(t, pictures, 1)
}
