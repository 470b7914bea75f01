package camera

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evenmork/camwatch-backend/config"
)

func testConfig(root string) config.Config {
	return config.Config{
		IncomingRoot:      root,
		PublishedRoot:     root,
		IncomingFolder:    config.DefaultIncomingFolder,
		Folder:            config.DefaultFolder,
		FileRegex:         config.DefaultFileRegex,
		Base64EncodeBelow: 32000,
		MaxAge:            time.Hour,
		ScanBatchSize:     10,
	}
}

func TestPathsDerivations(t *testing.T) {
	cfg := testConfig("/data")
	paths := NewPaths(cfg, NewTokenizer())
	cam := testCamera()

	assert.Equal(t, "camera/7", paths.IncomingDir(cam))
	assert.Equal(t, "/data/camera/7", paths.FullIncomingDir(cam))
	assert.Equal(t, "camera/7", paths.Dir(cam))
	assert.Equal(t, "/data/camera/7", paths.FullDir(cam))
	assert.Equal(t, `cam-front.*\.(?i:jpe?g)`, paths.FileRegex(cam))
	assert.Equal(t, `/data/camera/7/cam-front.*\.(?i:jpe?g)`, paths.FilePathRegex(cam))
	assert.Equal(t, "camera.7.current", paths.CacheKey(cam))
	assert.True(t, paths.SamePublishTarget(cam))
}

func TestPathsTrimsTemplateSlashes(t *testing.T) {
	cfg := testConfig("/data")
	cfg.Folder = "/camera/[[id]]/"
	paths := NewPaths(cfg, NewTokenizer())

	assert.Equal(t, "camera/7", paths.Dir(testCamera()))
}

func TestPathsSeparatePublishTarget(t *testing.T) {
	cfg := testConfig("/incoming")
	cfg.PublishedRoot = "/published"
	paths := NewPaths(cfg, NewTokenizer())
	cam := testCamera()

	assert.Equal(t, "/incoming/camera/7", paths.FullIncomingDir(cam))
	assert.Equal(t, "/published/camera/7", paths.FullDir(cam))
	assert.False(t, paths.SamePublishTarget(cam))
}

func TestCurrentPath(t *testing.T) {
	paths := NewPaths(testConfig("/data"), NewTokenizer())
	cam := testCamera()

	assert.Empty(t, paths.CurrentPath(cam))
	assert.Empty(t, paths.CurrentRelativePath(cam))

	name := "cam-front_001.jpg"
	cam.CurrentFile = &name
	assert.Equal(t, "/data/camera/7/cam-front_001.jpg", paths.CurrentPath(cam))
	assert.Equal(t, "camera/7/cam-front_001.jpg", paths.CurrentRelativePath(cam))
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(filepath.Join(root, "incoming"))
	cfg.PublishedRoot = filepath.Join(root, "published")
	paths := NewPaths(cfg, NewTokenizer())
	cam := testCamera()

	require.NoError(t, paths.EnsureDirs(cam))

	for _, dir := range []string{paths.FullIncomingDir(cam), paths.FullDir(cam)} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
