package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "cameras.db", cfg.DatabasePath)
	assert.Equal(t, cfg.IncomingRoot, cfg.PublishedRoot)
	assert.Equal(t, DefaultIncomingFolder, cfg.IncomingFolder)
	assert.Equal(t, DefaultFileRegex, cfg.FileRegex)
	assert.False(t, cfg.PickFirstMatch)
	assert.Equal(t, int64(32000), cfg.Base64EncodeBelow)
	assert.Equal(t, time.Hour, cfg.MaxAge)
	assert.Equal(t, 3*time.Second, cfg.CacheCurrent)
	assert.Zero(t, cfg.PollInterval)
	assert.Equal(t, 10, cfg.ScanBatchSize)
	assert.Empty(t, cfg.PipelineStages)
}

func TestLoadConfigMaxAge(t *testing.T) {
	t.Setenv("CAMERA_MAX_AGE", "PT30M")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.MaxAge)

	// an explicitly empty value disables staleness entirely
	t.Setenv("CAMERA_MAX_AGE", "")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Zero(t, cfg.MaxAge)

	t.Setenv("CAMERA_MAX_AGE", "ninety minutes")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigPipelineStages(t *testing.T) {
	t.Setenv("CAMERA_PIPELINE_STAGES", "resize, grayscale ,sharpen")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"resize", "grayscale", "sharpen"}, cfg.PipelineStages)
}

func TestLoadConfigCustomStages(t *testing.T) {
	t.Setenv("CAMERA_CUSTOM_STAGES", "cam-a:grayscale, cam-b : sharpen")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cam-a": "grayscale", "cam-b": "sharpen"}, cfg.CustomStages)

	t.Setenv("CAMERA_CUSTOM_STAGES", "cam-a")
	_, err = LoadConfig()
	assert.Error(t, err)

	t.Setenv("CAMERA_CUSTOM_STAGES", "")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.CustomStages)
}

func TestLoadConfigRoots(t *testing.T) {
	t.Setenv("CAMERA_INCOMING_ROOT", "/srv/incoming")
	t.Setenv("CAMERA_PUBLISHED_ROOT", "/srv/published")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/srv/incoming", cfg.IncomingRoot)
	assert.Equal(t, "/srv/published", cfg.PublishedRoot)
}

func TestLoadConfigInvalidIntFallsBack(t *testing.T) {
	t.Setenv("CAMERA_SCAN_BATCH_SIZE", "many")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.ScanBatchSize)
}
