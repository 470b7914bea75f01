package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evenmork/camwatch-backend/models"
)

// sharedDirConfig maps every camera into one shared directory so the
// resolver has to discriminate on filename alone.
func resolverFixture(pickFirst bool) (*Resolver, []*models.Camera) {
	cfg := testConfig("/data")
	cfg.IncomingFolder = "shared"
	cfg.Folder = "shared"
	paths := NewPaths(cfg, NewTokenizer())

	cams := []*models.Camera{
		{ID: 1, CameraID: "cam-a", Name: "A"},
		{ID: 2, CameraID: "cam-b", Name: "B"},
		// prefix of cam-a's id, matches every file cam-a matches
		{ID: 3, CameraID: "cam", Name: "C"},
	}
	return NewResolver(paths, pickFirst), cams
}

func TestResolveSingleCandidate(t *testing.T) {
	r, cams := resolverFixture(false)

	// with one registered camera the filename is not consulted at all
	cam, err := r.Resolve("/data/shared", "unrelated.txt", cams[:1])
	require.NoError(t, err)
	assert.Same(t, cams[0], cam)
}

func TestResolveByFilename(t *testing.T) {
	r, cams := resolverFixture(false)

	cam, err := r.Resolve("/data/shared", "cam-b_001.jpg", cams)
	require.NoError(t, err)
	require.NotNil(t, cam)
	assert.Equal(t, uint(2), cam.ID)
}

func TestResolveNoMatch(t *testing.T) {
	r, cams := resolverFixture(false)

	cam, err := r.Resolve("/data/shared", "other_001.jpg", cams)
	require.NoError(t, err)
	assert.Nil(t, cam)
}

func TestResolveAmbiguous(t *testing.T) {
	r, cams := resolverFixture(false)

	// matches both cam-a (id 1) and the cam prefix camera (id 3)
	cam, err := r.Resolve("/data/shared", "cam-a_001.jpg", cams)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousCamera)
	assert.Nil(t, cam)
}

func TestResolvePickFirst(t *testing.T) {
	r, cams := resolverFixture(true)

	cam, err := r.Resolve("/data/shared", "cam-a_001.jpg", cams)
	require.NoError(t, err)
	require.NotNil(t, cam)
	// lowest id wins regardless of candidate order
	assert.Equal(t, uint(1), cam.ID)

	reversed := []*models.Camera{cams[2], cams[1], cams[0]}
	cam, err = r.Resolve("/data/shared", "cam-a_001.jpg", reversed)
	require.NoError(t, err)
	require.NotNil(t, cam)
	assert.Equal(t, uint(1), cam.ID)
}

func TestResolveEmptyCandidates(t *testing.T) {
	r, _ := resolverFixture(false)

	cam, err := r.Resolve("/data/shared", "cam-a_001.jpg", nil)
	require.NoError(t, err)
	assert.Nil(t, cam)
}
