package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evenmork/camwatch-backend/models"
)

func testCamera() *models.Camera {
	return &models.Camera{
		ID:        7,
		CameraID:  "cam-front",
		Name:      "Front Door",
		IP:        "10.0.0.5",
		MAC:       "AA:BB.CC",
		Latitude:  59.91,
		Longitude: 10.75,
	}
}

func TestExpand(t *testing.T) {
	tok := NewTokenizer()
	cam := testCamera()

	tests := []struct {
		name     string
		template string
		quote    bool
		want     string
	}{
		{"id", "camera/[[id]]", false, "camera/7"},
		{"camera id", "[[camera_id]]/incoming", false, "cam-front/incoming"},
		{"several tokens", "[[id]]-[[name]]-[[ip]]", false, "7-Front Door-10.0.0.5"},
		{"repeated token", "[[id]]/[[id]]", false, "7/7"},
		{"coordinates", "[[latitude]],[[longitude]]", false, "59.91,10.75"},
		{"no tokens", "plain/path", false, "plain/path"},
		{"unknown token left verbatim", "camera/[[serial]]", false, "camera/[[serial]]"},
		{"malformed brackets untouched", "camera/[id]]", false, "camera/[id]]"},
		{"quoted mac", `[[mac]]\.jpg`, true, `AA:BB\.CC\.jpg`},
		{"quoted name with space", "[[name]]", true, "Front Door"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Expand(tt.template, cam, tt.quote))
		})
	}
}

func TestExpandQuoteKeepsTemplateMetacharacters(t *testing.T) {
	tok := NewTokenizer()
	cam := testCamera()

	// only substituted values are escaped, the template's own regex
	// syntax must survive
	got := tok.Expand(`[[camera_id]].*\.(?i:jpe?g)`, cam, true)
	assert.Equal(t, `cam-front.*\.(?i:jpe?g)`, got)
}

func TestTemplateTokens(t *testing.T) {
	assert.Equal(t, []string{"camera_id", "serial", "camera_id"},
		TemplateTokens("[[camera_id]]/[[serial]]/[[camera_id]]"))
	assert.Empty(t, TemplateTokens("no tokens here"))
}

func TestValue(t *testing.T) {
	tok := NewTokenizer()
	cam := testCamera()

	v, ok := tok.Value("camera_id", cam)
	assert.True(t, ok)
	assert.Equal(t, "cam-front", v)

	v, ok = tok.Value("serial", cam)
	assert.False(t, ok)
	assert.Empty(t, v)
}
