package camera

import (
	"regexp"
	"strconv"

	"github.com/evenmork/camwatch-backend/models"
)

var tokenPattern = regexp.MustCompile(`\[\[([a-zA-Z_][a-zA-Z0-9_]*)\]\]`)

type attrFunc func(*models.Camera) string

// Tokenizer expands [[token]] placeholders in configured templates with
// camera attributes. The allow-list is a closed dispatch table of typed
// accessors; tokens outside it are left verbatim so a typo in a template
// shows up in the produced path instead of silently vanishing.
type Tokenizer struct {
	attrs map[string]attrFunc
}

func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		attrs: map[string]attrFunc{
			"id":        func(c *models.Camera) string { return strconv.FormatUint(uint64(c.ID), 10) },
			"camera_id": func(c *models.Camera) string { return c.CameraID },
			"name":      func(c *models.Camera) string { return c.Name },
			"ip":        func(c *models.Camera) string { return c.IP },
			"mac":       func(c *models.Camera) string { return c.MAC },
			"latitude":  func(c *models.Camera) string { return strconv.FormatFloat(c.Latitude, 'f', -1, 64) },
			"longitude": func(c *models.Camera) string { return strconv.FormatFloat(c.Longitude, 'f', -1, 64) },
		},
	}
}

// Expand substitutes all allow-listed [[token]] occurrences in template
// with the camera's attribute values. When quote is set, each substituted
// value is regex-escaped, so attribute values containing metacharacters
// (a MAC address, a name with dots) stay literal when the result is
// compiled as a regular expression.
func (t *Tokenizer) Expand(template string, camera *models.Camera, quote bool) string {
	return tokenPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := tokenPattern.FindStringSubmatch(match)[1]
		attr, ok := t.attrs[name]
		if !ok {
			return match
		}
		value := attr(camera)
		if quote {
			return regexp.QuoteMeta(value)
		}
		return value
	})
}

// TemplateTokens returns the token names referenced by a template, in
// order of appearance, including ones outside the allow-list.
func TemplateTokens(template string) []string {
	var names []string
	for _, match := range tokenPattern.FindAllStringSubmatch(template, -1) {
		names = append(names, match[1])
	}
	return names
}

// Value resolves a single allow-listed token against a camera. The second
// return is false for tokens outside the allow-list.
func (t *Tokenizer) Value(name string, camera *models.Camera) (string, bool) {
	attr, ok := t.attrs[name]
	if !ok {
		return "", false
	}
	return attr(camera), true
}
