package camera

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"

	"github.com/evenmork/camwatch-backend/models"
)

// ErrAmbiguousCamera is returned when several cameras match the same
// incoming file and pick-first is disabled. Misattributing an image to
// the wrong camera is the costlier failure, so the file is dropped and
// the conflict made operator-visible instead.
var ErrAmbiguousCamera = errors.New("several cameras match incoming file")

// Resolver maps an arriving file back to its owning camera when the
// directory alone doesn't identify it.
type Resolver struct {
	paths     *Paths
	pickFirst bool
}

func NewResolver(paths *Paths, pickFirst bool) *Resolver {
	return &Resolver{paths: paths, pickFirst: pickFirst}
}

// Resolve determines which of the candidate cameras owns the file
// dir/filename. A nil camera with a nil error means no camera matched;
// a stray file is not an error. Candidates are tried in ascending id
// order so pick-first behaves the same across runs.
func (r *Resolver) Resolve(dir, filename string, candidates []*models.Camera) (*models.Camera, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	ordered := make([]*models.Camera, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	filePath := dir + "/" + filename
	var found *models.Camera
	for _, cand := range ordered {
		re, err := regexp.Compile("^" + r.paths.FilePathRegex(cand) + "$")
		if err != nil {
			log.Printf("resolver: invalid file path pattern for camera %d (%s): %v", cand.ID, cand.Name, err)
			continue
		}
		if !re.MatchString(filePath) {
			continue
		}
		if r.pickFirst {
			return cand, nil
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s matches camera %d (%s) and camera %d (%s)",
				ErrAmbiguousCamera, filePath, found.ID, found.Name, cand.ID, cand.Name)
		}
		found = cand
	}
	return found, nil
}
