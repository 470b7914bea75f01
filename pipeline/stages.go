package pipeline

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/evenmork/camwatch-backend/models"
)

const (
	resizeMaxWidth = 1920
	sharpenSigma   = 0.8
)

// builtinStages is the set of stages addressable by name from
// configuration.
var builtinStages = map[string]Stage{
	"resize": StageFunc{
		StageName: "resize",
		Fn: func(img *image.NRGBA, _ *models.Camera) (*image.NRGBA, error) {
			if img.Bounds().Dx() <= resizeMaxWidth {
				return img, nil
			}
			return imaging.Resize(img, resizeMaxWidth, 0, imaging.Lanczos), nil
		},
	},
	"grayscale": StageFunc{
		StageName: "grayscale",
		Fn: func(img *image.NRGBA, _ *models.Camera) (*image.NRGBA, error) {
			return imaging.Grayscale(img), nil
		},
	},
	"sharpen": StageFunc{
		StageName: "sharpen",
		Fn: func(img *image.NRGBA, _ *models.Camera) (*image.NRGBA, error) {
			return imaging.Sharpen(img, sharpenSigma), nil
		},
	},
}
