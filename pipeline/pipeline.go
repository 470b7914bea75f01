package pipeline

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/evenmork/camwatch-backend/models"
)

// Stage is one transformation step in the image pipeline. Stages receive
// the decoded image together with the owning camera and return the image
// to hand to the next stage.
type Stage interface {
	Name() string
	Apply(img *image.NRGBA, camera *models.Camera) (*image.NRGBA, error)
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	StageName string
	Fn        func(img *image.NRGBA, camera *models.Camera) (*image.NRGBA, error)
}

func (s StageFunc) Name() string { return s.StageName }

func (s StageFunc) Apply(img *image.NRGBA, camera *models.Camera) (*image.NRGBA, error) {
	return s.Fn(img, camera)
}

// Pipeline runs a decoded image through an ordered chain of stages,
// followed by the owning camera's custom processor when one is
// registered. The default pipeline is empty and acts as identity.
type Pipeline struct {
	stages []Stage
	custom *CustomRegistry
}

// New builds a pipeline from configured stage names resolved against the
// built-in stage set. Unknown names are a configuration error.
func New(stageNames []string, custom *CustomRegistry) (*Pipeline, error) {
	if custom == nil {
		custom = NewCustomRegistry()
	}
	stages := make([]Stage, 0, len(stageNames))
	for _, name := range stageNames {
		stage, ok := builtinStages[name]
		if !ok {
			return nil, fmt.Errorf("unknown pipeline stage '%s'", name)
		}
		stages = append(stages, stage)
	}
	return &Pipeline{stages: stages, custom: custom}, nil
}

// Process chains all stages over img. A failing stage aborts the whole
// pipeline; the caller must not publish the file, leaving it eligible for
// reprocessing on the next scan.
func (p *Pipeline) Process(img image.Image, camera *models.Camera) (*image.NRGBA, error) {
	out := imaging.Clone(img)
	for _, stage := range p.stages {
		var err error
		out, err = stage.Apply(out, camera)
		if err != nil {
			return nil, fmt.Errorf("pipeline stage '%s' failed: %w", stage.Name(), err)
		}
	}
	if stage, ok := p.custom.Lookup(camera.CameraID); ok {
		var err error
		out, err = stage.Apply(out, camera)
		if err != nil {
			return nil, fmt.Errorf("custom processor for camera '%s' failed: %w", camera.CameraID, err)
		}
	}
	return out, nil
}
