package pipeline

import (
	"fmt"
	"sync"
)

// CustomRegistry holds per-camera processors keyed by the camera's
// external identifier. It is populated once at startup; cameras without
// a registered processor fall through as no-op.
type CustomRegistry struct {
	mu     sync.RWMutex
	stages map[string]Stage
}

func NewCustomRegistry() *CustomRegistry {
	return &CustomRegistry{stages: make(map[string]Stage)}
}

// RegisterNamed resolves a built-in stage by name and installs it for one
// camera. Unknown names are a configuration error. The startup path uses
// this to turn the configured camera_id -> stage assignments into
// processors.
func (r *CustomRegistry) RegisterNamed(cameraID, stageName string) error {
	stage, ok := builtinStages[stageName]
	if !ok {
		return fmt.Errorf("unknown pipeline stage '%s' for camera '%s'", stageName, cameraID)
	}
	r.Register(cameraID, stage)
	return nil
}

// Register installs a processor for one camera, replacing any previous one.
func (r *CustomRegistry) Register(cameraID string, stage Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[cameraID] = stage
}

// Lookup returns the processor registered for a camera, if any.
func (r *CustomRegistry) Lookup(cameraID string) (Stage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stage, ok := r.stages[cameraID]
	return stage, ok
}
