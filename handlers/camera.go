package handlers

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/evenmork/camwatch-backend/camera"
	"github.com/evenmork/camwatch-backend/models"
	"github.com/evenmork/camwatch-backend/repository"
)

// CameraHandler serves camera metadata and camera image files.
type CameraHandler struct {
	Cameras *repository.CameraRepository
	Current *camera.CurrentService
	Paths   *camera.Paths
}

type cameraResponse struct {
	Success bool           `json:"success"`
	Camera  *models.Camera `json:"camera"`
	Image   *camera.Image  `json:"image"`
}

// Show refreshes and returns a camera with its current-image metadata.
// The refresh path's short-lived cache absorbs request bursts, so
// hitting this endpoint repeatedly is cheap.
func (h *CameraHandler) Show(w http.ResponseWriter, r *http.Request) {
	cam, ok := h.loadCamera(w, r)
	if !ok {
		return
	}
	img, err := h.Current.Refresh(cam)
	if err != nil {
		log.Printf("handlers: ERROR refreshing camera %d: %v", cam.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "refresh_failed", "failed to refresh camera state")
		return
	}
	writeJSON(w, http.StatusOK, cameraResponse{Success: true, Camera: cam, Image: img})
}

// ShowFile serves one named file from the camera's published directory
// with cache-validation headers.
func (h *CameraHandler) ShowFile(w http.ResponseWriter, r *http.Request) {
	cam, ok := h.loadCamera(w, r)
	if !ok {
		return
	}
	fileName := chi.URLParam(r, "file")
	if fileName == "" || strings.ContainsAny(fileName, "/\\") || strings.Contains(fileName, "..") {
		WriteAPIError(w, http.StatusBadRequest, "invalid_file", "invalid file name")
		return
	}
	ServeCachedFile(w, r, filepath.Join(h.Paths.FullDir(cam), fileName))
}

func (h *CameraHandler) loadCamera(w http.ResponseWriter, r *http.Request) (*models.Camera, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "camera_id"), 10, 32)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "camera id must be numeric")
		return nil, false
	}
	cam, err := h.Cameras.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "camera_not_found", "no such camera")
		} else {
			log.Printf("handlers: ERROR loading camera %d: %v", id, err)
			WriteAPIError(w, http.StatusInternalServerError, "database_error", "failed to load camera")
		}
		return nil, false
	}
	return cam, true
}
