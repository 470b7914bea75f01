package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/evenmork/camwatch-backend/camera"
	"github.com/evenmork/camwatch-backend/models"
	"github.com/evenmork/camwatch-backend/repository"
)

// PictureHandler serves catalogued pictures and their binary files.
type PictureHandler struct {
	Pictures *repository.PictureRepository
	Paths    *camera.Paths
}

// Show returns a picture row with its camera preloaded.
func (h *PictureHandler) Show(w http.ResponseWriter, r *http.Request) {
	picture, ok := h.loadPicture(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, picture)
}

// Download serves the picture's backing file with cache-validation
// headers. A catalog row whose file is gone from disk indicates drift
// between state and reality; it is logged and surfaced as a 404 rather
// than masked.
func (h *PictureHandler) Download(w http.ResponseWriter, r *http.Request) {
	picture, ok := h.loadPicture(w, r)
	if !ok {
		return
	}
	path := filepath.Join(h.Paths.FullDir(picture.Camera), picture.Filename)
	if _, err := os.Stat(path); err != nil {
		log.Printf("handlers: picture %d is catalogued but its file %s is missing: %v", picture.ID, path, err)
		http.NotFound(w, r)
		return
	}
	ServeCachedFile(w, r, path)
}

func (h *PictureHandler) loadPicture(w http.ResponseWriter, r *http.Request) (*models.Picture, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "picture_id"), 10, 32)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "picture id must be numeric")
		return nil, false
	}
	picture, err := h.Pictures.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "picture_not_found", "no such picture")
		} else {
			log.Printf("handlers: ERROR loading picture %d: %v", id, err)
			WriteAPIError(w, http.StatusInternalServerError, "database_error", "failed to load picture")
		}
		return nil, false
	}
	return picture, true
}
