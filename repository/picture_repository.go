package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/evenmork/camwatch-backend/models"
)

// ErrDuplicatePicture is returned when a picture with the same
// (camera_id, filename) already exists. Two scanners discovering the same
// file concurrently is expected; callers treat this as "already exists".
var ErrDuplicatePicture = errors.New("picture already exists for camera")

// PictureRepository handles database operations for Picture entities
type PictureRepository struct {
	DB *gorm.DB
}

// NewPictureRepository creates a new instance of PictureRepository
func NewPictureRepository(db *gorm.DB) *PictureRepository {
	return &PictureRepository{DB: db}
}

// Create inserts a new picture row. A violation of the unique
// (camera_id, filename) index surfaces as ErrDuplicatePicture.
func (r *PictureRepository) Create(picture *models.Picture) error {
	err := r.DB.Create(picture).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: camera %d, file %s", ErrDuplicatePicture, picture.CameraID, picture.Filename)
		}
		return fmt.Errorf("failed to create picture for camera %d: %w", picture.CameraID, err)
	}
	return nil
}

// MarkPublished flips the published flag, the only post-creation mutation
// a picture row ever sees.
func (r *PictureRepository) MarkPublished(picture *models.Picture) error {
	result := r.DB.Model(&models.Picture{}).Where("id = ?", picture.ID).Update("published", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark picture %d published: %w", picture.ID, result.Error)
	}
	picture.Published = true
	return nil
}

func (r *PictureRepository) GetByID(id uint) (*models.Picture, error) {
	var picture models.Picture
	err := r.DB.Preload("Camera").First(&picture, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get picture %d: %w", id, err)
	}
	return &picture, nil
}

// ExistingFilenames returns the subset of filenames already catalogued for
// the given camera. Used by the scanner to diff disk against catalog.
func (r *PictureRepository) ExistingFilenames(cameraID uint, filenames []string) ([]string, error) {
	if len(filenames) == 0 {
		return nil, nil
	}
	var existing []string
	err := r.DB.Model(&models.Picture{}).
		Where("camera_id = ? AND filename IN ?", cameraID, filenames).
		Pluck("filename", &existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query existing pictures for camera %d: %w", cameraID, err)
	}
	return existing, nil
}

// ListByCamera returns all pictures of a camera, newest first.
func (r *PictureRepository) ListByCamera(cameraID uint) ([]models.Picture, error) {
	var pictures []models.Picture
	err := r.DB.Where("camera_id = ?", cameraID).Order("created_at desc").Find(&pictures).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pictures for camera %d: %w", cameraID, err)
	}
	return pictures, nil
}
