package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/evenmork/camwatch-backend/models"
)

// CameraRepository handles database operations for Camera entities
type CameraRepository struct {
	DB *gorm.DB
}

// NewCameraRepository creates a new instance of CameraRepository
func NewCameraRepository(db *gorm.DB) *CameraRepository {
	return &CameraRepository{DB: db}
}

func (r *CameraRepository) GetByID(id uint) (*models.Camera, error) {
	var camera models.Camera
	err := r.DB.First(&camera, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get camera %d: %w", id, err)
	}
	return &camera, nil
}

// ListAll returns every camera ordered by id, the stable iteration order
// used for reverse resolution and watch registration.
func (r *CameraRepository) ListAll() ([]models.Camera, error) {
	var cameras []models.Camera
	err := r.DB.Order("id asc").Find(&cameras).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cameras: %w", err)
	}
	return cameras, nil
}

// ListStaleActive returns active cameras whose last update predates maxAge.
// The sweeper uses this as a cheap preselection before re-evaluating each
// camera against the actual image timestamps.
func (r *CameraRepository) ListStaleActive(maxAge time.Duration) ([]models.Camera, error) {
	var cameras []models.Camera
	cutoff := time.Now().Add(-maxAge)
	err := r.DB.Where("active = ? AND updated_at < ?", true, cutoff).Order("id asc").Find(&cameras).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale cameras: %w", err)
	}
	return cameras, nil
}

func (r *CameraRepository) Create(camera *models.Camera) error {
	if err := r.DB.Create(camera).Error; err != nil {
		return fmt.Errorf("failed to create camera: %w", err)
	}
	return nil
}

func (r *CameraRepository) Update(camera *models.Camera) error {
	if err := r.DB.Save(camera).Error; err != nil {
		return fmt.Errorf("failed to update camera %d: %w", camera.ID, err)
	}
	return nil
}

// UpdateState persists the fields maintained by the refresh state machine
// as one atomic row update, so a concurrent reader never observes a
// partially applied current-file/active combination. The camera's
// UpdatedAt is refreshed as part of the same write.
func (r *CameraRepository) UpdateState(camera *models.Camera) error {
	now := time.Now()
	updates := map[string]interface{}{
		"current_file": camera.CurrentFile,
		"active":       camera.Active,
		"updated_at":   now,
	}
	result := r.DB.Model(&models.Camera{}).Where("id = ?", camera.ID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update state of camera %d: %w", camera.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	camera.UpdatedAt = now
	return nil
}

// CountWithProperty counts cameras with the given value in one of the
// identifying columns. Used by the admin CLI to warn about duplicates.
func (r *CameraRepository) CountWithProperty(column, value string) (int64, error) {
	allowed := map[string]bool{"camera_id": true, "name": true, "mac": true}
	if !allowed[column] {
		return 0, fmt.Errorf("invalid camera property column: %s", column)
	}
	var count int64
	err := r.DB.Model(&models.Camera{}).Where(fmt.Sprintf("%s = ?", column), value).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count cameras by %s: %w", column, err)
	}
	return count, nil
}

// Delete removes a camera and, in the same transaction, all picture rows
// referencing it. Files on disk are left untouched.
func (r *CameraRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("camera_id = ?", id).Delete(&models.Picture{}).Error; err != nil {
			return fmt.Errorf("failed to delete pictures of camera %d: %w", id, err)
		}
		result := tx.Delete(&models.Camera{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete camera %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
