package models

import "time"

// Camera represents a single physical IP camera and its filesystem mapping.
// It corresponds to the 'ip_cameras' table. The derived paths and match
// patterns for a camera are computed on demand from configuration; see the
// camera package.
type Camera struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	CameraID string `gorm:"size:64;not null" json:"camera_id"` // identifier reported by the device itself
	Name     string `gorm:"size:256" json:"name"`
	Model    string `gorm:"size:256" json:"model"`
	IP       string `gorm:"size:256" json:"-"`
	MAC      string `gorm:"size:18" json:"-"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// CurrentFile is the most recently recognized image for this camera,
	// relative to the camera's published directory. Nil until the first
	// image arrives.
	CurrentFile *string `gorm:"size:256" json:"currentFile"`

	// Active is a cached view: it is always recomputable from the current
	// file's age against the configured max age.
	Active bool `gorm:"not null;default:false" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Pictures []Picture `gorm:"foreignKey:CameraID" json:"pictures,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Camera) TableName() string {
	return "ip_cameras"
}
