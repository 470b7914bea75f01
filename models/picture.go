package models

import "time"

// Picture is one published, catalogued image belonging to a camera.
// It corresponds to the 'ip_camera_pictures' table. The unique index on
// (camera_id, filename) is the dedup backstop when two scanners discover
// the same file concurrently.
//
// CreatedAt holds the source file's modification time, not the processing
// time, so ordering and staleness computations stay correct.
type Picture struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	CameraID uint   `gorm:"not null;uniqueIndex:idx_pictures_camera_filename" json:"camera_id"`
	Filename string `gorm:"size:256;not null;uniqueIndex:idx_pictures_camera_filename" json:"filename"`
	Mime     string `gorm:"size:256" json:"mime"`
	Size     int64  `json:"size"`

	// Published flips false -> true once the pipeline has finished writing
	// the file; it is the only field mutated after creation.
	Published bool `gorm:"not null;default:false" json:"published"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Camera *Camera `gorm:"foreignKey:CameraID" json:"camera,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Picture) TableName() string {
	return "ip_camera_pictures"
}
