package database

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account that owns cameras, sensors and recordings
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash, never serialized
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CameraSettings holds per-camera capture settings, stored as JSON
type CameraSettings struct {
	Resolution string `json:"resolution,omitempty"`
	Framerate  int    `json:"framerate,omitempty"`
	Quality    int    `json:"quality,omitempty"`
}

// Camera represents a registered IP camera
type Camera struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	URL       string         `gorm:"not null" json:"url"`
	Type      string         `gorm:"not null" json:"type"` // rtsp, http, ...
	Username  string         `json:"username,omitempty"`
	Password  string         `json:"-"`
	Config    CameraSettings `gorm:"serializer:json" json:"config"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	IsActive  bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SensorSettings holds sensor wiring details, stored as JSON
type SensorSettings struct {
	Protocol string `json:"protocol"`
	Address  string `json:"address"`
	Interval int    `json:"interval"` // seconds between readings
	Unit     string `json:"unit,omitempty"`
}

// Sensor represents an environmental sensor (temperature, motion, ...)
type Sensor struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Type      string         `gorm:"not null" json:"type"`
	Config    SensorSettings `gorm:"serializer:json" json:"config"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Recording represents a stored recording entry
type Recording struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Filename  string     `gorm:"not null" json:"filename"`
	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
	IsActive  bool       `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BeforeCreate stamps recordings missing a start time
func (r *Recording) BeforeCreate(tx *gorm.DB) error {
	if r.StartTime.IsZero() {
		r.StartTime = time.Now()
	}
	return nil
}
