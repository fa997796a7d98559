package database

import (
	"github.com/mverge/camwatch/internal/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedDemoData creates a demo user with a few cameras and sensors when the
// users table is empty. Gives a fresh install something to show on the
// dashboard.
func SeedDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := User{Username: "demo", Password: string(hash)}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	cameras := []Camera{
		{
			Name: "Lab Room 1", URL: "rtsp://192.168.1.100:554", Type: "rtsp",
			Config: CameraSettings{Resolution: "1280x720", Framerate: 30, Quality: 80},
			UserID: user.ID,
		},
		{
			Name: "Lab Room 2", URL: "rtsp://192.168.1.101:554", Type: "rtsp",
			Config: CameraSettings{Resolution: "1280x720", Framerate: 30, Quality: 80},
			UserID: user.ID,
		},
		{
			Name: "Main Corridor", URL: "rtsp://192.168.1.102:80", Type: "rtsp",
			Config: CameraSettings{Resolution: "1280x720", Framerate: 30, Quality: 80},
			UserID: user.ID,
		},
	}
	if err := db.Create(&cameras).Error; err != nil {
		return err
	}

	sensors := []Sensor{
		{
			Name: "Temperature Sensor 1", Type: "temperature",
			Config: SensorSettings{Protocol: "mqtt", Address: "sensor/temp/1", Interval: 60, Unit: "C"},
			UserID: user.ID, IsActive: true,
		},
		{
			Name: "Motion Sensor 1", Type: "motion",
			Config: SensorSettings{Protocol: "mqtt", Address: "sensor/motion/1", Interval: 1},
			UserID: user.ID, IsActive: true,
		},
	}
	if err := db.Create(&sensors).Error; err != nil {
		return err
	}

	logger.Info("seeded demo data", "user", user.Username, "cameras", len(cameras), "sensors", len(sensors))
	return nil
}
