package sensormodule

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/api"
	"github.com/mverge/camwatch/internal/database"
	"github.com/mverge/camwatch/internal/events"
	"github.com/mverge/camwatch/internal/modules/authmodule"
	"github.com/mverge/camwatch/internal/types"
	"gorm.io/gorm"
)

type sensorRequest struct {
	Name   string                  `json:"name" binding:"required"`
	Type   string                  `json:"type" binding:"required"`
	Config database.SensorSettings `json:"config"`
}

// ListSensors returns the caller's sensors.
func (m *Module) ListSensors(c *gin.Context) {
	userID, _ := authmodule.CurrentUserID(c)

	var sensors []database.Sensor
	if err := m.db.Where("user_id = ?", userID).Order("id").Find(&sensors).Error; err != nil {
		api.RespondWithInternalError(c, "failed to list sensors", err)
		return
	}
	c.JSON(http.StatusOK, sensors)
}

// CreateSensor registers a new sensor owned by the caller.
func (m *Module) CreateSensor(c *gin.Context) {
	userID, _ := authmodule.CurrentUserID(c)

	var req sensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithValidationError(c, "name and type are required")
		return
	}

	sensor := database.Sensor{
		Name:     req.Name,
		Type:     req.Type,
		Config:   req.Config,
		UserID:   userID,
		IsActive: true,
	}
	if err := m.db.Create(&sensor).Error; err != nil {
		api.RespondWithInternalError(c, "failed to create sensor", err)
		return
	}

	publishSensorEvent(events.EventSensorCreated, sensor)
	c.JSON(http.StatusCreated, sensor)
}

// GetSensor returns one sensor by id.
func (m *Module) GetSensor(c *gin.Context) {
	sensor, ok := m.ownedSensor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sensor)
}

// UpdateSensor applies a partial update to one sensor.
func (m *Module) UpdateSensor(c *gin.Context) {
	sensor, ok := m.ownedSensor(c)
	if !ok {
		return
	}

	var req struct {
		Name     *string                  `json:"name"`
		Type     *string                  `json:"type"`
		IsActive *bool                    `json:"is_active"`
		Config   *database.SensorSettings `json:"config"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithValidationError(c, "invalid sensor payload")
		return
	}

	if req.Name != nil {
		sensor.Name = *req.Name
	}
	if req.Type != nil {
		sensor.Type = *req.Type
	}
	if req.IsActive != nil {
		sensor.IsActive = *req.IsActive
	}
	if req.Config != nil {
		sensor.Config = *req.Config
	}

	if err := m.db.Save(&sensor).Error; err != nil {
		api.RespondWithInternalError(c, "failed to update sensor", err)
		return
	}

	publishSensorEvent(events.EventSensorUpdated, sensor)
	c.JSON(http.StatusOK, sensor)
}

// DeleteSensor removes one sensor.
func (m *Module) DeleteSensor(c *gin.Context) {
	sensor, ok := m.ownedSensor(c)
	if !ok {
		return
	}

	if err := m.db.Delete(&sensor).Error; err != nil {
		api.RespondWithInternalError(c, "failed to delete sensor", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (m *Module) ownedSensor(c *gin.Context) (database.Sensor, bool) {
	var sensor database.Sensor

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		api.RespondWithValidationError(c, "invalid sensor id")
		return sensor, false
	}

	if err := m.db.First(&sensor, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondWithNotFound(c, "sensor", c.Param("id"))
			return sensor, false
		}
		api.RespondWithInternalError(c, "failed to load sensor", err)
		return sensor, false
	}

	userID, _ := authmodule.CurrentUserID(c)
	if sensor.UserID != userID {
		api.RespondWithError(c, types.NewForbiddenError("sensor"))
		return sensor, false
	}
	return sensor, true
}

func publishSensorEvent(eventType events.EventType, sensor database.Sensor) {
	bus := events.GetGlobalEventBus()
	if bus == nil {
		return
	}
	bus.PublishAsync(events.Event{
		Type:    eventType,
		Source:  ModuleID,
		Title:   string(eventType),
		Message: sensor.Name,
		Data:    map[string]interface{}{"sensor_id": sensor.ID, "user_id": sensor.UserID},
	})
}
