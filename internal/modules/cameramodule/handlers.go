package cameramodule

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

type cameraRequest struct {
	Name     string                  `json:"name" binding:"required"`
	URL      string                  `json:"url" binding:"required"`
	Type     string                  `json:"type" binding:"required"`
	Username string                  `json:"username"`
	Password string                  `json:"password"`
	Config   database.CameraSettings `json:"config"`
}

// ListCameras returns the caller's cameras.
func (m *Module) ListCameras(c *gin.Context) {
	userID, _ := authmodule.CurrentUserID(c)

	var cameras []database.Camera
	if err := m.db.Where("user_id = ?", userID).Order("id").Find(&cameras).Error; err != nil {
		api.RespondWithInternalError(c, "failed to list cameras", err)
		return
	}
	c.JSON(http.StatusOK, cameras)
}

// CreateCamera registers a new camera owned by the caller.
func (m *Module) CreateCamera(c *gin.Context) {
	userID, _ := authmodule.CurrentUserID(c)

	var req cameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithValidationError(c, "name, url and type are required")
		return
	}

	camera := database.Camera{
		Name:     req.Name,
		URL:      req.URL,
		Type:     req.Type,
		Username: req.Username,
		Password: req.Password,
		Config:   req.Config,
		UserID:   userID,
	}
	if err := m.db.Create(&camera).Error; err != nil {
		api.RespondWithInternalError(c, "failed to create camera", err)
		return
	}

	publishCameraEvent(events.EventCameraCreated, camera)
	c.JSON(http.StatusCreated, camera)
}

// GetCamera returns one camera by id.
func (m *Module) GetCamera(c *gin.Context) {
	camera, ok := m.ownedCamera(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, camera)
}

// UpdateCamera applies a partial update to one camera.
func (m *Module) UpdateCamera(c *gin.Context) {
	camera, ok := m.ownedCamera(c)
	if !ok {
		return
	}

	var req struct {
		Name     *string                  `json:"name"`
		URL      *string                  `json:"url"`
		Type     *string                  `json:"type"`
		Username *string                  `json:"username"`
		Password *string                  `json:"password"`
		IsActive *bool                    `json:"is_active"`
		Config   *database.CameraSettings `json:"config"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithValidationError(c, "invalid camera payload")
		return
	}

	if req.Name != nil {
		camera.Name = *req.Name
	}
	if req.URL != nil {
		camera.URL = *req.URL
	}
	if req.Type != nil {
		camera.Type = *req.Type
	}
	if req.Username != nil {
		camera.Username = *req.Username
	}
	if req.Password != nil {
		camera.Password = *req.Password
	}
	if req.IsActive != nil {
		camera.IsActive = *req.IsActive
	}
	if req.Config != nil {
		camera.Config = *req.Config
	}

	if err := m.db.Save(&camera).Error; err != nil {
		api.RespondWithInternalError(c, "failed to update camera", err)
		return
	}

	publishCameraEvent(events.EventCameraUpdated, camera)
	c.JSON(http.StatusOK, camera)
}

// DeleteCamera removes one camera.
func (m *Module) DeleteCamera(c *gin.Context) {
	camera, ok := m.ownedCamera(c)
	if !ok {
		return
	}

	if err := m.db.Delete(&camera).Error; err != nil {
		api.RespondWithInternalError(c, "failed to delete camera", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ownedCamera loads the camera from the :id parameter and enforces
// ownership. It writes the error response itself when the lookup fails.
func (m *Module) ownedCamera(c *gin.Context) (database.Camera, bool) {
	var camera database.Camera

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		api.RespondWithValidationError(c, "invalid camera id")
		return camera, false
	}

	if err := m.db.First(&camera, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondWithNotFound(c, "camera", c.Param("id"))
			return camera, false
		}
		api.RespondWithInternalError(c, "failed to load camera", err)
		return camera, false
	}

	userID, _ := authmodule.CurrentUserID(c)
	if camera.UserID != userID {
		api.RespondWithError(c, types.NewForbiddenError("camera"))
		return camera, false
	}
	return camera, true
}

func publishCameraEvent(eventType events.EventType, camera database.Camera) {
	bus := events.GetGlobalEventBus()
	if bus == nil {
		return
	}
	bus.PublishAsync(events.Event{
		Type:    eventType,
		Source:  ModuleID,
		Title:   string(eventType),
		Message: camera.Name,
		Data:    map[string]interface{}{"camera_id": camera.ID, "user_id": camera.UserID},
	})
}
