package recordingmodule

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/api"
	"github.com/mverge/camwatch/internal/database"
	"github.com/mverge/camwatch/internal/modules/authmodule"
	"github.com/mverge/camwatch/internal/types"
	"gorm.io/gorm"
)

// ListRecordings returns the caller's recordings, newest first.
func (m *Module) ListRecordings(c *gin.Context) {
	userID, _ := authmodule.CurrentUserID(c)

	var recordings []database.Recording
	if err := m.db.Where("user_id = ?", userID).Order("start_time DESC").Find(&recordings).Error; err != nil {
		api.RespondWithInternalError(c, "failed to list recordings", err)
		return
	}
	c.JSON(http.StatusOK, recordings)
}

// CreateRecording stores a new recording entry for the caller.
func (m *Module) CreateRecording(c *gin.Context) {
	userID, _ := authmodule.CurrentUserID(c)

	var req struct {
		Filename  string     `json:"filename" binding:"required"`
		StartTime *time.Time `json:"start_time"`
		IsActive  bool       `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithValidationError(c, "filename is required")
		return
	}

	recording := database.Recording{
		Filename: req.Filename,
		UserID:   userID,
		IsActive: req.IsActive,
	}
	if req.StartTime != nil {
		recording.StartTime = *req.StartTime
	}

	if err := m.db.Create(&recording).Error; err != nil {
		api.RespondWithInternalError(c, "failed to create recording", err)
		return
	}
	c.JSON(http.StatusCreated, recording)
}

// GetRecording returns one recording by id.
func (m *Module) GetRecording(c *gin.Context) {
	recording, ok := m.ownedRecording(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, recording)
}

// UpdateRecording applies a partial update, typically marking the entry
// finished by setting the end time.
func (m *Module) UpdateRecording(c *gin.Context) {
	recording, ok := m.ownedRecording(c)
	if !ok {
		return
	}

	var req struct {
		Filename *string    `json:"filename"`
		EndTime  *time.Time `json:"end_time"`
		IsActive *bool      `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithValidationError(c, "invalid recording payload")
		return
	}

	if req.Filename != nil {
		recording.Filename = *req.Filename
	}
	if req.EndTime != nil {
		recording.EndTime = req.EndTime
	}
	if req.IsActive != nil {
		recording.IsActive = *req.IsActive
	}

	if err := m.db.Save(&recording).Error; err != nil {
		api.RespondWithInternalError(c, "failed to update recording", err)
		return
	}
	c.JSON(http.StatusOK, recording)
}

// DeleteRecording removes one recording entry.
func (m *Module) DeleteRecording(c *gin.Context) {
	recording, ok := m.ownedRecording(c)
	if !ok {
		return
	}

	if err := m.db.Delete(&recording).Error; err != nil {
		api.RespondWithInternalError(c, "failed to delete recording", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (m *Module) ownedRecording(c *gin.Context) (database.Recording, bool) {
	var recording database.Recording

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		api.RespondWithValidationError(c, "invalid recording id")
		return recording, false
	}

	if err := m.db.First(&recording, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondWithNotFound(c, "recording", c.Param("id"))
			return recording, false
		}
		api.RespondWithInternalError(c, "failed to load recording", err)
		return recording, false
	}

	userID, _ := authmodule.CurrentUserID(c)
	if recording.UserID != userID {
		api.RespondWithError(c, types.NewForbiddenError("recording"))
		return recording, false
	}
	return recording, true
}
