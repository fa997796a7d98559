package authmodule

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/api"
	"github.com/mverge/camwatch/internal/database"
	"github.com/mverge/camwatch/internal/events"
	"github.com/mverge/camwatch/internal/logger"
	"github.com/mverge/camwatch/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new account and logs it in immediately.
func (m *Module) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithValidationError(c, "username and password are required")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 {
		api.RespondWithValidationError(c, "username must be at least 3 characters")
		return
	}
	if len(req.Password) < 6 {
		api.RespondWithValidationError(c, "password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.RespondWithInternalError(c, "internal server error", err)
		return
	}

	user := database.User{Username: req.Username, Password: string(hash)}
	if err := m.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE") {
			api.RespondWithError(c, types.NewAppError(types.ErrorCodeConflict, "username already taken", http.StatusConflict))
			return
		}
		api.RespondWithInternalError(c, "internal server error", err)
		return
	}

	publishUserEvent(events.EventUserCreated, user)

	if err := m.setSessionCookie(c, user); err != nil {
		api.RespondWithInternalError(c, "internal server error", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login verifies credentials and issues a session cookie.
func (m *Module) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithValidationError(c, "username and password are required")
		return
	}

	var user database.User
	err := m.db.Where("username = ?", req.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		api.RespondWithError(c, types.NewUnauthorizedError("invalid username or password"))
		return
	}
	if err != nil {
		api.RespondWithInternalError(c, "internal server error", err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		api.RespondWithError(c, types.NewUnauthorizedError("invalid username or password"))
		return
	}

	if err := m.setSessionCookie(c, user); err != nil {
		api.RespondWithInternalError(c, "internal server error", err)
		return
	}

	publishUserEvent(events.EventUserLoggedIn, user)
	logger.Info("user logged in", "username", user.Username)
	c.JSON(http.StatusOK, user)
}

// Logout clears the session cookie.
func (m *Module) Logout(c *gin.Context) {
	cfg := confAuth()
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.SecureCookie, true)
	c.Status(http.StatusOK)
}

// CurrentUser returns the account behind the session cookie.
func (m *Module) CurrentUser(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		api.RespondWithError(c, types.NewUnauthorizedError("authentication required"))
		return
	}

	var user database.User
	if err := m.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondWithError(c, types.NewUnauthorizedError("account no longer exists"))
			return
		}
		api.RespondWithInternalError(c, "internal server error", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (m *Module) setSessionCookie(c *gin.Context, user database.User) error {
	token, err := generateToken(user.ID, user.Username)
	if err != nil {
		return err
	}

	cfg := confAuth()
	maxAge := int(cfg.GetTokenLifetime().Seconds())
	c.SetCookie(cfg.CookieName, token, maxAge, "/", "", cfg.SecureCookie, true)
	return nil
}

func publishUserEvent(eventType events.EventType, user database.User) {
	bus := events.GetGlobalEventBus()
	if bus == nil {
		return
	}
	bus.PublishAsync(events.Event{
		Type:    eventType,
		Source:  ModuleID,
		Title:   string(eventType),
		Message: user.Username,
		Data:    map[string]interface{}{"user_id": user.ID},
	})
}
