package sensormodule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/database"
	"github.com/mverge/camwatch/internal/modules/authmodule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupSensorRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.User{}, &database.Sensor{}))

	router := gin.New()
	authmodule.NewModule(db).RegisterRoutes(router)
	NewModule(db).RegisterRoutes(router)
	return router
}

func login(t *testing.T, router *gin.Engine, username string) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(gin.H{"username": username, "password": "secret1"})
	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "camwatch_token" && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func request(router *gin.Engine, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSensorLifecycle(t *testing.T) {
	router := setupSensorRouter(t)
	cookie := login(t, router, "alice")

	w := request(router, http.MethodPost, "/api/sensors", gin.H{
		"name": "Server Room Temp",
		"type": "temperature",
		"config": gin.H{
			"protocol": "mqtt",
			"address":  "sensors/temp/1",
			"interval": 60,
			"unit":     "C",
		},
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	var sensor database.Sensor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sensor))
	assert.True(t, sensor.IsActive)
	assert.Equal(t, "mqtt", sensor.Config.Protocol)

	w = request(router, http.MethodPut, fmt.Sprintf("/api/sensors/%d", sensor.ID), gin.H{
		"is_active": false,
	}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sensor))
	assert.False(t, sensor.IsActive)
	assert.Equal(t, "Server Room Temp", sensor.Name)

	w = request(router, http.MethodGet, "/api/sensors", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var sensors []database.Sensor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sensors))
	assert.Len(t, sensors, 1)

	w = request(router, http.MethodDelete, fmt.Sprintf("/api/sensors/%d", sensor.ID), nil, cookie)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = request(router, http.MethodGet, fmt.Sprintf("/api/sensors/%d", sensor.ID), nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSensorOwnershipEnforced(t *testing.T) {
	router := setupSensorRouter(t)
	alice := login(t, router, "alice")
	bob := login(t, router, "bob")

	w := request(router, http.MethodPost, "/api/sensors", gin.H{
		"name": "Motion", "type": "motion",
	}, alice)
	require.Equal(t, http.StatusCreated, w.Code)
	var sensor database.Sensor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sensor))

	w = request(router, http.MethodGet, fmt.Sprintf("/api/sensors/%d", sensor.ID), nil, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(router, http.MethodGet, "/api/sensors", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
