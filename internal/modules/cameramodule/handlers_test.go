package cameramodule

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

func setupCameraRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.User{}, &database.Camera{}))

	router := gin.New()
	authmodule.NewModule(db).RegisterRoutes(router)
	NewModule(db).RegisterRoutes(router)
	return router
}

func registerUser(t *testing.T, router *gin.Engine, username string) *http.Cookie {
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

func doJSON(router *gin.Engine, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createCamera(t *testing.T, router *gin.Engine, cookie *http.Cookie, name string) uint {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/cameras", gin.H{
		"name": name,
		"url":  "rtsp://192.168.1.50:554",
		"type": "rtsp",
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	var camera database.Camera
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &camera))
	return camera.ID
}

func TestCameraCRUDRequiresAuth(t *testing.T) {
	router := setupCameraRouter(t)

	w := doJSON(router, http.MethodGet, "/api/cameras", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/api/cameras", gin.H{"name": "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndListCameras(t *testing.T) {
	router := setupCameraRouter(t)
	cookie := registerUser(t, router, "alice")

	createCamera(t, router, cookie, "Front Door")
	createCamera(t, router, cookie, "Garage")

	w := doJSON(router, http.MethodGet, "/api/cameras", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var cameras []database.Camera
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cameras))
	require.Len(t, cameras, 2)
	assert.Equal(t, "Front Door", cameras[0].Name)
	assert.Equal(t, "Garage", cameras[1].Name)
}

func TestListReturnsOnlyOwnCameras(t *testing.T) {
	router := setupCameraRouter(t)
	alice := registerUser(t, router, "alice")
	bob := registerUser(t, router, "bob")

	createCamera(t, router, alice, "Alice Cam")

	w := doJSON(router, http.MethodGet, "/api/cameras", nil, bob)
	require.Equal(t, http.StatusOK, w.Code)

	var cameras []database.Camera
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cameras))
	assert.Empty(t, cameras)
}

func TestUpdateCamera(t *testing.T) {
	router := setupCameraRouter(t)
	cookie := registerUser(t, router, "alice")
	id := createCamera(t, router, cookie, "Front Door")

	w := doJSON(router, http.MethodPut, fmt.Sprintf("/api/cameras/%d", id), gin.H{
		"name":      "Back Door",
		"is_active": true,
	}, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var camera database.Camera
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &camera))
	assert.Equal(t, "Back Door", camera.Name)
	assert.True(t, camera.IsActive)
	// Fields absent from the payload are untouched
	assert.Equal(t, "rtsp://192.168.1.50:554", camera.URL)
}

func TestForeignCameraIsForbidden(t *testing.T) {
	router := setupCameraRouter(t)
	alice := registerUser(t, router, "alice")
	bob := registerUser(t, router, "bob")
	id := createCamera(t, router, alice, "Alice Cam")

	w := doJSON(router, http.MethodGet, fmt.Sprintf("/api/cameras/%d", id), nil, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodDelete, fmt.Sprintf("/api/cameras/%d", id), nil, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMissingCameraIsNotFound(t *testing.T) {
	router := setupCameraRouter(t)
	cookie := registerUser(t, router, "alice")

	w := doJSON(router, http.MethodGet, "/api/cameras/999", nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/api/cameras/banana", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteCamera(t *testing.T) {
	router := setupCameraRouter(t)
	cookie := registerUser(t, router, "alice")
	id := createCamera(t, router, cookie, "Front Door")

	w := doJSON(router, http.MethodDelete, fmt.Sprintf("/api/cameras/%d", id), nil, cookie)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/cameras/%d", id), nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
