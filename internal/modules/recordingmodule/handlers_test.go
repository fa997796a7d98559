package recordingmodule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/database"
	"github.com/mverge/camwatch/internal/modules/authmodule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupRecordingRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.User{}, &database.Recording{}))

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

func TestRecordingLifecycle(t *testing.T) {
	router := setupRecordingRouter(t)
	cookie := login(t, router, "alice")

	w := request(router, http.MethodPost, "/api/recordings", gin.H{
		"filename":  "cam1-20260829.mp4",
		"is_active": true,
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	var recording database.Recording
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recording))
	assert.True(t, recording.IsActive)
	assert.False(t, recording.StartTime.IsZero(), "start time is stamped on create")
	assert.Nil(t, recording.EndTime)

	// Finishing the recording sets the end time and clears the active flag
	end := time.Now().UTC().Truncate(time.Second)
	w = request(router, http.MethodPut, fmt.Sprintf("/api/recordings/%d", recording.ID), gin.H{
		"end_time":  end,
		"is_active": false,
	}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recording))
	assert.False(t, recording.IsActive)
	require.NotNil(t, recording.EndTime)
	assert.True(t, recording.EndTime.Equal(end))

	w = request(router, http.MethodDelete, fmt.Sprintf("/api/recordings/%d", recording.ID), nil, cookie)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecordingsListedNewestFirst(t *testing.T) {
	router := setupRecordingRouter(t)
	cookie := login(t, router, "alice")

	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	for _, entry := range []gin.H{
		{"filename": "old.mp4", "start_time": older},
		{"filename": "new.mp4", "start_time": newer},
	} {
		w := request(router, http.MethodPost, "/api/recordings", entry, cookie)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := request(router, http.MethodGet, "/api/recordings", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var recordings []database.Recording
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recordings))
	require.Len(t, recordings, 2)
	assert.Equal(t, "new.mp4", recordings[0].Filename)
	assert.Equal(t, "old.mp4", recordings[1].Filename)
}

func TestRecordingOwnershipEnforced(t *testing.T) {
	router := setupRecordingRouter(t)
	alice := login(t, router, "alice")
	bob := login(t, router, "bob")

	w := request(router, http.MethodPost, "/api/recordings", gin.H{"filename": "a.mp4"}, alice)
	require.Equal(t, http.StatusCreated, w.Code)
	var recording database.Recording
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recording))

	w = request(router, http.MethodGet, fmt.Sprintf("/api/recordings/%d", recording.ID), nil, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(router, http.MethodGet, "/api/recordings/999", nil, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(router, http.MethodGet, "/api/recordings", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
