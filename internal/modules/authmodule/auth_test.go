package authmodule

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.User{}))

	m := NewModule(db)
	router := gin.New()
	m.RegisterRoutes(router)
	return router, db
}

func postJSON(router *gin.Engine, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "camwatch_token" && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestRegisterCreatesAccountAndSession(t *testing.T) {
	router, db := setupAuthRouter(t)

	w := postJSON(router, "/api/register", gin.H{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)
	sessionCookie(t, w)

	var count int64
	require.NoError(t, db.Model(&database.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Password hash must never leak
	assert.NotContains(t, w.Body.String(), "secret1")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := postJSON(router, "/api/register", gin.H{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(router, "/api/register", gin.H{"username": "alice", "password": "secret2"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterValidatesInput(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := postJSON(router, "/api/register", gin.H{"username": "al", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "/api/register", gin.H{"username": "alice", "password": "shrt"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginIssuesSessionForValidCredentials(t *testing.T) {
	router, _ := setupAuthRouter(t)
	postJSON(router, "/api/register", gin.H{"username": "alice", "password": "secret1"})

	w := postJSON(router, "/api/login", gin.H{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(cookie)
	got := httptest.NewRecorder()
	router.ServeHTTP(got, req)

	require.Equal(t, http.StatusOK, got.Code)
	var user map[string]interface{}
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &user))
	assert.Equal(t, "alice", user["username"])
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router, _ := setupAuthRouter(t)
	postJSON(router, "/api/register", gin.H{"username": "alice", "password": "secret1"})

	w := postJSON(router, "/api/login", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(router, "/api/login", gin.H{"username": "nobody", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCurrentUserRequiresSession(t *testing.T) {
	router, _ := setupAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(&http.Cookie{Name: "camwatch_token", Value: "garbage"})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	router, _ := setupAuthRouter(t)
	w := postJSON(router, "/api/register", gin.H{"username": "alice", "password": "secret1"})
	cookie := sessionCookie(t, w)

	w = postJSON(router, "/api/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	for _, cleared := range w.Result().Cookies() {
		if cleared.Name == "camwatch_token" {
			assert.Empty(t, cleared.Value)
			assert.Negative(t, cleared.MaxAge)
		}
	}
}
