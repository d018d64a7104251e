package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"firealarm/alarm"
	"firealarm/authentication"
	"firealarm/config"
	"firealarm/database"
)

func setupAuthApp(t *testing.T) (*gin.Engine, *database.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	tokenDB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = tokenDB.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("ops1-password"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := authentication.NewAuthenticator(config.Auth{
		Enabled:   true,
		Secret:    "test-secret",
		TokenTTL:  time.Hour,
		Operators: []config.Operator{{Username: "ops1", PasswordHash: string(hash)}},
	}, tokenDB)

	store := database.NewMemoryStore()
	ac := NewAlarmController(alarm.NewService(store, nil, alarm.DefaultConfig()))
	authc := NewAuthController(auth)

	app := gin.New()
	app.POST("/auth/login", authc.LoginHandler)
	app.POST("/auth/logout", auth.MiddlewareWithAvailableControl, authc.LogoutHandler)
	app.POST("/alarms/ingest", ac.FireAlarmHandler)
	app.PATCH("/alarms/:id/ack", auth.MiddlewareWithAvailableControl, ac.AcknowledgeHandler)
	return app, store
}

func request(app *gin.Engine, method string, path string, body string, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, app *gin.Engine) string {
	t.Helper()
	w := request(app, http.MethodPost, "/auth/login", `{"username":"ops1","password":"ops1-password"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ops1", resp.Username)
	assert.NotZero(t, resp.ExpiresAt)
	return resp.Token
}

func TestLoginHandler(t *testing.T) {
	app, _ := setupAuthApp(t)
	assert.NotEmpty(t, login(t, app))

	w := request(app, http.MethodPost, "/auth/login", `{"username":"ops1","password":"nope-nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = request(app, http.MethodPost, "/auth/login", `{"username":"ops1"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAcknowledgeHandler_UsesOperatorName(t *testing.T) {
	app, store := setupAuthApp(t)
	token := login(t, app)

	w := request(app, http.MethodPost, "/alarms/ingest", `{"devid":"DEV-1","fire":true,"time":"2024-01-01T00:00:00Z"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	recs, err := store.ListByDevice(context.Background(), "DEV-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	w = request(app, http.MethodPatch, "/alarms/"+recs[0].ID+"/ack", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(app, http.MethodPatch, "/alarms/"+recs[0].ID+"/ack", `{"user":"intruder"}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec, err := store.Get(context.Background(), recs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "ops1", rec.AcknowledgedBy)
}

func TestLogoutHandler_RevokesTokens(t *testing.T) {
	app, _ := setupAuthApp(t)
	token := login(t, app)

	w := request(app, http.MethodPost, "/auth/logout", "", token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(app, http.MethodPost, "/auth/logout", "", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
