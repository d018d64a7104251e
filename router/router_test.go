package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firealarm/alarm"
	"firealarm/authentication"
	"firealarm/config"
	"firealarm/controller"
	"firealarm/controller/wsserver"
	"firealarm/database"
	"firealarm/metrics"
)

func setupApp(t *testing.T, auth *authentication.Authenticator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg))

	service := alarm.NewService(database.NewMemoryStore(), nil, alarm.DefaultConfig())
	app := gin.New()
	InitRouter(app, Deps{
		Alarms:         controller.NewAlarmController(service),
		Hub:            wsserver.NewHub([]string{"http://localhost:5173"}),
		Auth:           auth,
		AllowedOrigins: []string{"http://localhost:5173"},
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	return app
}

func serve(app *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func TestRouter_OpenRoutes(t *testing.T) {
	app := setupApp(t, nil)

	w := serve(app, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	body := `{"devid":"DEV-9","smoke":true,"time":"2024-01-01 00:00:00"}`
	w = serve(app, httptest.NewRequest(http.MethodPost, "/alarms/firealm", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ack":false`)

	w = serve(app, httptest.NewRequest(http.MethodGet, "/alarms", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "firealarm_telemetry_total")
	assert.Contains(t, w.Body.String(), `route="/alarms/firealm"`)
}

func TestRouter_CORS(t *testing.T) {
	app := setupApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/alarms", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := serve(app, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/alarms", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = serve(app, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_AuthProtectsOperatorRoutes(t *testing.T) {
	auth := authentication.NewAuthenticator(config.Auth{Enabled: true, Secret: "test-secret", TokenTTL: time.Hour}, nil)
	app := setupApp(t, auth)

	w := serve(app, httptest.NewRequest(http.MethodGet, "/alarms", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = serve(app, httptest.NewRequest(http.MethodPatch, "/alarms/x/ack", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body := `{"devid":"DEV-9","time":"2024-01-01T00:00:00Z"}`
	w = serve(app, httptest.NewRequest(http.MethodPost, "/alarms/ingest", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)

	token := auth.GenerateToken(&authentication.Claims{
		Username:       "ops1",
		StandardClaims: jwt.StandardClaims{Audience: "operator"},
	}, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/alarms", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = serve(app, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RevocableAuthChecksTokenRecords(t *testing.T) {
	mr := miniredis.RunT(t)
	tokenDB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = tokenDB.Close() })
	auth := authentication.NewAuthenticator(config.Auth{Enabled: true, Secret: "test-secret", TokenTTL: time.Hour}, tokenDB)
	require.True(t, auth.Revocable())
	app := setupApp(t, auth)

	// signed but never recorded, as after a logout
	token := auth.GenerateToken(&authentication.Claims{
		Username:       "ops1",
		StandardClaims: jwt.StandardClaims{Audience: "operator"},
	}, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/alarms", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(app, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "log in again")
}
