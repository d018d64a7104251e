package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"firealarm/authentication"
	"firealarm/controller"
	"firealarm/controller/wsserver"
)

type Deps struct {
	Alarms *controller.AlarmController
	Hub    *wsserver.Hub
	// Auth is nil when operator authentication is disabled.
	Auth           *authentication.Authenticator
	AllowedOrigins []string
	Metrics        http.Handler
}

func InitRouter(app *gin.Engine, deps Deps) {
	app.Use(AccessLog, RequestMetrics)
	if len(deps.AllowedOrigins) > 0 {
		app.Use(CORS(deps.AllowedOrigins))
	}

	app.GET("/healthz", HealthHandler)
	if deps.Metrics != nil {
		app.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	protect := func(c *gin.Context) { c.Next() }
	if deps.Auth != nil {
		protect = deps.Auth.Middleware
		if deps.Auth.Revocable() {
			protect = deps.Auth.MiddlewareWithAvailableControl
		}
		authc := controller.NewAuthController(deps.Auth)
		authGroup := app.Group("/auth")
		authGroup.POST("/login", authc.LoginHandler)
		authGroup.POST("/logout", protect, authc.LogoutHandler)
	}

	app.GET("/ws/dashboard", protect, deps.Hub.Handler)

	alarmGroup := app.Group("/alarms")
	// Devices are never authenticated.
	alarmGroup.POST("/ingest", deps.Alarms.FireAlarmHandler)
	alarmGroup.POST("/firealm", deps.Alarms.FireAlarmHandler)

	alarmGroup.GET("", protect, deps.Alarms.ListAlarmsHandler)
	alarmGroup.GET("/device/:devId", protect, deps.Alarms.DeviceAlarmsHandler)
	alarmGroup.GET("/:id", protect, deps.Alarms.GetAlarmHandler)
	alarmGroup.PATCH("/:id/ack", protect, deps.Alarms.AcknowledgeHandler)
}

func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}
