package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"firealarm/alarm"
	"firealarm/authentication"
	"firealarm/config"
	"firealarm/controller"
	"firealarm/controller/wsserver"
	"firealarm/database"
	"firealarm/email"
	"firealarm/logger"
	"firealarm/metrics"
	"firealarm/router"
)

const tokenCleanInterval = time.Hour

func main() {
	configPath := flag.String("config", "config.yaml", "path of the yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Log.Fatal("Failed to load config: ", err)
	}
	config.Config = cfg
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log := logger.Log.WithFields(logrus.Fields{"func": "main"})

	if err = metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("Failed to register metrics: ", err)
	}

	var store alarm.Store
	if cfg.MySql.Addr != "" {
		db, err := database.MysqlConnect(cfg.MySql)
		if err != nil {
			log.Fatal(err)
		}
		store = database.NewAlarmStore(db)
		log.Info("Alarm records stored in MySQL at ", cfg.MySql.Addr)
	} else {
		store = database.NewMemoryStore()
		log.Warn("MySQL not configured, alarm records are kept in memory")
	}

	var locker alarm.Locker
	var redisClients *database.RedisClients
	if cfg.Redis.Addr != "" {
		redisClients = database.RedisConnect(cfg.Redis)
		defer redisClients.Close()
		locker = database.NewRedisLocker(redisClients.LockDB, cfg.Alarm.LockTTL)
	} else {
		locker = alarm.NewLocalLocker()
		log.Warn("Redis not configured, device locks are process local")
	}

	hub := wsserver.NewHub(cfg.Server.AllowedOrigins)
	mailer := email.NewAlarmMailer(cfg.Email)
	service := alarm.NewService(store, locker, alarm.Config{
		ArmDelay:     cfg.Alarm.ArmDelay,
		ListLimit:    cfg.Alarm.ListLimit,
		StoreTimeout: cfg.Alarm.StoreTimeout,
	},
		alarm.WithNotifier(hub),
		alarm.WithNotifier(mailer),
		alarm.WithNotifier(metrics.Notifier{}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var auth *authentication.Authenticator
	if cfg.Auth.Enabled {
		var tokenDB *redis.Client
		if redisClients != nil {
			tokenDB = redisClients.TokenDB
		} else {
			log.Warn("Redis not configured, operator tokens cannot be revoked")
		}
		auth = authentication.NewAuthenticator(cfg.Auth, tokenDB)
		go auth.ClearExpiredRecords(ctx, tokenCleanInterval)
	}

	app := gin.New()
	app.Use(gin.Recovery())
	router.InitRouter(app, router.Deps{
		Alarms:         controller.NewAlarmController(service),
		Hub:            hub,
		Auth:           auth,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        promhttp.Handler(),
	})

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: app}
	go func() {
		log.Info("Listening on ", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error: ", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	hub.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed: ", err)
	}
}
