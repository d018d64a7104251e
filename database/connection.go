package database

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"firealarm/config"
	"firealarm/model"
)

func MysqlConnect(cfg config.MySql) (*gorm.DB, error) {
	conn, err := gorm.Open(
		mysql.Open(
			fmt.Sprintf(
				"%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
				cfg.User,
				cfg.Password,
				cfg.Addr,
				cfg.Database)), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not connect to the database: %w", err)
	}
	if err = conn.AutoMigrate(&model.AlarmRecord{}); err != nil {
		return nil, fmt.Errorf("migrate alarm records: %w", err)
	}
	return conn, nil
}

type RedisClients struct {
	LockDB  *redis.Client
	TokenDB *redis.Client
}

func RedisConnect(cfg config.Redis) *RedisClients {
	return &RedisClients{
		LockDB: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.Databases.Lock,
		}),
		TokenDB: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.Databases.Token,
		}),
	}
}

func (c *RedisClients) Close() {
	_ = c.LockDB.Close()
	_ = c.TokenDB.Close()
}
