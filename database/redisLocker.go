package database

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"firealarm/logger"
)

const (
	lockKeyPrefix    = "firealarm:lock:device:"
	lockRetryBackoff = 20 * time.Millisecond
)

var ErrLockTimeout = errors.New("device lock: timed out")

// Deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker serializes writers of one device across server instances.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Lock(ctx context.Context, deviceID string) (func(), error) {
	key := lockKeyPrefix + deviceID
	token := uuid.NewV4().String()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLockTimeout
			}
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-time.After(lockRetryBackoff):
		case <-ctx.Done():
			return nil, ErrLockTimeout
		}
	}
	return func() {
		// the request context may already be done
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		log := logger.Log.WithFields(logrus.Fields{"func": "device_lock", "device": deviceID})
		n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			log.Warn("Failed to release device lock: ", err)
		} else if n == 0 {
			log.Error("Device lock expired before release, ttl ", l.ttl)
		}
	}, nil
}
