package authentication

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-redis/redis/v8"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"firealarm/config"
	"firealarm/logger"
)

const operatorAudience = "operator"

var ErrWrongCredentials = errors.New("wrong username or password")

type Claims struct {
	jwt.StandardClaims
	Username string `json:"username"`
}

// Authenticator issues and checks operator tokens. tokenDB may be nil, in which
// case tokens cannot be revoked.
type Authenticator struct {
	secret    []byte
	ttl       time.Duration
	operators map[string][]byte
	tokenDB   *redis.Client
}

func NewAuthenticator(cfg config.Auth, tokenDB *redis.Client) *Authenticator {
	operators := make(map[string][]byte, len(cfg.Operators))
	for _, op := range cfg.Operators {
		operators[op.Username] = []byte(op.PasswordHash)
	}
	return &Authenticator{
		secret:    []byte(cfg.Secret),
		ttl:       cfg.TokenTTL,
		operators: operators,
		tokenDB:   tokenDB,
	}
}

// Revocable reports whether issued tokens are recorded and can be revoked.
func (a *Authenticator) Revocable() bool {
	return a.tokenDB != nil
}

// Login checks the operator's bcrypt hash and returns a signed token.
func (a *Authenticator) Login(ctx context.Context, username string, password string) (string, *Claims, error) {
	hash, ok := a.operators[username]
	if !ok || len(hash) == 0 {
		return "", nil, ErrWrongCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", nil, ErrWrongCredentials
	}
	claims := &Claims{
		Username:       username,
		StandardClaims: jwt.StandardClaims{Audience: operatorAudience, Subject: username},
	}
	token := a.GenerateToken(claims, a.ttl)
	if err := a.RecordToken(ctx, username, claims.Id, claims.ExpiresAt); err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Generate JWT with jwt.StandardClaims.
// IssuedAt, ExpiresAt and Id fields are automatically added.
func (a *Authenticator) GenerateToken(claims *Claims, d time.Duration) string {
	claims.IssuedAt = time.Now().Unix()
	claims.ExpiresAt = time.Now().Add(d).Unix()
	claims.Id = uuid.NewV4().String()
	signedClaims := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, _ := signedClaims.SignedString(a.secret)
	return token
}

// Parse JWT string and get the claims.
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token not found")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if ok && token.Valid && claims.VerifyAudience(operatorAudience, true) {
		return claims, nil
	}
	return nil, errors.New("token is not valid")
}

func (a *Authenticator) RecordToken(ctx context.Context, username string, tokenId string, expireTime int64) error {
	if a.tokenDB == nil {
		return nil
	}
	record := &redis.Z{
		Score:  float64(expireTime),
		Member: tokenId,
	}
	_, err := a.tokenDB.ZAdd(ctx, tokenKey(username), record).Result()
	if err != nil {
		return err
	}
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	_, _ = a.tokenDB.ZRemRangeByScore(ctx, tokenKey(username), "0", timestamp).Result()
	return nil
}

// ClearTokenRecords revokes every token of the operator.
func (a *Authenticator) ClearTokenRecords(ctx context.Context, username string) error {
	if a.tokenDB == nil {
		return nil
	}
	_, err := a.tokenDB.Del(ctx, tokenKey(username)).Result()
	return err
}

func (a *Authenticator) DoesTokenRecordExist(ctx context.Context, username string, tokenId string) (bool, error) {
	if a.tokenDB == nil {
		return true, nil
	}
	_, err := a.tokenDB.ZRank(ctx, tokenKey(username), tokenId).Result()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// ClearExpiredRecords drops expired token ids every interval until ctx is done.
func (a *Authenticator) ClearExpiredRecords(ctx context.Context, interval time.Duration) {
	if a.tokenDB == nil {
		return
	}
	log := logger.Log.WithFields(logrus.Fields{"func": "clean_expired_tokens"})
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case t := <-ticker.C:
			total := a.clearExpired(ctx)
			log.Info(fmt.Sprintf("%d expired tokens have been cleared this time. Next Time: %s",
				total, t.Add(interval).Format("2006-01-02 15:04:05 -0700 MST")))
		case <-ctx.Done():
			return
		}
	}
}

func (a *Authenticator) clearExpired(ctx context.Context) int {
	keys, err := a.tokenDB.Keys(ctx, tokenKeyPrefix+"*").Result()
	if err != nil {
		return 0
	}
	total := 0
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	for _, key := range keys {
		if ctx.Err() != nil {
			return total
		}
		c, err := a.tokenDB.ZRemRangeByScore(ctx, key, "0", timestamp).Result()
		if err == nil {
			total += int(c)
		}
	}
	return total
}

const tokenKeyPrefix = "firealarm:token:"

func tokenKey(username string) string {
	return tokenKeyPrefix + username
}

// Get token string from HTTP Authorization request header
func GetTokenString(q *http.Request) (string, error) {
	data, ok := q.Header["Authorization"]
	if !ok {
		return "", errors.New("no auth method found")
	}
	tokenString := data[0]
	if tokenString == "" {
		return "", errors.New("token not found")
	}
	if !strings.HasPrefix(tokenString, "Bearer ") {
		return "", errors.New("token format error")
	}
	tokenString = tokenString[7:]
	if tokenString == "" {
		return "", errors.New("token not found")
	}
	return tokenString, nil
}
