package authentication

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	InvalidToken     = 301
	LoginAgainNeeded = 302

	DatabaseFailure = 501

	ClaimsKey = "claims"
)

// Authentication middleware without token available control.
// It also stores claims as key/value pair for this context. You can get it with c.Get("claims").
func (a *Authenticator) Middleware(c *gin.Context) {
	claims, err := a.authAndGetClaims(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": err.Error(), "code": InvalidToken})
		return
	}
	c.Set(ClaimsKey, claims)
	c.Next()
}

// Authentication middleware with token available control using redis.
// It also stores claims as key/value pair for this context. You can get it with c.Get("claims").
func (a *Authenticator) MiddlewareWithAvailableControl(c *gin.Context) {
	claims, err := a.authAndGetClaims(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": err.Error(), "code": InvalidToken})
		return
	}
	ok, err := a.DoesTokenRecordExist(c.Request.Context(), claims.Username, claims.Id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "token store unavailable", "code": DatabaseFailure})
		return
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "token is invalid, please log in again", "code": LoginAgainNeeded})
		return
	}
	c.Set(ClaimsKey, claims)
	c.Next()
}

// CurrentClaims returns the claims stored by the middlewares, or nil.
func CurrentClaims(c *gin.Context) *Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

func (a *Authenticator) authAndGetClaims(c *gin.Context) (*Claims, error) {
	tokenString, err := GetTokenString(c.Request)
	if err != nil {
		return nil, err
	}
	claims, err := a.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
