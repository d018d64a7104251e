package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"firealarm/authentication"
	"firealarm/logger"
)

type AuthController struct {
	auth *authentication.Authenticator
}

func NewAuthController(auth *authentication.Authenticator) *AuthController {
	return &AuthController{auth: auth}
}

func (ac *AuthController) LoginHandler(c *gin.Context) {
	log := logger.Log.WithFields(logrus.Fields{"conn-type": "http", "api": "operator_login", "addr": c.Request.RemoteAddr})
	log.Info("Operator login")
	var data LoginRequest
	if err := c.ShouldBind(&data); err != nil {
		log.Info("Parameter error: ", err)
		c.JSON(http.StatusBadRequest, ParameterErrorResponse)
		return
	}
	if !CheckUsername(data.Username) || !CheckPassword(data.Password) {
		log.Info(fmt.Sprintf("Invalid credentials format for %q", data.Username))
		c.JSON(http.StatusUnauthorized, WrongCredentialsResponse)
		return
	}
	token, claims, err := ac.auth.Login(c.Request.Context(), data.Username, data.Password)
	if errors.Is(err, authentication.ErrWrongCredentials) {
		log.Info("Wrong credentials for ", data.Username)
		c.JSON(http.StatusUnauthorized, WrongCredentialsResponse)
		return
	} else if err != nil {
		log.Error("Failed to record token: ", err)
		c.JSON(http.StatusInternalServerError, InternalErrorResponse)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{
		BaseResponse: BaseResponse{Success: true, Message: "success"},
		Username:     claims.Username,
		Token:        token,
		ExpiresAt:    claims.ExpiresAt,
	})
	log.Info("Operator login replied")
}

// LogoutHandler revokes every token of the calling operator.
func (ac *AuthController) LogoutHandler(c *gin.Context) {
	log := logger.Log.WithFields(logrus.Fields{"conn-type": "http", "api": "operator_logout", "addr": c.Request.RemoteAddr})
	claims := authentication.CurrentClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, BaseResponse{Success: false, Message: "not logged in"})
		return
	}
	if err := ac.auth.ClearTokenRecords(c.Request.Context(), claims.Username); err != nil {
		log.Error("Failed to clear token records: ", err)
		c.JSON(http.StatusInternalServerError, InternalErrorResponse)
		return
	}
	c.JSON(http.StatusOK, BaseResponse{Success: true, Message: "success"})
	log.Info("Operator logged out: ", claims.Username)
}
