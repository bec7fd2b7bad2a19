package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storyloom-backend/internal/services"
	"github.com/yungbote/storyloom-backend/internal/types"
)

type AuthHandler struct {
	authService    services.AuthService
	userService    services.UserService
	captchaService services.CaptchaService
}

func NewAuthHandler(authService services.AuthService, userService services.UserService, captchaService services.CaptchaService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService, captchaService: captchaService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username     string `json:"username"`
		Password     string `json:"password"`
		CaptchaToken string `json:"captchaToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid request body"))
		return
	}
	if err := ah.captchaService.Verify(c.Request.Context(), req.CaptchaToken, c.ClientIP()); err != nil {
		RespondError(c, http.StatusBadRequest, "captcha_failed", err)
		return
	}
	user := types.User{Username: req.Username}
	accessToken, refreshToken, err := ah.authService.RegisterUser(c.Request.Context(), &user, req.Password)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "registration_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"user":          user,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(ah.authService.GetAccessTTL().Seconds()),
	})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid request body"))
		return
	}
	user, accessToken, refreshToken, err := ah.authService.LoginUser(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	RespondOK(c, gin.H{
		"user":          user,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(ah.authService.GetAccessTTL().Seconds()),
	})
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	accessToken, refreshToken, err := ah.authService.RefreshUser(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	RespondOK(c, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(ah.authService.GetAccessTTL().Seconds()),
	})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.LogoutUser(c.Request.Context()); err != nil {
		RespondError(c, http.StatusBadRequest, "logout_failed", err)
		return
	}
	RespondOK(c, gin.H{"message": "logged out successfully"})
}

// CheckLoggedIn echoes the authenticated user, the middleware has already
// validated the session by the time this runs.
func (ah *AuthHandler) CheckLoggedIn(c *gin.Context) {
	me, err := ah.userService.GetMe(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	RespondOK(c, gin.H{"loggedIn": true, "user": me})
}
