package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/http/response"
	"github.com/yungbote/adaptedu-backend/internal/platform/ctxutil"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Password  string `json:"password"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	user := types.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	}
	if err := ah.authService.RegisterUser(c.Request.Context(), &user); err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"ok": true})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	accessToken, refreshToken, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	ah.respondTokens(c, accessToken, refreshToken)
}

// Refresh accepts the refresh token in the body, the X-Refresh-Token header
// or the refresh_token cookie.
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if c.Request.ContentLength > 0 {
		if err := bindJSON(c, &req); err != nil {
			response.RespondAPIError(c, ah.log, err)
			return
		}
	}
	ctx := c.Request.Context()
	if tok := strings.TrimSpace(req.RefreshToken); tok != "" {
		ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{RefreshToken: tok})
	}
	accessToken, refreshToken, err := ah.authService.RefreshUser(ctx)
	if err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	ah.respondTokens(c, accessToken, refreshToken)
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.LogoutUser(c.Request.Context()); err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (ah *AuthHandler) respondTokens(c *gin.Context, accessToken, refreshToken string) {
	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(ah.authService.GetAccessTTL().Seconds()),
	})
}
