package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/creatorcircle/xpengine/config"
	"github.com/creatorcircle/xpengine/utils"
)

const serviceTokenTTL = time.Hour

// AuthController exchanges the configured service API key for
// short-lived JWTs. End-user authentication lives in the main app
// backend, not here.
type AuthController struct{}

// NewAuthController creates a new controller instance.
func NewAuthController() *AuthController {
	return &AuthController{}
}

type tokenRequest struct {
	Caller string `json:"caller" binding:"required"`
	APIKey string `json:"api_key" binding:"required"`
}

// Token issues a service JWT when the presented API key matches the
// configured bcrypt hash.
func (a *AuthController) Token(ctx *gin.Context) {
	var req tokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "caller and api_key are required")
		return
	}

	cfg := config.Get()
	if cfg.APIKeyHash == "" || !utils.CheckAPIKey(cfg.APIKeyHash, req.APIKey) {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid api key")
		return
	}

	token, err := utils.GenerateServiceToken(req.Caller, serviceTokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_in": int(serviceTokenTTL.Seconds()),
	})
}
