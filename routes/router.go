package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/creatorcircle/xpengine/config"
	"github.com/creatorcircle/xpengine/controllers"
	"github.com/creatorcircle/xpengine/engine"
	"github.com/creatorcircle/xpengine/middleware"
	"github.com/creatorcircle/xpengine/storage"
	"github.com/creatorcircle/xpengine/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, eng *engine.Engine, board *storage.Leaderboard) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if utils.Logger != nil {
		r.Use(utils.GinLogger(utils.Logger))
		r.Use(utils.GinRecovery(utils.Logger))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController()
	userController := controllers.NewUserController(db, eng)
	xpController := controllers.NewXpController(db, eng, board)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/token", authController.Token)

	// Read endpoints feed profile and progress screens; no auth so
	// the app backend can proxy them cheaply.
	api.GET("/users/:id", userController.Get)
	api.GET("/users/:id/progress", xpController.Progress)
	api.GET("/users/:id/xp/log", xpController.Log)
	api.GET("/users/:id/daily", xpController.Daily)
	api.GET("/leaderboard", xpController.Leaderboard)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/users", userController.Create)
	protected.POST("/users/:id/verify", userController.Verify)
	protected.POST("/xp/award", xpController.Award)

	return r
}
