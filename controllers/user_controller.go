package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/creatorcircle/xpengine/engine"
	"github.com/creatorcircle/xpengine/models"
	"github.com/creatorcircle/xpengine/utils"
)

// UserController manages gamification profiles.
type UserController struct {
	db  *gorm.DB
	eng *engine.Engine
}

// NewUserController creates a new controller instance.
func NewUserController(db *gorm.DB, eng *engine.Engine) *UserController {
	return &UserController{db: db, eng: eng}
}

type createUserRequest struct {
	Username  string `json:"username" binding:"required"`
	AvatarURL string `json:"avatar_url"`
}

// Create registers a new gamification profile at xp=0, level=1.
func (u *UserController) Create(ctx *gin.Context) {
	var req createUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "username is required")
		return
	}

	user := models.User{Username: req.Username, AvatarURL: req.AvatarURL, XP: 0, Level: 1}
	user.SetBadgeList([]string{})
	if err := u.db.Create(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create user")
		return
	}

	utils.Success(ctx, userPayload(&user))
}

// Get returns a user's public gamification state.
func (u *UserController) Get(ctx *gin.Context) {
	user, ok := u.loadUser(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, userPayload(user))
}

// Verify marks the user verified and grants the one-time verification
// reward through the engine.
func (u *UserController) Verify(ctx *gin.Context) {
	user, ok := u.loadUser(ctx)
	if !ok {
		return
	}
	if user.IsVerified {
		utils.Error(ctx, http.StatusBadRequest, 40030, "user already verified")
		return
	}

	if err := u.db.Model(user).Update("is_verified", true).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to verify user")
		return
	}

	// The multiplier only applies to awards made while verified, so
	// the verification reward itself is scaled too.
	result, err := u.eng.AwardForProfileVerified(ctx.Request.Context(), user.ID, engine.Metadata{})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to award verification bonus")
		return
	}

	utils.Success(ctx, gin.H{
		"outcome": result.Outcome.String(),
		"delta":   result.Delta,
		"xp":      result.XP,
		"level":   result.Level,
	})
}

func (u *UserController) loadUser(ctx *gin.Context) (*models.User, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid user id")
		return nil, false
	}

	var user models.User
	if err := u.db.First(&user, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load user")
		return nil, false
	}
	return &user, true
}

func userPayload(user *models.User) gin.H {
	return gin.H{
		"id":               user.ID,
		"username":         user.Username,
		"avatar_url":       user.AvatarURL,
		"xp":               user.XP,
		"level":            user.Level,
		"badges":           user.BadgeList(),
		"login_streak":     user.LoginStreak,
		"last_login_at":    user.LastLoginAt,
		"last_activity_at": user.LastActivityAt,
		"is_verified":      user.IsVerified,
	}
}
