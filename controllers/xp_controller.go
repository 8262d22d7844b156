package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/creatorcircle/xpengine/config"
	"github.com/creatorcircle/xpengine/engine"
	"github.com/creatorcircle/xpengine/models"
	"github.com/creatorcircle/xpengine/storage"
	"github.com/creatorcircle/xpengine/utils"
)

// XpController exposes the XP engine over HTTP.
type XpController struct {
	db    *gorm.DB
	eng   *engine.Engine
	board *storage.Leaderboard
}

// NewXpController creates a new controller instance. board may be nil.
func NewXpController(db *gorm.DB, eng *engine.Engine, board *storage.Leaderboard) *XpController {
	return &XpController{db: db, eng: eng, board: board}
}

type awardRequest struct {
	UserID       uint   `json:"user_id" binding:"required"`
	Action       string `json:"action" binding:"required"`
	Note         string `json:"note"`
	RecentCount  int    `json:"recent_count"`
	NotifyTarget uint   `json:"notify_target"`
}

// Award applies one action for one user. Business-rule rejections are
// 200 responses with a non-applied outcome; only persistence failures
// produce a 5xx.
func (x *XpController) Award(ctx *gin.Context) {
	var req awardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "user_id and action are required")
		return
	}

	action := engine.Action(req.Action)
	if !engine.KnownAction(action) {
		utils.Error(ctx, http.StatusBadRequest, 40021, "unknown action")
		return
	}

	meta := engine.Metadata{
		Note:         utils.SanitizeNote(req.Note),
		RecentCount:  req.RecentCount,
		NotifyTarget: req.NotifyTarget,
	}

	result, err := x.eng.Award(ctx.Request.Context(), req.UserID, action, meta)
	if err != nil {
		utils.Sugar.Errorf("award failed user=%d action=%s: %v", req.UserID, req.Action, err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to apply award")
		return
	}

	if result.Outcome == engine.Applied && x.board != nil {
		x.board.Set(ctx.Request.Context(), req.UserID, result.XP)
	}

	utils.Success(ctx, gin.H{
		"outcome":    result.Outcome.String(),
		"delta":      result.Delta,
		"xp":         result.XP,
		"level":      result.Level,
		"leveled_up": result.LeveledUp,
	})
}

// Progress returns xp, level, badges, streak, and next-level progress.
func (x *XpController) Progress(ctx *gin.Context) {
	user, ok := x.loadUser(ctx)
	if !ok {
		return
	}

	level := user.Level
	utils.Success(ctx, gin.H{
		"user_id":          user.ID,
		"xp":               user.XP,
		"level":            level,
		"badges":           user.BadgeList(),
		"login_streak":     user.LoginStreak,
		"level_start":      engine.LevelStart(level),
		"level_next":       engine.LevelNext(level),
		"progress_percent": engine.LevelProgress(user.XP),
	})
}

// Log returns the user's audit log, newest first, paged.
func (x *XpController) Log(ctx *gin.Context) {
	user, ok := x.loadUser(ctx)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := x.db.Model(&models.XpLog{}).Where("user_id = ?", user.ID).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to count xp log")
		return
	}

	var entries []models.XpLog
	err := x.db.Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load xp log")
		return
	}

	utils.Success(ctx, gin.H{
		"entries":   entries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Daily returns today's earned total, remaining cap headroom, and
// per-action counts.
func (x *XpController) Daily(ctx *gin.Context) {
	user, ok := x.loadUser(ctx)
	if !ok {
		return
	}

	dateKey := engine.DateKey(time.Now())
	var row models.XpDailyCounter
	err := x.db.Where("user_id = ? AND date_key = ?", user.ID, dateKey).First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load daily counters")
		return
	}

	remaining := engine.DailyXPCap - row.Total
	if remaining < 0 {
		remaining = 0
	}

	utils.Success(ctx, gin.H{
		"date_key":  dateKey,
		"total":     row.Total,
		"cap":       engine.DailyXPCap,
		"remaining": remaining,
		"counters":  row.CounterMap(),
	})
}

// Leaderboard returns the top users by XP from the Redis mirror.
func (x *XpController) Leaderboard(ctx *gin.Context) {
	size := config.Get().LeaderboardSize
	if v, err := strconv.Atoi(ctx.DefaultQuery("limit", "0")); err == nil && v > 0 && v < size {
		size = v
	}

	entries, err := x.board.Top(ctx.Request.Context(), size)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to load leaderboard")
		return
	}

	utils.Success(ctx, gin.H{"entries": entries})
}

func (x *XpController) loadUser(ctx *gin.Context) (*models.User, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid user id")
		return nil, false
	}

	var user models.User
	if err := x.db.First(&user, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load user")
		return nil, false
	}
	return &user, true
}
