package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/creatorcircle/xpengine/config"
	"github.com/creatorcircle/xpengine/engine"
	"github.com/creatorcircle/xpengine/models"
	"github.com/creatorcircle/xpengine/routes"
	"github.com/creatorcircle/xpengine/storage"
	"github.com/creatorcircle/xpengine/utils"
)

const testAPIKey = "local-test-key"

type apiResponse struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func setupAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	hash, err := utils.HashAPIKey(testAPIKey)
	require.NoError(t, err)

	config.SetForTesting(config.AppConfig{
		AppPort:            "8080",
		JWTSecret:          "test-secret",
		APIKeyHash:         hash,
		GinMode:            "test",
		RateLimitPerMinute: 10000,
		LeaderboardSize:    50,
		AllowedOrigins:     []string{"*"},
	})
	utils.Logger = zap.NewNop()
	utils.Sugar = utils.Logger.Sugar()

	// A named in-memory database per test keeps state isolated.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.XpDailyCounter{}, &models.XpLog{}))

	eng := engine.New(
		storage.NewProfileStore(db),
		storage.NewCounterStore(db),
		storage.NewLogStore(db),
		nil,
		nil,
	)
	board := storage.NewLeaderboard(nil, nil)

	return routes.SetupRouter(db, eng, board), db
}

func authToken(t *testing.T) string {
	t.Helper()
	token, err := utils.GenerateServiceToken("test-suite", time.Hour)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func seedAPIUser(t *testing.T, db *gorm.DB, u models.User) uint {
	t.Helper()
	if u.Level == 0 {
		u.Level = 1
	}
	require.NoError(t, db.Create(&u).Error)
	return u.ID
}

func TestTokenEndpoint(t *testing.T) {
	r, _ := setupAPI(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/auth/token", "", gin.H{
		"caller":  "app-backend",
		"api_key": testAPIKey,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, resp.Data["token"])

	// Issued tokens pass the auth middleware.
	claims, err := utils.ParseServiceToken(resp.Data["token"].(string))
	require.NoError(t, err)
	require.Equal(t, "app-backend", claims.Caller)
}

func TestTokenEndpointRejectsBadKey(t *testing.T) {
	r, _ := setupAPI(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/auth/token", "", gin.H{
		"caller":  "app-backend",
		"api_key": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, 40110, resp.Code)
}

func TestAwardEndpoint(t *testing.T) {
	r, db := setupAPI(t)
	id := seedAPIUser(t, db, models.User{Username: "mira"})

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/xp/award", authToken(t), gin.H{
		"user_id": id,
		"action":  "POST_CREATED",
		"note":    "first post",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "applied", resp.Data["outcome"])
	require.EqualValues(t, 20, resp.Data["delta"])
	require.EqualValues(t, 20, resp.Data["xp"])
	require.EqualValues(t, 1, resp.Data["level"])

	var logs []models.XpLog
	require.NoError(t, db.Where("user_id = ?", id).Find(&logs).Error)
	require.Len(t, logs, 1)
	require.Equal(t, "first post", logs[0].Note)
}

func TestAwardEndpointUnknownAction(t *testing.T) {
	r, db := setupAPI(t)
	id := seedAPIUser(t, db, models.User{Username: "mira"})

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/xp/award", authToken(t), gin.H{
		"user_id": id,
		"action":  "TELEPORTED",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 40021, resp.Code)
}

func TestAwardEndpointRequiresAuth(t *testing.T) {
	r, db := setupAPI(t)
	id := seedAPIUser(t, db, models.User{Username: "mira"})

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/xp/award", "", gin.H{
		"user_id": id,
		"action":  "POST_CREATED",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAwardEndpointMissingUser(t *testing.T) {
	r, _ := setupAPI(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/xp/award", authToken(t), gin.H{
		"user_id": 9999,
		"action":  "POST_CREATED",
	})
	// Business-rule rejections are not HTTP errors.
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "rejected_user_not_found", resp.Data["outcome"])
}

func TestProgressEndpoint(t *testing.T) {
	r, db := setupAPI(t)
	id := seedAPIUser(t, db, models.User{Username: "mira", XP: 350, Level: 2, LoginStreak: 3})

	w, resp := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/progress", id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 350, resp.Data["xp"])
	require.EqualValues(t, 2, resp.Data["level"])
	require.EqualValues(t, 200, resp.Data["level_start"])
	require.EqualValues(t, 500, resp.Data["level_next"])
	require.EqualValues(t, 50, resp.Data["progress_percent"])
	require.EqualValues(t, 3, resp.Data["login_streak"])
}

func TestDailyEndpoint(t *testing.T) {
	r, db := setupAPI(t)
	id := seedAPIUser(t, db, models.User{Username: "mira"})

	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/xp/award", authToken(t), gin.H{
		"user_id": id,
		"action":  "POST_CREATED",
	})

	w, resp := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/daily", id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 20, resp.Data["total"])
	require.EqualValues(t, 2000, resp.Data["cap"])
	require.EqualValues(t, 1980, resp.Data["remaining"])
}

func TestXpLogEndpoint(t *testing.T) {
	r, db := setupAPI(t)
	id := seedAPIUser(t, db, models.User{Username: "mira"})

	token := authToken(t)
	for _, action := range []string{"POST_CREATED", "COMMENT_CREATED"} {
		_, resp := doJSON(t, r, http.MethodPost, "/api/v1/xp/award", token, gin.H{
			"user_id": id,
			"action":  action,
		})
		require.Equal(t, "applied", resp.Data["outcome"])
	}

	w, resp := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/xp/log", id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 2, resp.Data["total"])
	entries, ok := resp.Data["entries"].([]interface{})
	require.True(t, ok)
	require.Len(t, entries, 2)
}

func TestUserCreateAndGet(t *testing.T) {
	r, _ := setupAPI(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/users", authToken(t), gin.H{
		"username":   "mira",
		"avatar_url": "https://cdn.example.com/mira.png",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 0, resp.Data["xp"])
	require.EqualValues(t, 1, resp.Data["level"])
	id := int(resp.Data["id"].(float64))

	w, resp = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "mira", resp.Data["username"])
	require.Equal(t, false, resp.Data["is_verified"])
}

func TestUserGetNotFound(t *testing.T) {
	r, _ := setupAPI(t)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/users/424242", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 40410, resp.Code)
}

func TestVerifyEndpoint(t *testing.T) {
	r, db := setupAPI(t)
	id := seedAPIUser(t, db, models.User{Username: "mira", XP: 100})

	token := authToken(t)
	w, resp := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/verify", id), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "applied", resp.Data["outcome"])
	// The verification reward is granted after the flag flips, so the
	// multiplier already applies: 50 * 1.1 = 55.
	require.EqualValues(t, 55, resp.Data["delta"])
	require.EqualValues(t, 155, resp.Data["xp"])

	// Verifying twice is rejected.
	w, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/verify", id), token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 40030, resp.Code)
}

func TestLeaderboardEndpointWithoutRedis(t *testing.T) {
	r, _ := setupAPI(t)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries, ok := resp.Data["entries"].([]interface{})
	require.True(t, ok)
	require.Empty(t, entries)
}
