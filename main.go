package main

import (
	"github.com/creatorcircle/xpengine/config"
	"github.com/creatorcircle/xpengine/engine"
	"github.com/creatorcircle/xpengine/models"
	"github.com/creatorcircle/xpengine/routes"
	"github.com/creatorcircle/xpengine/storage"
	"github.com/creatorcircle/xpengine/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.XpDailyCounter{}, &models.XpLog{})

	rdb := utils.GetRedis()
	notifier := storage.NewRedisNotifier(rdb, utils.Sugar)
	board := storage.NewLeaderboard(rdb, utils.Sugar)

	eng := engine.New(
		storage.NewProfileStore(db),
		storage.NewCounterStore(db),
		storage.NewLogStore(db),
		notifier,
		utils.Logger,
	)

	r := routes.SetupRouter(db, eng, board)

	utils.Sugar.Infof("Starting XP service on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
