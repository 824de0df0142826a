// Package main provides the game table server binary: the JSON API for dice
// rolling, campaign upkeep, and DM combat control.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/jmorland/gametable/internal/auth"
	"github.com/jmorland/gametable/internal/config"
	"github.com/jmorland/gametable/internal/game/combat"
	"github.com/jmorland/gametable/internal/game/dice"
	"github.com/jmorland/gametable/internal/httpapi"
	"github.com/jmorland/gametable/internal/observability"
	"github.com/jmorland/gametable/internal/server"
	"github.com/jmorland/gametable/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game table server",
		zap.String("addr", cfg.Server.Addr()),
	)

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	userRepo := postgres.NewUserRepository(pool.DB())
	campaignRepo := postgres.NewCampaignRepository(pool.DB())
	charRepo := postgres.NewCharacterRepository(pool.DB())
	conditionRepo := postgres.NewConditionRepository(pool.DB())
	encounterRepo := postgres.NewEncounterRepository(pool.DB())
	gamelogRepo := postgres.NewGameLogRepository(pool.DB())

	tokens := auth.NewTokenManager(cfg.Auth)

	cryptoSrc := dice.NewCryptoSource()
	roller := dice.NewLoggedRoller(cryptoSrc, observability.Component(logger, "dice"))
	coord := combat.NewCoordinator(encounterRepo, charRepo, gamelogRepo, cryptoSrc,
		observability.Component(logger, "combat"))

	api := httpapi.NewAPI(httpapi.Deps{
		Logger:     observability.Component(logger, "http"),
		Tokens:     tokens,
		Users:      userRepo,
		Campaigns:  campaignRepo,
		Characters: charRepo,
		Conditions: conditionRepo,
		GameLog:    gamelogRepo,
		Coord:      coord,
		Encounters: encounterRepo,
		Roller:     roller,
		Health:     pool,
	})

	lc := server.NewLifecycle(logger)
	lc.Add("database", &server.FuncService{
		StartFn: func() error { return nil },
		StopFn:  pool.Close,
	})
	lc.Add("http", server.NewHTTPService(cfg.Server, api.Handler(), logger))

	if err := lc.Run(ctx); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
