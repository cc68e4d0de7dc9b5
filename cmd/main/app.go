package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/partner-m/assist-go/cmd/internal/cache"
	"github.com/partner-m/assist-go/cmd/internal/config"
	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
	"github.com/partner-m/assist-go/cmd/internal/reqhandler"
	"github.com/partner-m/assist-go/cmd/internal/server"
	"github.com/partner-m/assist-go/cmd/internal/services/aliases"
	"github.com/partner-m/assist-go/cmd/internal/services/catalogindex"
	"github.com/partner-m/assist-go/cmd/internal/services/clarify"
	"github.com/partner-m/assist-go/cmd/internal/services/history"
	"github.com/partner-m/assist-go/cmd/internal/services/llm"
	"github.com/partner-m/assist-go/cmd/internal/services/onec"
	"github.com/partner-m/assist-go/cmd/internal/services/pipeline"
	"github.com/partner-m/assist-go/cmd/internal/services/synonyms"
	"github.com/partner-m/assist-go/cmd/pkg/logging"

	_ "github.com/lib/pq"
)

const dbDriver = "postgres"

func main() {
	logger := logging.GetLogger()
	logger.Info("Starting Assist API...")

	if err := godotenv.Load(); err != nil {
		// .env опционален: в контейнере конфигурация приходит из окружения.
		logger.Infof("no .env file: %v", err)
	}

	cfg := config.GetConfig()

	conn, err := sql.Open(dbDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("error connecting to database: %v", err)
	}
	defer conn.Close()

	if err = conn.Ping(); err != nil {
		logger.Fatalf("error pinging database: %v", err)
	}
	logger.Info("Database connection established")

	store := db.NewStore(conn)
	redisCache := cache.New(cfg.RedisURL)

	synonymService := synonyms.NewService(store, redisCache, logger)
	aliasService := aliases.NewService(store, logger)
	historyService := history.NewService(store, logger)
	catalogService := catalogindex.NewService(store, logger)
	clarifyService := clarify.NewService(store, logger)
	llmService := llm.NewService(cfg, redisCache, store, logger)
	pipelineService := pipeline.NewService(
		store,
		synonymService,
		aliasService,
		historyService,
		catalogService,
		clarifyService,
		llmService,
		logger,
	)
	onecService := onec.NewService(cfg.OneC, store, llmService, logger)
	stateStore := reqhandler.NewStateStore(redisCache)

	ctx := context.Background()
	if err := synonymService.SeedDefaults(ctx); err != nil {
		logger.Warnf("seeding default synonyms: %v", err)
	}

	if cfg.OneC.Enabled {
		go onecService.RunCatalogSync(ctx)
	}

	srv := server.NewServer(store, logger, cfg, pipelineService, aliasService, llmService, onecService, stateStore)

	serverAddress := fmt.Sprintf("%s:%s", cfg.Listen.BindIP, cfg.Listen.Port)
	logger.Infof("Starting server on %s", serverAddress)

	if err := srv.Start(serverAddress); err != nil {
		logger.Fatalf("error starting server: %v", err)
	}
}
