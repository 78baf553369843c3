package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/po-tati-x/potatix-sub004/internal/clients/redis"
	"github.com/po-tati-x/potatix-sub004/internal/data/db"
	"github.com/po-tati-x/potatix-sub004/internal/data/repos"
	"github.com/po-tati-x/potatix-sub004/internal/http/handlers"
	"github.com/po-tati-x/potatix-sub004/internal/http/middleware"
	"github.com/po-tati-x/potatix-sub004/internal/kv"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
	"github.com/po-tati-x/potatix-sub004/internal/platform/mux"
	"github.com/po-tati-x/potatix-sub004/internal/platform/openai"
	"github.com/po-tati-x/potatix-sub004/internal/ratelimit"
	"github.com/po-tati-x/potatix-sub004/internal/server"
	"github.com/po-tati-x/potatix-sub004/internal/services"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("postgres init failed", "error", err)
	}
	if err := db.AutoMigrateAll(pg.DB()); err != nil {
		log.Fatal("migration failed", "error", err)
	}

	var (
		store   kv.Store
		limiter ratelimit.Limiter
	)
	if os.Getenv("REDIS_ADDR") != "" {
		rdb, err := redis.NewClient(log)
		if err != nil {
			log.Fatal("redis init failed", "error", err)
		}
		kvStore, err := redis.NewKVStore(log, rdb)
		if err != nil {
			log.Fatal("redis kv init failed", "error", err)
		}
		rl, err := redis.NewLimiter(log, rdb, ratelimit.DefaultWindow, ratelimit.DefaultLimit)
		if err != nil {
			log.Fatal("redis limiter init failed", "error", err)
		}
		store = kvStore
		limiter = rl
	} else {
		log.Warn("REDIS_ADDR not set, using in-process progress store and rate limiter")
		store = kv.NewMemoryStore()
		limiter = ratelimit.NewMemoryLimiter(ratelimit.DefaultWindow, ratelimit.DefaultLimit)
	}

	videoClient, err := mux.New(log)
	if err != nil {
		log.Fatal("video provider init failed", "error", err)
	}
	aiClient, err := openai.New(log)
	if err != nil {
		log.Fatal("model client init failed", "error", err)
	}

	lessonRepo := repos.NewLessonRepo(pg.DB(), log)
	courseRepo := repos.NewCourseRepo(pg.DB(), log)

	authService, err := services.NewAuthService(log, os.Getenv("JWT_SECRET_KEY"))
	if err != nil {
		log.Fatal("auth service init failed", "error", err)
	}
	uploadService, err := services.NewUploadService(log, lessonRepo, videoClient)
	if err != nil {
		log.Fatal("upload service init failed", "error", err)
	}
	progressService, err := services.NewProgressService(log, store)
	if err != nil {
		log.Fatal("progress service init failed", "error", err)
	}
	enrichmentService, err := services.NewEnrichmentService(log, lessonRepo, videoClient, aiClient)
	if err != nil {
		log.Fatal("enrichment service init failed", "error", err)
	}
	assistantService, err := services.NewAssistantService(log, lessonRepo, courseRepo, aiClient)
	if err != nil {
		log.Fatal("assistant service init failed", "error", err)
	}
	webhookService, err := services.NewWebhookService(log, lessonRepo)
	if err != nil {
		log.Fatal("webhook service init failed", "error", err)
	}

	router := server.NewRouter(server.RouterConfig{
		Log:               log,
		AuthMiddleware:    middleware.NewAuthMiddleware(log, authService),
		Limiter:           limiter,
		UploadHandler:     handlers.NewUploadHandler(uploadService, progressService),
		EnrichmentHandler: handlers.NewEnrichmentHandler(enrichmentService),
		AssistantHandler:  handlers.NewAssistantHandler(assistantService),
		WebhookHandler:    handlers.NewWebhookHandler(log, webhookService),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info("starting api server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("server exited", "error", err)
	}
}
