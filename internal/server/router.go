package server

import (
	"github.com/gin-gonic/gin"

	"github.com/po-tati-x/potatix-sub004/internal/http/handlers"
	"github.com/po-tati-x/potatix-sub004/internal/http/middleware"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
	"github.com/po-tati-x/potatix-sub004/internal/ratelimit"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthMiddleware *middleware.AuthMiddleware
	Limiter        ratelimit.Limiter

	UploadHandler     *handlers.UploadHandler
	EnrichmentHandler *handlers.EnrichmentHandler
	AssistantHandler  *handlers.AssistantHandler
	WebhookHandler    *handlers.WebhookHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.CORS())

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/api/webhooks/video", cfg.WebhookHandler.HandleVideoEvent)
	// Chapter reads are public; visibility gating belongs to the course
	// layer, not this service.
	router.GET("/api/lessons/:id/chapters", cfg.EnrichmentHandler.GetChapters)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.POST("/lessons/:id/upload-session", cfg.UploadHandler.CreateSession)
		api.DELETE("/lessons/:id/upload-session", cfg.UploadHandler.CancelSession)
		api.PUT("/lessons/:id/upload-status", cfg.UploadHandler.SetStatus)
		api.PUT("/lessons/:id/progress", cfg.UploadHandler.RecordProgress)
		api.GET("/lessons/:id/progress", cfg.UploadHandler.GetProgress)

		prompts := api.Group("/")
		prompts.Use(middleware.RateLimit(cfg.Log, cfg.Limiter, "prompt"))
		prompts.GET("/lessons/:id/prompts", cfg.AssistantHandler.GetPrompts)

		chat := api.Group("/")
		chat.Use(middleware.RateLimit(cfg.Log, cfg.Limiter, "chat"))
		chat.POST("/lessons/:id/chat", cfg.AssistantHandler.Chat)
	}

	return router
}
