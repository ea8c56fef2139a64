package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/moodjournal-backend/internal/handlers"
)

type RouterConfig struct {
	GenerateHandler *handlers.GenerateHandler
	JournalHandler  *handlers.JournalHandler
	MusicHandler    *handlers.MusicHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Tracing: otelgin opens the server span, AttachTraceContext echoes the
	// ids back to the caller. Spans are no-ops until InitOTel installs a
	// provider.
	router.Use(otelgin.Middleware("moodjournal-backend"))
	router.Use(AttachTraceContext())

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Generation
		api.POST("/generate", cfg.GenerateHandler.Generate)
		api.POST("/generate/rag", cfg.GenerateHandler.GenerateRAG)
		// Journal
		api.POST("/journal", cfg.JournalHandler.SaveEntry)
		api.GET("/journal", cfg.JournalHandler.ListEntries)
		// Music
		api.GET("/music", cfg.MusicHandler.Recommend)
	}

	return router
}
