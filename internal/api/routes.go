package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/api/handlers"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/middleware"
	"github.com/playmatatu/billiards/internal/scene"
	"github.com/playmatatu/billiards/internal/store"
	"github.com/playmatatu/billiards/internal/ws"
)

// SetupRoutes configures all API routes. st may be nil when running without
// a database.
func SetupRoutes(router *gin.Engine, mgr *scene.Manager, hub *ws.Hub, st *store.Store, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(mgr))
		v1.GET("/settings/limits", handlers.GetSettingsLimits(cfg))
		v1.GET("/sessions", handlers.ListSessions(st))
		v1.GET("/sessions/:scene_id/picks", middleware.SceneAuth(cfg), handlers.SessionPicks(st))

		v1.POST("/scenes", handlers.CreateScene(mgr, cfg))

		scenes := v1.Group("/scenes/:token", middleware.SceneAuth(cfg))
		{
			scenes.GET("", handlers.GetScene(mgr))
			scenes.DELETE("", handlers.EndScene(mgr))
			scenes.POST("/pick", handlers.PickScene(mgr))
			scenes.POST("/restart", handlers.RestartScene(mgr, cfg))
			scenes.GET("/ws", middleware.WebSocketCORSCheck(cfg), hub.HandleWebSocket)
		}
	}
}
