package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/config"
)

// devOrigins are the Vite dev server addresses.
var devOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// AllowedOrigins returns the browser origins allowed for cfg.
func AllowedOrigins(cfg *config.Config) []string {
	if cfg.Environment == "development" {
		origins := append([]string{}, devOrigins...)
		if cfg.FrontendURL != "" && !strings.HasPrefix(cfg.FrontendURL, "http://localhost") {
			origins = append(origins, cfg.FrontendURL)
		}
		return origins
	}
	if cfg.FrontendURL == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(cfg.FrontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// CORSMiddleware returns a CORS middleware configured for the environment
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	log.Printf("[CORS] Environment: %s, FrontendURL: %s", cfg.Environment, cfg.FrontendURL)

	corsConfig := cors.Config{
		AllowMethods: []string{
			"GET", "POST", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Authorization",
			"Accept", "Cache-Control", "X-Requested-With",
		},
		ExposeHeaders: []string{
			"Content-Length", "X-Scene-ID",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins := AllowedOrigins(cfg)
	if len(origins) == 0 {
		// Nothing configured: open API without credentials.
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
		log.Println("[CORS] No FRONTEND_URL set, allowing all origins")
	} else {
		corsConfig.AllowOrigins = origins
		log.Printf("[CORS] Allowed origins: %v", origins)
	}

	return cors.New(corsConfig)
}

// OriginAllowed reports whether a WebSocket upgrade from origin is accepted.
func OriginAllowed(cfg *config.Config, origin string) bool {
	if cfg.Environment == "development" {
		if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:") {
			return true
		}
	}
	origins := AllowedOrigins(cfg)
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if origin == o {
			return true
		}
	}
	return false
}

// WebSocketCORSCheck validates WebSocket upgrade origins
func WebSocketCORSCheck(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.ToLower(c.GetHeader("Connection")) != "upgrade" ||
			strings.ToLower(c.GetHeader("Upgrade")) != "websocket" {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			c.AbortWithStatusJSON(400, gin.H{"error": "WebSocket origin required"})
			return
		}
		if !OriginAllowed(cfg, origin) {
			c.AbortWithStatusJSON(403, gin.H{"error": "WebSocket origin not allowed"})
			return
		}

		c.Next()
	}
}
