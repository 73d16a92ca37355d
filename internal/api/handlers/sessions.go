package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/middleware"
	"github.com/playmatatu/billiards/internal/store"
)

// ListSessions returns recently recorded sessions. It needs a database.
func ListSessions(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if st == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		sessions, err := st.RecentSessions(c.Request.Context(), limit)
		if err != nil {
			log.Printf("[ERROR] ListSessions - %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sessions"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": sessions})
	}
}

// SessionPicks returns the accepted picks of a recorded session. The caller's
// scene token must match the one stored for the session, so history stays
// readable after the scene has ended.
func SessionPicks(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if st == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
			return
		}
		sceneID := c.Param("scene_id")
		ok, err := st.VerifySession(c.Request.Context(), sceneID, c.GetString(middleware.SceneTokenKey))
		if errors.Is(err, store.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		if err != nil {
			log.Printf("[ERROR] SessionPicks - %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "token does not grant this session"})
			return
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		picks, err := st.PickHistory(c.Request.Context(), sceneID, limit)
		if err != nil {
			log.Printf("[ERROR] SessionPicks - %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list picks"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"scene_id": sceneID, "picks": picks})
	}
}
