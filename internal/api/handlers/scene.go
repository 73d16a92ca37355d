package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/middleware"
	"github.com/playmatatu/billiards/internal/navigation"
	"github.com/playmatatu/billiards/internal/placement"
	"github.com/playmatatu/billiards/internal/scene"
)

// GetSettingsLimits reports the item cap and default settings.
func GetSettingsLimits(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"max_items_count": cfg.MaxItemsCount,
			"default":         placement.DefaultSettings(cfg.MaxItemsCount),
		})
	}
}

// bindSettings reads optional GameSettings from the body. An empty body
// yields the defaults; fields left out keep their default value.
func bindSettings(c *gin.Context, maxItems int) (placement.GameSettings, error) {
	settings := placement.DefaultSettings(maxItems)
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return settings, nil
	}
	if err := c.ShouldBindJSON(&settings); err != nil && !errors.Is(err, io.EOF) {
		return settings, err
	}
	return settings, nil
}

// CreateScene starts a scene and issues its access token.
func CreateScene(mgr *scene.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := bindSettings(c, cfg.MaxItemsCount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings. Expected cubes_count and spheres_count."})
			return
		}

		s, token, err := mgr.Create(c.Request.Context(), settings)
		if err != nil {
			log.Printf("[ERROR] CreateScene - %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create scene"})
			return
		}

		access, exp, err := middleware.IssueSceneToken(cfg, token)
		if err != nil {
			log.Printf("[ERROR] CreateScene - %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Header("X-Scene-ID", s.ID)
		c.JSON(http.StatusCreated, gin.H{
			"scene_id":     s.ID,
			"token":        token,
			"access_token": access,
			"expires_at":   exp.Unix(),
			"settings":     s.Settings,
			"placement":    s.Placement,
			"entities":     scene.Entities(),
			"state":        s.Snapshot(),
		})
	}
}

// GetScene returns the live snapshot, or the last one saved in Redis when
// this instance does not own the scene.
func GetScene(mgr *scene.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")

		if s, err := mgr.Get(token); err == nil {
			c.JSON(http.StatusOK, gin.H{"state": s.Snapshot(), "live": true})
			return
		}

		snap, err := mgr.LoadSnapshot(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, scene.ErrSceneNotFound) {
				log.Printf("[ERROR] GetScene - %v", err)
			}
			c.JSON(http.StatusNotFound, gin.H{"error": "scene not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": snap, "live": false})
	}
}

// PickRequest is the REST form of a pointer pick.
type PickRequest struct {
	Kind     navigation.EventKind `json:"kind"`
	Point    *navigation.Point3D  `json:"point"`
	EntityID string               `json:"entity_id"`
}

// PickScene applies a pointer pick to the scene's car. Rejected picks are
// not errors: the response reports steered=false.
func PickScene(mgr *scene.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PickRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pick"})
			return
		}
		if req.Kind == "" {
			req.Kind = navigation.EventPick
		}

		event := navigation.PickEvent{Kind: req.Kind, Point: req.Point, EntityID: req.EntityID}
		steering, ok, err := mgr.Pick(c.Request.Context(), c.Param("token"), event)
		if err != nil {
			writeSceneError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusOK, gin.H{"steered": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"steered": true, "steering": steering})
	}
}

// RestartScene replaces the scene behind the token with a fresh one.
func RestartScene(mgr *scene.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := bindSettings(c, cfg.MaxItemsCount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings. Expected cubes_count and spheres_count."})
			return
		}

		s, err := mgr.Restart(c.Request.Context(), c.Param("token"), settings)
		if err != nil {
			writeSceneError(c, err)
			return
		}

		c.Header("X-Scene-ID", s.ID)
		c.JSON(http.StatusOK, gin.H{
			"scene_id":  s.ID,
			"settings":  s.Settings,
			"placement": s.Placement,
			"state":     s.Snapshot(),
		})
	}
}

// EndScene disposes the scene behind the token.
func EndScene(mgr *scene.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.End(c.Request.Context(), c.Param("token")); err != nil {
			writeSceneError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ended": true})
	}
}

func writeSceneError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scene.ErrSceneNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "scene not found"})
	case errors.Is(err, scene.ErrSceneEnded):
		c.JSON(http.StatusGone, gin.H{"error": "scene has ended"})
	default:
		log.Printf("[ERROR] scene request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
