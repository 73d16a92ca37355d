package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/playmatatu/billiards/internal/config"
)

// SceneTokenKey is the gin context key holding the authenticated scene token.
const SceneTokenKey = "scene_token"

var ErrInvalidAccessToken = errors.New("invalid access token")

// IssueSceneToken signs an HS256 access token bound to a scene token.
func IssueSceneToken(cfg *config.Config, sceneToken string) (string, time.Time, error) {
	minutes := cfg.SessionTimeoutMin
	if minutes <= 0 {
		minutes = 120
	}
	exp := time.Now().Add(time.Duration(minutes) * time.Minute)
	claims := jwt.MapClaims{
		"scene": sceneToken,
		"iat":   time.Now().Unix(),
		"exp":   exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// ParseSceneToken validates an access token and returns its scene token.
func ParseSceneToken(cfg *config.Config, raw string) (string, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidAccessToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidAccessToken
	}
	scene, ok := claims["scene"].(string)
	if !ok || scene == "" {
		return "", ErrInvalidAccessToken
	}
	return scene, nil
}

// bearer extracts the access token from the Authorization header, falling
// back to the access_token query parameter for WebSocket upgrades.
func bearer(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Query("access_token")
}

// SceneAuth requires an access token whose scene claim matches the :token
// route parameter.
func SceneAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		scene, err := ParseSceneToken(cfg, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if param := c.Param("token"); param != "" && param != scene {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token does not grant this scene"})
			return
		}
		c.Set(SceneTokenKey, scene)
		c.Next()
	}
}
