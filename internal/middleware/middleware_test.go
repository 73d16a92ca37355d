package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{Environment: "production", JWTSecret: "test-secret", SessionTimeoutMin: 5}
}

func TestIssueAndParseSceneToken(t *testing.T) {
	cfg := testConfig()
	signed, exp, err := IssueSceneToken(cfg, "abc")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)

	scene, err := ParseSceneToken(cfg, signed)
	require.NoError(t, err)
	assert.Equal(t, "abc", scene)
}

func TestParseSceneTokenRejects(t *testing.T) {
	cfg := testConfig()

	other := &config.Config{JWTSecret: "other"}
	signed, _, err := IssueSceneToken(other, "abc")
	require.NoError(t, err)
	_, err = ParseSceneToken(cfg, signed)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"scene": "abc",
		"exp":   time.Now().Add(-time.Minute).Unix(),
	})
	raw, err := expired.SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)
	_, err = ParseSceneToken(cfg, raw)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)

	noScene := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()})
	raw, err = noScene.SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)
	_, err = ParseSceneToken(cfg, raw)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)

	_, err = ParseSceneToken(cfg, "garbage")
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func newAuthRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/scenes/:token", SceneAuth(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(SceneTokenKey))
	})
	return r
}

func TestSceneAuth(t *testing.T) {
	cfg := testConfig()
	r := newAuthRouter(cfg)
	signed, _, err := IssueSceneToken(cfg, "abc")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing", "/scenes/abc", "", http.StatusUnauthorized},
		{"bad", "/scenes/abc", "Bearer nope", http.StatusUnauthorized},
		{"wrong scene", "/scenes/xyz", "Bearer " + signed, http.StatusForbidden},
		{"ok header", "/scenes/abc", "Bearer " + signed, http.StatusOK},
		{"ok query", "/scenes/abc?access_token=" + signed, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "abc", w.Body.String())
			}
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	dev := &config.Config{Environment: "development"}
	assert.ElementsMatch(t, devOrigins, AllowedOrigins(dev))
	assert.True(t, OriginAllowed(dev, "http://localhost:3000"))

	prod := &config.Config{Environment: "production", FrontendURL: "https://a.example, https://b.example"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, AllowedOrigins(prod))
	assert.True(t, OriginAllowed(prod, "https://b.example"))
	assert.False(t, OriginAllowed(prod, "http://localhost:3000"))

	open := &config.Config{Environment: "production"}
	assert.Empty(t, AllowedOrigins(open))
	assert.True(t, OriginAllowed(open, "https://anything.example"))
}

func TestWebSocketCORSCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Environment: "production", FrontendURL: "https://a.example"}
	r := gin.New()
	r.GET("/ws", WebSocketCORSCheck(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(origin string, upgrade bool) int {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if upgrade {
			req.Header.Set("Connection", "Upgrade")
			req.Header.Set("Upgrade", "websocket")
		}
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("", false))
	assert.Equal(t, http.StatusBadRequest, do("", true))
	assert.Equal(t, http.StatusForbidden, do("https://evil.example", true))
	assert.Equal(t, http.StatusOK, do("https://a.example", true))
}
