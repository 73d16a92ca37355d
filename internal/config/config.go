package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Environment
	Environment string

	// Database (optional; empty runs without persistence)
	DatabaseURL    string
	MigrateOnStart bool
	MigrationsPath string

	// Redis (optional)
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Scene layout
	MaxItemsCount  int
	GameAreaSize   float64
	TileSize       int
	UpperBorder    int
	SafeZonePolicy string
	LayoutFile     string

	// Simulation
	TickRateHz         int
	SceneExpiryMinutes int

	// Security
	JWTSecret         string
	SessionTimeoutMin int
}

// Layout is the YAML form of the scene layout overrides.
type Layout struct {
	TileSize       *int     `yaml:"tile_size"`
	UpperBorder    *int     `yaml:"upper_border"`
	GameAreaSize   *float64 `yaml:"game_area_size"`
	MaxItemsCount  *int     `yaml:"max_items_count"`
	SafeZonePolicy *string  `yaml:"safe_zone_policy"`
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Scene layout
		MaxItemsCount:  getEnvInt("MAX_ITEMS_COUNT", 30),
		GameAreaSize:   getEnvFloat("GAME_AREA_SIZE", 50),
		TileSize:       getEnvInt("TILE_SIZE", 5),
		UpperBorder:    getEnvInt("UPPER_BORDER", 25),
		SafeZonePolicy: getEnv("SAFE_ZONE_POLICY", "radius"),
		LayoutFile:     getEnv("SCENE_LAYOUT_FILE", ""),

		// Simulation
		TickRateHz:         getEnvInt("TICK_RATE_HZ", 30),
		SceneExpiryMinutes: getEnvInt("SCENE_EXPIRY_MINUTES", 30),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 120),
	}

	if cfg.LayoutFile != "" {
		if err := cfg.ApplyLayoutFile(cfg.LayoutFile); err != nil {
			log.Printf("[CONFIG] Ignoring layout file %s: %v", cfg.LayoutFile, err)
		}
	}

	return cfg
}

// ApplyLayoutFile overrides layout settings with the values present in a YAML file.
func (c *Config) ApplyLayoutFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read layout file: %w", err)
	}
	return c.ApplyLayout(data)
}

// ApplyLayout overrides layout settings from YAML bytes. Absent keys keep their values.
func (c *Config) ApplyLayout(data []byte) error {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	if l.TileSize != nil {
		c.TileSize = *l.TileSize
	}
	if l.UpperBorder != nil {
		c.UpperBorder = *l.UpperBorder
	}
	if l.GameAreaSize != nil {
		c.GameAreaSize = *l.GameAreaSize
	}
	if l.MaxItemsCount != nil {
		c.MaxItemsCount = *l.MaxItemsCount
	}
	if l.SafeZonePolicy != nil {
		c.SafeZonePolicy = *l.SafeZonePolicy
	}
	return c.Validate()
}

// Validate rejects layouts the sampler cannot use.
func (c *Config) Validate() error {
	if c.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive, got %d", c.TileSize)
	}
	if c.UpperBorder <= 0 {
		return fmt.Errorf("upper border must be positive, got %d", c.UpperBorder)
	}
	if c.GameAreaSize <= 0 {
		return fmt.Errorf("game area size must be positive, got %g", c.GameAreaSize)
	}
	if c.MaxItemsCount < 0 {
		return fmt.Errorf("max items count must not be negative, got %d", c.MaxItemsCount)
	}
	if c.SafeZonePolicy != "radius" && c.SafeZonePolicy != "offset" {
		return fmt.Errorf("unknown safe zone policy %q", c.SafeZonePolicy)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
