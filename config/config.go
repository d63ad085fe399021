package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"coverage-route-server/graph"
	"coverage-route-server/loader"
	"coverage-route-server/models"
	"coverage-route-server/storage"
	"coverage-route-server/utils"
)

// Config holds the configuration shared by the servers and tools
type Config struct {
	// HTTP
	Port        string
	CircuitPort string

	// Storage
	DataDir        string
	StoreDriver    models.StoreDriver
	SQLiteDatabase string
	DatabaseURL    string

	// Editing
	RoadProfile    string // path to a YAML profile, built-in profile when empty
	TogglePolicy   graph.TogglePolicy
	AutoSave       bool
	StreetsDir     string
	TurnBackWeight float64
}

// Load reads .env when present, then the environment with defaults
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default environment variables")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		CircuitPort: getEnv("CIRCUIT_PORT", "8081"),

		DataDir:        getEnv("DATA_DIR", "data"),
		StoreDriver:    utils.ParseStoreDriver(getEnv("STORE_DRIVER", string(models.FileDriver))),
		SQLiteDatabase: getEnv("SQLITE_DATABASE", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		RoadProfile:    getEnv("ROAD_PROFILE", ""),
		AutoSave:       getEnvBool("AUTO_SAVE", false),
		StreetsDir:     getEnv("STREETS_DIR", ""),
		TurnBackWeight: getEnvFloat("TURN_BACK_WEIGHT", 1000),
	}

	policy, err := utils.ParseTogglePolicy(getEnv("TOGGLE_POLICY", "keep_largest"))
	if err != nil {
		log.Printf("WARNING: %v, using keep_largest", err)
		policy = graph.KeepLargest
	}
	cfg.TogglePolicy = policy

	return cfg
}

// StoreOptions returns the storage settings
func (c *Config) StoreOptions() storage.Options {
	return storage.Options{
		Driver:      c.StoreDriver,
		DataDir:     c.DataDir,
		SQLitePath:  c.SQLiteDatabase,
		DatabaseURL: c.DatabaseURL,
	}
}

// Profile loads the configured road profile, falling back to the built-in
// one when the file cannot be read
func (c *Config) Profile() loader.Profile {
	if c.RoadProfile == "" {
		return loader.DefaultProfile()
	}
	profile, err := loader.LoadProfile(c.RoadProfile)
	if err != nil {
		log.Printf("WARNING: failed to load road profile: %v", err)
		return loader.DefaultProfile()
	}
	return profile
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
