package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all widget configuration.
type Config struct {
	// Backend is the remote chat service the widget talks to.
	Backend struct {
		URL     string
		Timeout time.Duration
	}

	// Chat tunables for the conversation session.
	Chat struct {
		// HistoryLimit is the page size when loading prior messages.
		HistoryLimit int
		// CatalogLimit caps how many characters are requested at once.
		CatalogLimit int
		// BannerTTL is how long an error banner stays on screen.
		BannerTTL time.Duration
	}

	// Storage is where the two persisted identity values live.
	Storage struct {
		Path string
	}

	// Cache settings for the character catalog cache.
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}

	// Logging configuration.
	Logging struct {
		Level  string
		Format string
	}

	// Mock holds settings for the development backend.
	Mock struct {
		Port           string
		StreamDelay    time.Duration
		FixturesPath   string
		RateLimit      float64
		RateLimitBurst int
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates the Config singleton from the environment, loading a .env file
// if one is present.
func New() *Config {
	once.Do(func() {
		godotenv.Load()

		instance = &Config{}

		instance.Backend.URL = getEnvString("WIDGET_BACKEND_URL", "http://localhost:8081")
		instance.Backend.Timeout = getEnvDuration("WIDGET_BACKEND_TIMEOUT", 30*time.Second)

		instance.Chat.HistoryLimit = getEnvInt("WIDGET_HISTORY_LIMIT", 50)
		instance.Chat.CatalogLimit = getEnvInt("WIDGET_CATALOG_LIMIT", 100)
		instance.Chat.BannerTTL = getEnvDuration("WIDGET_BANNER_TTL", 5*time.Second)

		instance.Storage.Path = getEnvString("WIDGET_STORAGE_PATH", defaultStoragePath())

		instance.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
		instance.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
		instance.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 100)
		instance.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)

		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "text")

		instance.Mock.Port = getEnvString("MOCK_PORT", "8081")
		instance.Mock.StreamDelay = getEnvDuration("MOCK_STREAM_DELAY", 40*time.Millisecond)
		instance.Mock.FixturesPath = getEnvString("MOCK_FIXTURES_PATH", "")
		instance.Mock.RateLimit = float64(getEnvInt("MOCK_RATE_LIMIT", 20))
		instance.Mock.RateLimitBurst = getEnvInt("MOCK_RATE_LIMIT_BURST", 40)
	})

	return instance
}

// Get returns the singleton Config instance.
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".character-widget/identity.json"
	}
	return filepath.Join(home, ".character-widget", "identity.json")
}

// Helper functions to read environment variables with default values.

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
