// Package config loads runtime configuration from the environment. A .env
// file in the working directory is honored for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config selects the backing services for one process.
//
// DatabaseURL empty means the local JSON-file store; GCSBucket empty means
// document blobs go to DataDir on disk. The import pipeline is agnostic to
// which implementation is active.
type Config struct {
	Port        string
	DatabaseURL string
	DataDir     string
	GCSBucket   string
	// GeminiAPIKey only gates the AI routes; the genai client reads the
	// key from the environment itself.
	GeminiAPIKey string
}

// Load reads the configuration, applying defaults for anything unset.
func Load() Config {
	// Ignore a missing .env; env vars may be set directly.
	_ = godotenv.Load()

	return Config{
		Port:         getenv("PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DataDir:      getenv("DATA_DIR", "data"),
		GCSBucket:    os.Getenv("GCS_BUCKET"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
