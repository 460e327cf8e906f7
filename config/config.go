package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	AppName     = "shelf-api"
	EnvFileName = "config.env"
)

// Config holds the runtime settings read from the environment.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string
	DBPath       string
	ListenAddr   string
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// FromEnv reads the configuration from environment variables. Only the Gemini
// API key is required.
func FromEnv() (*Config, error) {
	cfg := &Config{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  os.Getenv("SHELF_GEMINI_MODEL"),
		DBPath:       getenv("SHELF_DB_PATH", "analyses.db"),
		ListenAddr:   getenv("SHELF_LISTEN_ADDR", ":8000"),
	}
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
