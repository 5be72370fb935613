package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort        string
	JWTSecret       string
	TokenExpiration time.Duration
	DataDir         string
	AgentAPIURL     string
	AgentAPIToken   string
	HistoryAPIURL   string
	HistoryAPIToken string
	SyncInterval    time.Duration
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
		// Don't fail if .env is not present, might be in production
	}

	port := getEnv("HTTP_PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "default-super-secret-key") // CHANGE THIS IN PRODUCTION!
	dataDir := getEnv("DATA_DIR", "./data")

	agentURL := getEnv("AGENT_API_URL", "")
	if agentURL == "" {
		log.Fatal("AGENT_API_URL environment variable is not set.")
	}
	agentToken := getEnv("AGENT_API_TOKEN", "")

	historyURL := getEnv("HISTORY_API_URL", "")
	if historyURL == "" {
		log.Fatal("HISTORY_API_URL environment variable is not set.")
	}
	historyToken := getEnv("HISTORY_API_TOKEN", "")

	tokenExpStr := getEnv("JWT_EXPIRATION_HOURS", "24")
	tokenExpHours, err := strconv.Atoi(tokenExpStr)
	if err != nil {
		log.Printf("Warning: Invalid JWT_EXPIRATION_HOURS '%s', using default 24h. Error: %v", tokenExpStr, err)
		tokenExpHours = 24
	}

	syncIntervalStr := getEnv("SYNC_INTERVAL_SECONDS", "10")
	syncIntervalSecs, err := strconv.Atoi(syncIntervalStr)
	if err != nil || syncIntervalSecs <= 0 {
		log.Printf("Warning: Invalid SYNC_INTERVAL_SECONDS '%s', using default 10s.", syncIntervalStr)
		syncIntervalSecs = 10
	}

	cfg := &Config{
		HTTPPort:        port,
		JWTSecret:       jwtSecret,
		TokenExpiration: time.Hour * time.Duration(tokenExpHours),
		DataDir:         dataDir,
		AgentAPIURL:     agentURL,
		AgentAPIToken:   agentToken,
		HistoryAPIURL:   historyURL,
		HistoryAPIToken: historyToken,
		SyncInterval:    time.Duration(syncIntervalSecs) * time.Second,
	}

	log.Printf("Loaded config: Port=%s, DataDir=%s, AgentAPI=%s, HistoryAPI=%s, SyncInterval=%s",
		cfg.HTTPPort, cfg.DataDir, cfg.AgentAPIURL, cfg.HistoryAPIURL, cfg.SyncInterval)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}
