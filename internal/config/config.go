package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Context window defaults. All of them can be overridden via env vars.
const (
	DefaultRecentTurns      = 5  // raw turns appended to every prompt
	DefaultSummaryChunkSize = 20 // messages compressed per incremental summary
	DefaultMaxSummaries     = 5  // summaries included per prompt
	DefaultTopKSemantic     = 4  // semantic clues included per prompt
)

type Config struct {
	GeminiAPIKey          string
	DatabaseURL           string
	HTTPPort              string
	LogLevel              string
	JWTSecret             string
	SystemInstructionPath string

	RecentTurns      int
	SummaryChunkSize int
	MaxSummaries     int
	TopKSemantic     int
}

// Load reads .env (if present) and the environment. The Gemini key is
// always required; the JWT secret only matters for the HTTP server, so
// that binary checks RequireJWTSecret itself.
func Load() (Config, error) {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := Config{
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		DatabaseURL:           getEnv("DATABASE_URL", "arcee_context.db"),
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		SystemInstructionPath: getEnv("SYSTEM_INSTRUCTION_PATH", "assets/system_instruction.txt"),
		RecentTurns:           getEnvAsInt("RECENT_TURNS", DefaultRecentTurns),
		SummaryChunkSize:      getEnvAsInt("SUMMARY_CHUNK_SIZE", DefaultSummaryChunkSize),
		MaxSummaries:          getEnvAsInt("MAX_SUMMARIES", DefaultMaxSummaries),
		TopKSemantic:          getEnvAsInt("TOP_K_SEMANTIC", DefaultTopKSemantic),
	}

	if cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	return cfg, nil
}

func (c Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil && value > 0 {
		return value
	}
	return defaultValue
}
