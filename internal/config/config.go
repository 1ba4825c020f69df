package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Rag      RagConfig
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	IngestTopic        string
}

type DatabaseConfig struct {
	Connection string
}

// RagConfig is the single home for every retrieval knob. Each component
// receives the values it needs through its constructor; nothing reads the
// environment at query time.
type RagConfig struct {
	ChunkSize          int
	ChunkOverlap       int
	ChunkMode          string // "character" or "sentence"
	Dimension          int
	TopK               int
	RelevanceThreshold float64
	MaxRefinements     int
	ContextBudget      int
	MaxAnswerTokens    int
	MemoryMaxTurns     int // 0 keeps every turn
	AnswerCacheTTLSecs int
}

type AIConfig struct {
	LLMProvider   string // "ollama"
	LLMModel      string // e.g. "llama3", "qwen2.5"
	OllamaBaseURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			IngestTopic:        getEnv("INGEST_DOCUMENT_TOPIC_NAME", "INGEST_DOCUMENT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Rag: RagConfig{
			ChunkSize:          getEnvAsInt("CHUNK_SIZE", 1000),
			ChunkOverlap:       getEnvAsInt("CHUNK_OVERLAP", 200),
			ChunkMode:          getEnv("CHUNK_MODE", "character"),
			Dimension:          getEnvAsInt("FINGERPRINT_DIMENSION", 768),
			TopK:               getEnvAsInt("TOP_K_RETRIEVAL", 5),
			RelevanceThreshold: getEnvAsFloat("RELEVANCE_THRESHOLD", 0.5),
			MaxRefinements:     getEnvAsInt("MAX_REFINEMENTS", 2),
			ContextBudget:      getEnvAsInt("CONTEXT_BUDGET", 6000),
			MaxAnswerTokens:    getEnvAsInt("MAX_ANSWER_TOKENS", 2048),
			MemoryMaxTurns:     getEnvAsInt("MEMORY_MAX_TURNS", 0),
			AnswerCacheTTLSecs: getEnvAsInt("ANSWER_CACHE_TTL_SECONDS", 300),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
