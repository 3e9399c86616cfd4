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
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisAddr          string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider  string // "ollama", "openrouter", "openai"
	LLMBaseURL   string
	LLMAPIKey    string
	ChatModel    string
	UtilityModel string // grading and query rewriting

	EmbeddingProvider string // "ollama" or "openai"
	EmbeddingBaseURL  string
	EmbeddingAPIKey   string
	EmbeddingModel    string

	RetrievalTopK int
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
			RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:  getEnv("LLM_PROVIDER", "ollama"),
			LLMBaseURL:   getEnv("LLM_BASE_URL", "http://localhost:11434"),
			LLMAPIKey:    getEnv("LLM_API_KEY", ""),
			ChatModel:    getEnv("LLM_CHAT_MODEL", "qwen2.5"),
			UtilityModel: getEnv("LLM_UTILITY_MODEL", "qwen2.5"),

			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", "http://localhost:11434"),
			EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", ""),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),

			RetrievalTopK: getEnvAsInt("RETRIEVAL_TOP_K", 20),
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
