package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"talkzilla/internal/constant"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Session SessionConfig
	Ai      AIConfig
	Upload  UploadConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
}

type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	Store      string // "memory" or "redis"
	RedisURL   string
	CookieName string
	Secure     bool
}

type AIConfig struct {
	LLMProvider     string // "gemini" or any "openai"-compatible endpoint
	LLMBaseURL      string
	LLMTimeout      time.Duration
	TokenizerScheme string
}

type UploadConfig struct {
	MaxBytes int
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	env := getEnv("GO_ENV", "development")

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8501"),
			Environment:        env,
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/exchange.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:8501"),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", ""),
			TTL:        getEnvAsDuration("SESSION_TTL", 2*time.Hour),
			Store:      getEnv("SESSION_STORE", "memory"),
			RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379"),
			CookieName: getEnv("SESSION_COOKIE_NAME", "talkzilla_session"),
			Secure:     getEnvAsBool("SESSION_COOKIE_SECURE", env == "production"),
		},
		Ai: AIConfig{
			LLMProvider:     getEnv("LLM_PROVIDER", "gemini"),
			LLMBaseURL:      getEnv("LLM_BASE_URL", constant.DefaultLLMBaseURL),
			LLMTimeout:      getEnvAsDuration("LLM_TIMEOUT", 5*time.Minute),
			TokenizerScheme: getEnv("TOKENIZER_ENCODING", constant.DefaultTokenizerScheme),
		},
		Upload: UploadConfig{
			MaxBytes: getEnvAsInt("UPLOAD_MAX_BYTES", 20*1024*1024),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
