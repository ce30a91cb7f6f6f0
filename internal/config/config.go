package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every tunable for the service. It is built once at process
// start and passed by reference; nothing reads the environment after Load.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string

	// World persistence.
	WorldName    string
	SaveInterval time.Duration

	// LLM providers: local first, cloud fallback only when its key is set.
	LocalBaseURL  string
	LocalModel    string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAIAPIKey  string

	// LLM client knobs.
	LLMTimeout          time.Duration
	LLMMaxAttempts      int
	LLMTemperature      float64
	NoTemperatureModels []string

	// Room tuning.
	MemoryMax    int
	LLMCooldown  time.Duration
	DescDebounce time.Duration
	DescCooldown time.Duration

	// Engine worker pool size.
	Workers int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		WorldName:    getEnv("WORLD_NAME", "default"),
		SaveInterval: getEnvSeconds("WORLD_SAVE_INTERVAL_S", 60),

		LocalBaseURL:  getEnv("LOCAL_LLM_BASE_URL", "http://127.0.0.1:1234/v1"),
		LocalModel:    getEnv("LOCAL_LLM_MODEL", "gpt-oss-120b"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-5-mini"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),

		LLMTimeout:          getEnvSeconds("LLM_TIMEOUT_S", 30),
		LLMMaxAttempts:      getEnvInt("LLM_MAX_ATTEMPTS", 4),
		LLMTemperature:      getEnvFloat("LLM_TEMPERATURE", 0.4),
		NoTemperatureModels: splitList(getEnv("LLM_NO_TEMPERATURE_MODELS", "gpt-5-mini")),

		MemoryMax:    getEnvInt("ROOM_MEMORY_MAX", 50),
		LLMCooldown:  getEnvSeconds("LLM_COOLDOWN_S", 2),
		DescDebounce: getEnvSeconds("DESC_DEBOUNCE_S", 1),
		DescCooldown: getEnvSeconds("DESC_COOLDOWN_S", 3),

		Workers: getEnvInt("ENGINE_WORKERS", 4),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
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

func getEnvSeconds(key string, defaultValue float64) time.Duration {
	seconds := getEnvFloat(key, defaultValue)
	return time.Duration(seconds * float64(time.Second))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
