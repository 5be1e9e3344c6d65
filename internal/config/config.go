package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	LogLevel    string

	BotToken    string
	AdminChatID int64

	Timezone   string
	PhraseTime string
	FactTime   string
	QuizTime   string

	PhrasesFile string
	FactsFile   string
	LimitsFile  string

	HTTPPort string

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBPath     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string

	OpenAIKey   string
	OpenAIModel string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "ahlabot"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		BotToken:    strings.TrimSpace(getenv("BOT_TOKEN", "")),
		AdminChatID: getenvInt64("ADMIN_CHAT_ID", 0),

		Timezone:   getenv("TIMEZONE", "Asia/Jerusalem"),
		PhraseTime: getenv("PHRASE_TIME", "08:00"),
		FactTime:   getenv("FACT_TIME", "19:00"),
		QuizTime:   getenv("QUIZ_TIME", "11:00"),

		PhrasesFile: getenv("PHRASES_FILE", "phrases.json"),
		FactsFile:   getenv("FACTS_FILE", "facts.json"),
		LimitsFile:  getenv("LIMITS_FILE", ""),

		HTTPPort: getenv("PORT", "10000"),

		DBType:     getenv("DATABASE_TYPE", "sqlite"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "ahlabot"),
		DBPath:     getenv("DATABASE_PATH", "ahlabot.db"),
		DBUser:     getenv("DATABASE_USER", "postgres"),
		DBPassword: getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		OpenAIKey:   strings.TrimSpace(getenv("OPENAI_API_KEY", "")),
		OpenAIModel: getenv("OPENAI_MODEL", "gpt-4o"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
